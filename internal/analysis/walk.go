package analysis

import (
	"github.com/CWBudde/go-include-cleaner/internal/cc"
	"github.com/CWBudde/go-include-cleaner/internal/source"
)

// refVisitor receives one (use-location, referenced declaration) pair.
// The declaration is always canonical.
type refVisitor func(loc source.Loc, d *cc.NamedDecl)

// walker traverses one top-level declaration, reporting every textual
// reference the policy counts. The only traversal state is the location
// of the nearest enclosing type spelling, saved and restored around
// recursive descent.
type walker struct {
	ctx   *AnalysisContext
	visit refVisitor

	enclosingTypeLoc source.Loc
}

// walkDecl traverses d and reports its references through visit.
func walkDecl(ctx *AnalysisContext, d *cc.NamedDecl, visit refVisitor) {
	w := &walker{ctx: ctx, visit: visit}
	w.decl(d)
}

// report canonicalizes and emits one reference after applying the
// macro-expansion rules: a location inside a macro-argument expansion is
// rewritten to its spelling in the caller; a location inside a macro
// body is suppressed (those uses are captured when the macro is
// defined).
func (w *walker) report(loc source.Loc, d *cc.NamedDecl) {
	if d == nil || !loc.IsValid() {
		return
	}
	sm := w.ctx.sm
	for sm.IsMacroLoc(loc) {
		spelling, _, macroArg, ok := sm.ExpansionInfo(loc)
		if !ok || !macroArg {
			return // written inside a macro body
		}
		loc = spelling
	}
	w.visit(loc, d.Canon())
}

func (w *walker) decl(d *cc.NamedDecl) {
	if d == nil {
		return
	}

	switch d.Kind {
	case cc.DeclVar, cc.DeclField:
		w.typeRef(d.Type)
		w.expr(d.Init)

	case cc.DeclFunction:
		// a definition whose first declaration lives elsewhere references
		// that declaration
		if d.IsDefinition && d.Canon() != d {
			w.report(d.Loc, d.Canon())
		}
		w.typeRef(d.Type)
		for _, stmt := range d.Body {
			w.expr(stmt)
		}

	case cc.DeclTypedef, cc.DeclAlias:
		w.typeRef(d.Type)

	case cc.DeclUsing:
		for _, target := range d.Targets {
			w.report(d.Loc, target)
		}

	case cc.DeclClass, cc.DeclStruct, cc.DeclUnion, cc.DeclEnum:
		for _, m := range d.Members {
			if m.Kind == cc.DeclField {
				w.typeRef(m.Type)
			}
		}
	}
}

// typeRef reports a written type use at the location of its containing
// TypeLoc and descends into template arguments.
func (w *walker) typeRef(t *cc.TypeRef) {
	if t == nil {
		return
	}

	saved := w.enclosingTypeLoc
	w.enclosingTypeLoc = t.Loc
	defer func() { w.enclosingTypeLoc = saved }()

	w.report(t.Loc, t.Decl)
	if t.SpecializedRecord != nil {
		w.report(t.Loc, t.SpecializedRecord)
	}
	for _, arg := range t.Args {
		w.typeRef(arg)
	}
}

func (w *walker) expr(e cc.Expr) {
	if e == nil {
		return
	}

	switch x := e.(type) {
	case *cc.DeclRefExpr:
		w.report(x.NameLoc, x.Decl)

	case *cc.MemberExpr:
		w.expr(x.Base)
		if w.ctx.policy.Members {
			w.report(x.MemberLoc, x.Member)
		}

	case *cc.CallExpr:
		w.expr(x.Callee)
		for _, a := range x.Args {
			w.expr(a)
		}

	case *cc.OperatorCallExpr:
		if w.ctx.policy.Operators {
			w.report(x.OpLoc, x.Fn)
		}
		for _, a := range x.Args {
			w.expr(a)
		}

	case *cc.BinaryExpr:
		w.expr(x.LHS)
		w.expr(x.RHS)

	case *cc.ConstructExpr:
		if x.Type != nil {
			w.typeRef(x.Type)
		} else if w.ctx.policy.Construction {
			// no type written at the call site: the construction itself
			// is the reference
			w.report(x.CallLoc, x.Record)
		}
		for _, a := range x.Args {
			w.expr(a)
		}

	case *cc.UnresolvedLookupExpr:
		if x.IsMember && !w.ctx.policy.Members {
			return
		}
		for _, cand := range x.Candidates {
			w.report(x.NameLoc, cand)
		}

	case *cc.DeclStmt:
		for _, d := range x.Decls {
			w.decl(d)
		}

	case *cc.LiteralExpr:
		// nothing referenced
	}
}
