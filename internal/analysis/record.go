package analysis

import (
	"github.com/CWBudde/go-include-cleaner/internal/cc"
	"github.com/CWBudde/go-include-cleaner/internal/source"
)

// Recorder consumes preprocessor and AST events during parsing and
// captures the three inputs of the analysis: the main file's include
// directives, its macro references, and its top-level declarations.
//
// The recorder is mutated only through the parsing callbacks; once the
// parse completes it is frozen and the analyzer reads it as immutable
// state.
type Recorder struct {
	ctx *AnalysisContext

	// Includes is the main file's directive table.
	Includes RecordedIncludes

	// MacroRefs are the captured macro references, in event order. Every
	// reference location lies within the main file.
	MacroRefs []SymbolReference

	// Roots are the main file's top-level declarations in visit order.
	Roots []*cc.NamedDecl

	inMain bool
}

// NewRecorder creates a recorder bound to ctx. Install it as the
// preprocessor's callbacks and as the parser's declaration consumer.
func NewRecorder(ctx *AnalysisContext) *Recorder {
	return &Recorder{ctx: ctx}
}

// FileChanged tracks whether preprocessing is currently inside the main
// file.
func (r *Recorder) FileChanged(loc source.Loc, reason cc.FileChangeReason) {
	f := r.ctx.sm.FileFor(loc)
	r.inMain = f != nil && f.ID == r.ctx.sm.MainFileID()
}

// InclusionDirective records one #include written in the main file.
func (r *Recorder) InclusionDirective(hashLoc source.Loc, spelled string, angled bool, resolved *source.File, keep bool) {
	if !r.inMain {
		return
	}
	r.Includes.Add(&Include{
		Spelled:  spelled,
		Resolved: resolved,
		HashLoc:  hashLoc,
		Line:     r.ctx.sm.Line(hashLoc),
		Angled:   angled,
		Keep:     keep,
	})
}

// MacroExpands records a reference to the expanded macro's current
// definition at the use site. Expansions of names written in macro
// bodies are skipped, those uses are captured by MacroDefined instead;
// names spelled in a macro argument count at their spelling location.
func (r *Recorder) MacroExpands(nameTok cc.Token, mi *cc.MacroInfo) {
	if !r.inMain || mi.IsBuiltin {
		return
	}
	// expansions nested in another expansion only count when the name
	// was spelled in a macro argument: walk to its spelling in the
	// caller, like the AST walker does for declaration references
	loc := nameTok.Loc
	for r.ctx.sm.IsMacroLoc(loc) {
		spelling, _, macroArg, ok := r.ctx.sm.ExpansionInfo(loc)
		if !ok || !macroArg {
			return
		}
		loc = spelling
	}
	if f := r.ctx.sm.FileFor(loc); f == nil || f.ID != r.ctx.sm.MainFileID() {
		return
	}
	r.MacroRefs = append(r.MacroRefs, SymbolReference{
		Loc: loc,
		Sym: MacroSymbol{Macro: r.ctx.cache.getMacro(mi.Name, mi.DefLoc)},
	})
}

// MacroDefined scans the body of a #define written in the main file.
// Each body identifier that is not a formal parameter and names a macro
// visible at definition time is a reference to that macro: such uses
// never expand lexically at the definition, so they would otherwise be
// lost.
func (r *Recorder) MacroDefined(name string, mi *cc.MacroInfo) {
	if !r.inMain || mi.IsBuiltin {
		return
	}
	for _, tok := range mi.Body {
		if tok.Kind != cc.TokenIdent {
			continue
		}
		if isParam(mi.Params, tok.Text) {
			continue
		}
		used := r.ctx.macros.LookupMacro(tok.Text)
		if used == nil || used.IsBuiltin || used == mi {
			continue
		}
		r.MacroRefs = append(r.MacroRefs, SymbolReference{
			Loc: tok.Loc,
			Sym: MacroSymbol{Macro: r.ctx.cache.getMacro(used.Name, used.DefLoc)},
		})
	}
}

// MacroUndefined is part of the preprocessor callback surface; an #undef
// references nothing.
func (r *Recorder) MacroUndefined(name string, mi *cc.MacroInfo) {}

func isParam(params []string, name string) bool {
	for _, p := range params {
		if p == name {
			return true
		}
	}
	return false
}

// TopLevelDecl receives each parsed top-level declaration and keeps the
// ones the walker should traverse: declarations written in the main
// file, excluding implicit instantiations and declarations that are
// semantically nested (walking those would re-walk their enclosing
// type).
func (r *Recorder) TopLevelDecl(d *cc.NamedDecl) {
	if d == nil || d.IsImplicit || d.IsMember {
		return
	}
	if !d.Loc.IsValid() {
		return
	}
	f := r.ctx.sm.FileFor(d.Loc)
	if f == nil || f.ID != r.ctx.sm.MainFileID() {
		return
	}
	r.Roots = append(r.Roots, d)
}
