package analysis

import (
	"github.com/CWBudde/go-include-cleaner/internal/cc"
)

// hintedLocation is a provider location with its advisory hint.
type hintedLocation struct {
	Loc  Location
	Hint Hint
}

// locateDecl returns the provider locations of a declaration.
//
// A declaration the standard-library recognizer knows maps to exactly
// its logical symbol. Otherwise every redeclaration with a valid source
// location provides the entity, except friend-only declarations: a
// friend is not a forward declaration for provider purposes. The
// definition carries a Complete hint when the entity is a tag or a
// function template.
func (ctx *AnalysisContext) locateDecl(d *cc.NamedDecl) []hintedLocation {
	canon := d.Canon()

	if ctx.stdlib {
		if std, ok := recognizeStd(canon.Scope, canon.Name); ok {
			return []hintedLocation{{Loc: Location{Kind: LocationStdlib, Std: std}}}
		}
	}

	var out []hintedLocation
	for _, redecl := range canon.AllRedecls() {
		if redecl.IsFriend {
			continue
		}
		if !redecl.Loc.IsValid() {
			continue
		}
		var hint Hint
		if isCompleteDefinition(redecl) {
			hint = HintComplete
		}
		out = append(out, hintedLocation{
			Loc:  Location{Kind: LocationPhysical, Pos: redecl.Loc},
			Hint: hint,
		})
	}
	return out
}

// isCompleteDefinition reports whether redecl is the kind of definition
// that makes its provider complete: a tag definition, a class template
// definition, or a function template definition.
func isCompleteDefinition(redecl *cc.NamedDecl) bool {
	if !redecl.IsDefinition {
		return false
	}
	if redecl.Kind.IsTag() {
		return true
	}
	return redecl.IsTemplate && redecl.Kind == cc.DeclFunction
}

// locateMacro returns the provider location of a macro: its definition.
func (ctx *AnalysisContext) locateMacro(m *Macro) []hintedLocation {
	if !m.DefLoc.IsValid() {
		return nil
	}
	return []hintedLocation{{Loc: Location{Kind: LocationPhysical, Pos: m.DefLoc}}}
}

// headersFor resolves one provider location to the includable headers
// exposing it.
func (ctx *AnalysisContext) headersFor(loc Location) []Header {
	switch loc.Kind {
	case LocationPhysical:
		f := ctx.sm.FileFor(ctx.sm.ExpansionLoc(loc.Pos))
		if f == nil {
			return nil
		}
		switch {
		case f.ID == ctx.sm.MainFileID():
			return []Header{MainFileHeader()}
		case f.Builtin:
			return []Header{BuiltinHeader()}
		default:
			return []Header{PhysicalHeader(f)}
		}

	case LocationStdlib:
		return []Header{StdlibHeader(loc.Std.Header)}
	}
	return nil
}
