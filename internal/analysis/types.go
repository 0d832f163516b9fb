// Package analysis decides, for every #include directive written in the
// main file of a translation unit, whether the directive is used: whether
// some symbol textually referenced from the main file is provided by a
// header the directive directly satisfies.
//
// The package consumes the artifacts of a parse (the preprocessor event
// stream and the top-level declaration AST from internal/cc) and produces
// per-reference provider headers plus a used/unused verdict per include.
package analysis

import (
	"strings"

	"github.com/CWBudde/go-include-cleaner/internal/cc"
	"github.com/CWBudde/go-include-cleaner/internal/source"
)

// Symbol is a referenceable entity: a named declaration or a macro. The
// union is closed; code branching on the variant switches exhaustively.
type Symbol interface {
	// Name returns the referenced identifier.
	Name() string
	// Kind returns the user-visible node kind ("class", "macro", ...).
	Kind() string

	isSymbol()
}

// DeclSymbol is a declaration symbol. Redeclarations of one entity are
// one symbol; Decl is always the canonical declaration.
type DeclSymbol struct {
	Decl *cc.NamedDecl
}

func (s DeclSymbol) Name() string { return s.Decl.Name }
func (s DeclSymbol) Kind() string { return s.Decl.Kind.String() }
func (s DeclSymbol) isSymbol()    {}

// MacroSymbol is a macro symbol, identified by (name, definition
// location): redefining a name yields a distinct symbol.
type MacroSymbol struct {
	Macro *Macro
}

func (s MacroSymbol) Name() string { return s.Macro.Name }
func (s MacroSymbol) Kind() string { return "macro" }
func (s MacroSymbol) isSymbol()    {}

// SymbolReference is one textual use of a symbol from the main file.
type SymbolReference struct {
	Loc source.Loc
	Sym Symbol
}

// LocationKind tags provider locations.
type LocationKind int

const (
	// LocationPhysical is a raw source location in the translation unit.
	LocationPhysical LocationKind = iota
	// LocationStdlib is a logical standard-library symbol.
	LocationStdlib
)

// Location is where a symbol is provided.
type Location struct {
	Kind LocationKind
	Pos  source.Loc // valid for LocationPhysical
	Std  StdSymbol  // valid for LocationStdlib
}

// HeaderKind tags includable headers. The order of the constants is the
// total order used when deduplicating candidates.
type HeaderKind int

const (
	HeaderPhysical HeaderKind = iota
	HeaderStdlib
	HeaderVerbatim
	HeaderBuiltin
	HeaderMainFile
)

// Header is an includable unit. Headers compare structurally: physical
// headers by file identity, standard headers by their logical name,
// verbatim headers by spelling. The zero-valued unused fields make equal
// headers equal under == and therefore identical map keys.
type Header struct {
	Kind HeaderKind

	File     *source.File // HeaderPhysical
	Std      string       // HeaderStdlib: canonical name without brackets
	Spelling string       // HeaderVerbatim
}

// PhysicalHeader wraps a concrete file.
func PhysicalHeader(f *source.File) Header {
	return Header{Kind: HeaderPhysical, File: f}
}

// StdlibHeader wraps a logical standard header name (no brackets).
func StdlibHeader(name string) Header {
	return Header{Kind: HeaderStdlib, Std: name}
}

// VerbatimHeader wraps a textual spelling emitted as-is.
func VerbatimHeader(spelling string) Header {
	return Header{Kind: HeaderVerbatim, Spelling: spelling}
}

// BuiltinHeader is the compiler's predefined region.
func BuiltinHeader() Header {
	return Header{Kind: HeaderBuiltin}
}

// MainFileHeader is the translation unit's own primary file.
func MainFileHeader() Header {
	return Header{Kind: HeaderMainFile}
}

// String renders the header the way a user would write or read it.
func (h Header) String() string {
	switch h.Kind {
	case HeaderPhysical:
		return h.File.Name
	case HeaderStdlib:
		return "<" + h.Std + ">"
	case HeaderVerbatim:
		return h.Spelling
	case HeaderBuiltin:
		return "<built-in>"
	case HeaderMainFile:
		return "<main file>"
	}
	return "<unknown>"
}

// compareHeaders is a total order over headers: by kind, then by the
// variant's identity.
func compareHeaders(a, b Header) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	switch a.Kind {
	case HeaderPhysical:
		switch {
		case a.File.ID < b.File.ID:
			return -1
		case a.File.ID > b.File.ID:
			return 1
		}
		return 0
	case HeaderStdlib:
		return strings.Compare(a.Std, b.Std)
	case HeaderVerbatim:
		return strings.Compare(a.Spelling, b.Spelling)
	}
	return 0
}

// Hint is the advisory bitset used to order candidate headers. Hints
// never affect membership, only preference.
type Hint uint8

const (
	// HintComplete marks a provider that is the entity's definition.
	HintComplete Hint = 1 << iota
	// HintNameMatch marks a header whose name matches the symbol.
	HintNameMatch
)

// rankScore maps a hint set to its preference: NameMatch dominates,
// Complete breaks ties.
func (h Hint) rankScore() int {
	score := 0
	if h&HintNameMatch != 0 {
		score += 2
	}
	if h&HintComplete != 0 {
		score++
	}
	return score
}
