// Package analysis: see types.go for the package overview.
package analysis

import (
	"github.com/CWBudde/go-include-cleaner/internal/cc"
	"github.com/CWBudde/go-include-cleaner/internal/source"
)

// Policy configures what counts as a reference. All flags default off.
type Policy struct {
	// Construction counts an un-named constructor call as a reference
	// to its type.
	Construction bool
	// Members counts member accesses and unresolved member lookups.
	Members bool
	// Operators counts uses of overloaded operators.
	Operators bool
}

// AnalysisContext bundles the policy, the symbol cache, and borrowed
// references to the parse's preprocessor and source manager. It is
// exclusively owned by one analysis run and must not be copied or
// reseated after construction: the borrowed pointers have to stay
// stable for its lifetime.
type AnalysisContext struct {
	policy Policy
	stdlib bool

	sm     *source.SourceManager
	macros cc.MacroLookup
	cache  *symbolCache
}

// NewAnalysisContext creates the context for one analysis run. stdlib
// enables standard-library recognition (off, the symbols of standard
// headers resolve like any other physical location).
func NewAnalysisContext(policy Policy, stdlib bool, sm *source.SourceManager, macros cc.MacroLookup) *AnalysisContext {
	return &AnalysisContext{
		policy: policy,
		stdlib: stdlib,
		sm:     sm,
		macros: macros,
		cache:  newSymbolCache(),
	}
}

// Policy returns the context's policy.
func (ctx *AnalysisContext) Policy() Policy {
	return ctx.policy
}

// StdlibEnabled reports whether standard-library analysis is on.
func (ctx *AnalysisContext) StdlibEnabled() bool {
	return ctx.stdlib
}

// SourceManager returns the borrowed source manager.
func (ctx *AnalysisContext) SourceManager() *source.SourceManager {
	return ctx.sm
}

// UsedSymbolVisitor receives one callback per detected reference with
// its ranked provider headers. The list may be empty.
type UsedSymbolVisitor func(ref SymbolReference, headers []Header)

// WalkUsed is the analysis entry point. For each top-level declaration
// in roots it walks the subtree, and for every reported reference it
// locates providers, resolves them to headers, ranks the candidates,
// and calls visit exactly once. Macro references follow, in recorded
// order.
//
// The function is pure over frozen recorder state: it may run on any
// number of goroutines as long as the parse's source manager snapshot
// is immutable.
func WalkUsed(ctx *AnalysisContext, roots []*cc.NamedDecl, macroRefs []SymbolReference, visit UsedSymbolVisitor) {
	for _, root := range roots {
		walkDecl(ctx, root, func(loc source.Loc, d *cc.NamedDecl) {
			sym := DeclSymbol{Decl: d}
			headers := ctx.rankedHeadersFor(ctx.locateDecl(d), d.Name)
			visit(SymbolReference{Loc: loc, Sym: sym}, headers)
		})
	}

	for _, ref := range macroRefs {
		ms, ok := ref.Sym.(MacroSymbol)
		if !ok {
			continue
		}
		headers := ctx.rankedHeadersFor(ctx.locateMacro(ms.Macro), ms.Macro.Name)
		visit(ref, headers)
	}
}

// rankedHeadersFor resolves provider locations to headers and ranks
// them for a reference to symName.
func (ctx *AnalysisContext) rankedHeadersFor(locs []hintedLocation, symName string) []Header {
	var candidates []hintedHeader
	for _, hl := range locs {
		for _, h := range ctx.headersFor(hl.Loc) {
			candidates = append(candidates, hintedHeader{Header: h, Hint: hl.Hint})
		}
	}
	return rankHeaders(candidates, symName)
}
