package analysis

import (
	"fmt"

	"github.com/CWBudde/go-include-cleaner/internal/source"
)

// Severity grades diagnostics.
type Severity int

const (
	SeverityNote Severity = iota
	SeverityRemark
	SeverityWarning
	SeverityError
)

// DiagnosticKind names the six user-visible diagnostic kinds.
type DiagnosticKind int

const (
	DiagSatisfied DiagnosticKind = iota
	DiagUnsatisfied
	DiagUnknownHeader
	DiagNote
	DiagUsedInclude
	DiagUnusedInclude
)

// Edit is a suggested fix: replace the line range [StartLine, EndLine)
// with NewText. Deleting a directive replaces [L, L+1) with the empty
// string, i.e. column 1 of its line through column 1 of the next.
type Edit struct {
	StartLine int
	EndLine   int
	NewText   string
}

// Diagnostic is one analysis finding.
type Diagnostic struct {
	Kind     DiagnosticKind
	Severity Severity
	Loc      source.Loc
	Message  string

	// Include is set on include-level diagnostics.
	Include *Include

	// Fix is the suggested edit for an unused include.
	Fix *Edit
}

// Reference is the per-reference output: the use location, the symbol,
// and the ranked provider headers, plus the matching verdict.
type Reference struct {
	Loc     source.Loc
	Sym     Symbol
	Headers []Header

	Satisfied bool
	MatchedBy []*Include
}

// Result is the outcome of analyzing one translation unit.
type Result struct {
	References  []Reference
	Used        []bool // indexed by include ordinal
	Unused      []*Include
	Diagnostics []Diagnostic
}

// Options configures diagnostic production.
type Options struct {
	// Satisfied emits the remark-level diagnostics for satisfied
	// references and used includes.
	Satisfied bool
	// Recover suppresses repeated "no header included" errors for a
	// provider already reported missing.
	Recover bool
}

// Analyze runs the full used/unused decision over frozen recorder state
// and produces the user-visible diagnostics.
func Analyze(ctx *AnalysisContext, rec *Recorder, opts Options) *Result {
	all := rec.Includes.All()
	res := &Result{Used: make([]bool, len(all))}

	// first symbol that proved each include used, for the remark text
	firstProvider := make(map[int]Symbol)

	WalkUsed(ctx, rec.Roots, rec.MacroRefs, func(ref SymbolReference, headers []Header) {
		r := Reference{Loc: ref.Loc, Sym: ref.Sym, Headers: headers}

		// walk the ranking in order; the preferred header that matches
		// settles the reference, so a worse duplicate provider can still
		// be reported unused
		for _, h := range headers {
			if h.Kind == HeaderBuiltin || h.Kind == HeaderMainFile {
				r.Satisfied = true
				break
			}
			matches := rec.Includes.Match(h)
			if len(matches) == 0 {
				continue
			}
			r.Satisfied = true
			r.MatchedBy = matches
			for _, inc := range matches {
				if !res.Used[inc.Ordinal] {
					res.Used[inc.Ordinal] = true
					firstProvider[inc.Ordinal] = ref.Sym
				}
			}
			break
		}

		res.References = append(res.References, r)
	})

	res.Diagnostics = referenceDiagnostics(res.References, opts)

	// include-level diagnostics, in directive order
	for _, inc := range all {
		if res.Used[inc.Ordinal] {
			if opts.Satisfied {
				sym := firstProvider[inc.Ordinal]
				res.Diagnostics = append(res.Diagnostics, Diagnostic{
					Kind:     DiagUsedInclude,
					Severity: SeverityRemark,
					Loc:      inc.HashLoc,
					Message:  fmt.Sprintf("include provides %s '%s'", sym.Kind(), sym.Name()),
					Include:  inc,
				})
			}
			continue
		}
		if !mayConsiderUnused(ctx, inc) {
			continue
		}
		res.Unused = append(res.Unused, inc)
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Kind:     DiagUnusedInclude,
			Severity: SeverityError,
			Loc:      inc.HashLoc,
			Message:  "include is unused",
			Include:  inc,
			Fix:      &Edit{StartLine: inc.Line, EndLine: inc.Line + 1},
		})
	}

	return res
}

// referenceDiagnostics renders the per-reference diagnostics in
// reference order.
func referenceDiagnostics(refs []Reference, opts Options) []Diagnostic {
	var out []Diagnostic
	reported := make(map[Header]bool) // -recover dedupe, by header identity

	for _, r := range refs {
		switch {
		case len(r.Headers) == 0:
			out = append(out, Diagnostic{
				Kind:     DiagUnknownHeader,
				Severity: SeverityWarning,
				Loc:      r.Loc,
				Message:  fmt.Sprintf("unknown header provides %s '%s'", r.Sym.Kind(), r.Sym.Name()),
			})

		case r.Satisfied:
			if opts.Satisfied {
				out = append(out, Diagnostic{
					Kind:     DiagSatisfied,
					Severity: SeverityRemark,
					Loc:      r.Loc,
					Message:  fmt.Sprintf("%s '%s' provided by %s", r.Sym.Kind(), r.Sym.Name(), providedBy(r)),
				})
			}

		default:
			preferred := r.Headers[0]
			if opts.Recover && reported[preferred] {
				continue
			}
			reported[preferred] = true
			out = append(out, Diagnostic{
				Kind:     DiagUnsatisfied,
				Severity: SeverityError,
				Loc:      r.Loc,
				Message:  fmt.Sprintf("no header included for %s '%s'", r.Sym.Kind(), r.Sym.Name()),
			})
			for _, h := range r.Headers {
				out = append(out, Diagnostic{
					Kind:     DiagNote,
					Severity: SeverityNote,
					Loc:      r.Loc,
					Message:  fmt.Sprintf("provided by %s", h.String()),
				})
			}
		}
	}
	return out
}

// providedBy renders what satisfied a reference: the matching directive
// spelling when one exists, the header otherwise (builtin, main file).
func providedBy(r Reference) string {
	if len(r.MatchedBy) > 0 {
		return r.MatchedBy[0].Spelled
	}
	for _, h := range r.Headers {
		if h.Kind == HeaderBuiltin || h.Kind == HeaderMainFile {
			return h.String()
		}
	}
	return "<unknown>"
}

// mayConsiderUnused applies the exclusion rules before an include is
// reported unused:
//
//   - a directive carrying a keep annotation is never unused;
//   - an angle-bracket include is considered only under standard-library
//     analysis and only for a recognized standard header spelling;
//   - an unresolved directive or one resolving to a file without an
//     include guard may have effects by design and is never reported.
func mayConsiderUnused(ctx *AnalysisContext, inc *Include) bool {
	if inc.Keep {
		return false
	}
	if inc.Angled && (!ctx.stdlib || !IsStdHeaderName(inc.Spelled)) {
		return false
	}
	if inc.Resolved == nil || !inc.Resolved.SelfContained {
		return false
	}
	return true
}
