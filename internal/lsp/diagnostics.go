// Package lsp implements LSP protocol handlers.
package lsp

import (
	"log"
	"sort"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-include-cleaner/internal/analysis"
)

// SourceName tags every diagnostic this analyzer produces.
const SourceName = "go-include-cleaner"

// Diag couples one protocol diagnostic with its fix edits, so clients of
// the library form get the fix without a separate code-action round
// trip.
type Diag struct {
	protocol.Diagnostic

	// Fixes holds the single suggested edit: replace the directive's
	// line range with the empty string.
	Fixes []protocol.TextEdit
}

// IncludeDiagnostics is the one-shot entry point of the library form:
// given an analyzed translation unit it returns one structured
// diagnostic per unused include, each carrying the range from the '#'
// to the end of the line, an "unnecessary code" tag, and the deleting
// fix.
func IncludeDiagnostics(tu *analysis.TranslationUnit) []Diag {
	var diags []Diag

	for _, d := range tu.Result.Diagnostics {
		if d.Kind != analysis.DiagUnusedInclude || d.Include == nil {
			continue
		}

		line := uint32(d.Include.Line - 1)
		startCol := uint32(tu.SM.Column(d.Include.HashLoc) - 1)
		endCol := uint32(len(tu.SM.LineText(tu.Main, d.Include.Line)))

		severity := protocol.DiagnosticSeverityWarning
		tags := []protocol.DiagnosticTag{protocol.DiagnosticTagUnnecessary}

		diag := Diag{
			Diagnostic: protocol.Diagnostic{
				Range: protocol.Range{
					Start: protocol.Position{Line: line, Character: startCol},
					End:   protocol.Position{Line: line, Character: endCol},
				},
				Severity: &severity,
				Source:   stringPtr(SourceName),
				Message:  d.Message,
				Tags:     tags,
			},
		}

		if d.Fix != nil {
			diag.Fixes = []protocol.TextEdit{{
				Range: protocol.Range{
					Start: protocol.Position{Line: uint32(d.Fix.StartLine - 1), Character: 0},
					End:   protocol.Position{Line: uint32(d.Fix.EndLine - 1), Character: 0},
				},
				NewText: d.Fix.NewText,
			}}
		}

		diags = append(diags, diag)
	}

	sortDiags(diags)
	return diags
}

// Protocol strips the fixes for publishing.
func Protocol(diags []Diag) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, len(diags))
	for i, d := range diags {
		out[i] = d.Diagnostic
	}
	return out
}

// PublishDiagnostics sends diagnostic information to the client for a
// specific document.
func PublishDiagnostics(context *glsp.Context, uri string, diagnostics []protocol.Diagnostic) {
	if context == nil || context.Notify == nil {
		log.Println("Warning: Cannot publish diagnostics - context or Notify is nil")
		return
	}

	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}

	params := &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	}

	log.Printf("Publishing %d diagnostic(s) for %s", len(diagnostics), uri)

	context.Notify(protocol.ServerTextDocumentPublishDiagnostics, params)
}

// sortDiags orders diagnostics by position (line first, then column) so
// they are presented predictably in the editor.
func sortDiags(diags []Diag) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Range.Start.Line != diags[j].Range.Start.Line {
			return diags[i].Range.Start.Line < diags[j].Range.Start.Line
		}
		return diags[i].Range.Start.Character < diags[j].Range.Start.Character
	})
}

func stringPtr(s string) *string {
	return &s
}
