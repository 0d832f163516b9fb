// Package lsp implements LSP protocol handlers.
package lsp

import (
	"log"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-include-cleaner/internal/server"
)

// CodeAction handles the textDocument/codeAction request.
// Every unused-include diagnostic gets a "Remove unused include" quick
// fix deleting the directive's line.
func CodeAction(context *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in CodeAction")
		return nil, nil
	}

	uri := params.TextDocument.URI

	doc, exists := srv.Documents().Get(uri)
	if !exists || doc.TU == nil {
		log.Printf("Document not found for code action: %s\n", uri)
		return []protocol.CodeAction{}, nil
	}

	// Re-derive the fixable diagnostics from the analyzed unit and match
	// them against the diagnostics the client sent back.
	fixable := IncludeDiagnostics(doc.TU)

	var actions []protocol.CodeAction
	for _, diagnostic := range params.Context.Diagnostics {
		if diagnostic.Source == nil || *diagnostic.Source != SourceName {
			continue
		}
		fix := fixesForRange(fixable, diagnostic.Range)
		if len(fix) == 0 {
			continue
		}

		action := makeRemoveIncludeAction(diagnostic, fix, uri)
		actions = append(actions, action)
	}

	log.Printf("Returning %d code actions\n", len(actions))
	return actions, nil
}

// fixesForRange finds the fix edits of the diagnostic starting on the
// same line.
func fixesForRange(diags []Diag, r protocol.Range) []protocol.TextEdit {
	for _, d := range diags {
		if d.Range.Start.Line == r.Start.Line {
			return d.Fixes
		}
	}
	return nil
}

// makeRemoveIncludeAction builds the quick fix deleting an unused
// include directive.
func makeRemoveIncludeAction(diagnostic protocol.Diagnostic, edits []protocol.TextEdit, uri string) protocol.CodeAction {
	changes := make(map[string][]protocol.TextEdit)
	changes[uri] = edits

	workspaceEdit := protocol.WorkspaceEdit{
		Changes: changes,
	}

	preferred := true

	return protocol.CodeAction{
		Title:       "Remove unused include",
		Kind:        stringPtr(string(protocol.CodeActionKindQuickFix)),
		Diagnostics: []protocol.Diagnostic{diagnostic},
		IsPreferred: &preferred,
		Edit:        &workspaceEdit,
	}
}
