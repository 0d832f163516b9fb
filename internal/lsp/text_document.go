// Package lsp implements LSP protocol handlers.
package lsp

import (
	"log"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CWBudde/go-include-cleaner/internal/server"
)

// DidOpen handles the textDocument/didOpen notification.
// This is sent when a document is opened in the editor.
func DidOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DidOpen")
		return nil
	}

	uri := params.TextDocument.URI
	text := params.TextDocument.Text
	version := int(params.TextDocument.Version)

	log.Printf("Document opened: %s (version %d, %d bytes)\n", uri, version, len(text))

	doc := srv.Documents().Open(uri, params.TextDocument.LanguageID, text, version)

	publishFor(context, doc)
	return nil
}

// DidChange handles the textDocument/didChange notification. The server
// advertises full sync, so the last content change carries the whole
// document.
func DidChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DidChange")
		return nil
	}

	uri := params.TextDocument.URI
	prev, exists := srv.Documents().Get(uri)
	if !exists {
		log.Printf("Warning: Document not found for didChange: %s\n", uri)
		return nil
	}

	newText := prev.Text
	for _, changeInterface := range params.ContentChanges {
		change, ok := changeInterface.(protocol.TextDocumentContentChangeEvent)
		if !ok || change.Range != nil {
			log.Printf("Warning: unexpected incremental change for %s\n", uri)
			continue
		}
		newText = change.Text
	}

	doc, ok := srv.Documents().Update(uri, newText, int(params.TextDocument.Version))
	if !ok {
		return nil
	}

	publishFor(context, doc)
	return nil
}

// DidClose handles the textDocument/didClose notification.
func DidClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DidClose")
		return nil
	}

	uri := params.TextDocument.URI
	srv.Documents().Delete(uri)

	log.Printf("Document closed: %s\n", uri)

	// Clear error markers in the editor
	if context != nil && context.Notify != nil {
		context.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: []protocol.Diagnostic{},
		})
	}
	return nil
}

// publishFor publishes the document's unused-include diagnostics.
func publishFor(context *glsp.Context, doc *server.Document) {
	if doc == nil || doc.TU == nil {
		return
	}
	PublishDiagnostics(context, doc.URI, Protocol(IncludeDiagnostics(doc.TU)))
}
