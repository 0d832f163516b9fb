package server

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/CWBudde/go-include-cleaner/internal/analysis"
	"github.com/CWBudde/go-include-cleaner/internal/cc"
)

// Document is one open buffer together with the translation unit the
// analyzer produced for its current text.
type Document struct {
	URI        string
	Filename   string // URI normalized to a filesystem path
	Text       string
	Version    int
	LanguageID string

	// TU is the analyzed translation unit for Text. Re-analysis replaces
	// the whole Document, so a TU never refers to stale text.
	TU *analysis.TranslationUnit
}

// DocumentStore owns the open documents and keeps each one's analysis
// current: opening or updating a document runs the include analyzer over
// the new text before the document becomes visible to readers.
type DocumentStore struct {
	config *Config

	mu        sync.RWMutex
	documents map[string]*Document
}

func newDocumentStore(config *Config) *DocumentStore {
	return &DocumentStore{
		config:    config,
		documents: make(map[string]*Document),
	}
}

// Open analyzes text as a fresh translation unit and stores it under uri.
func (ds *DocumentStore) Open(uri, languageID, text string, version int) *Document {
	doc := ds.analyze(uri, languageID, text, version)

	ds.mu.Lock()
	ds.documents[uri] = doc
	ds.mu.Unlock()

	return doc
}

// Update replaces an open document's text and re-analyzes it. Returns
// false when uri was never opened.
func (ds *DocumentStore) Update(uri, text string, version int) (*Document, bool) {
	ds.mu.RLock()
	prev, ok := ds.documents[uri]
	ds.mu.RUnlock()
	if !ok {
		return nil, false
	}

	doc := ds.analyze(uri, prev.LanguageID, text, version)

	ds.mu.Lock()
	ds.documents[uri] = doc
	ds.mu.Unlock()

	return doc, true
}

// Get retrieves a document by URI.
func (ds *DocumentStore) Get(uri string) (*Document, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	doc, ok := ds.documents[uri]
	return doc, ok
}

// Delete removes a document from the store.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// analyze runs the include analyzer over text. Quoted includes resolve
// against the document's own directory first, then the configured
// include dirs, the same order the CLI uses.
func (ds *DocumentStore) analyze(uri, languageID, text string, version int) *Document {
	filename := PathFromURI(uri)
	resolver := &cc.PathResolver{
		IncludeDirs: append([]string{filepath.Dir(filename)}, ds.config.IncludeDirs...),
	}

	return &Document{
		URI:        uri,
		Filename:   filename,
		Text:       text,
		Version:    version,
		LanguageID: languageID,
		TU:         analysis.AnalyzeSource(filename, text, resolver, ds.config.Analysis),
	}
}

// PathFromURI converts a file:// URI to a filesystem path, best effort.
func PathFromURI(uri string) string {
	path := strings.TrimPrefix(uri, "file://")
	return filepath.FromSlash(path)
}
