// Package server provides the core LSP server state and management.
package server

import (
	"sync"

	"github.com/CWBudde/go-include-cleaner/internal/analysis"
)

// Server holds the state of the LSP server.
type Server struct {
	// documents stores all open documents
	documents *DocumentStore

	// config holds server configuration
	config *Config

	// mutex protects server state
	mu sync.RWMutex

	// shutting down flag
	shuttingDown bool
}

// Config holds server configuration options.
type Config struct {
	// IncludeDirs are the directories includes are resolved against.
	IncludeDirs []string

	// Analysis is the analyzer configuration shared by every document.
	Analysis analysis.Config
}

// New creates a new LSP server instance.
func New(config *Config) *Server {
	if config == nil {
		config = &Config{}
	}
	return &Server{
		documents: newDocumentStore(config),
		config:    config,
	}
}

// Documents returns the server's document store.
func (s *Server) Documents() *DocumentStore {
	return s.documents
}

// Config returns the server configuration.
func (s *Server) Config() *Config {
	return s.config
}

// IsShuttingDown returns true if the server is shutting down.
func (s *Server) IsShuttingDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shuttingDown
}

// SetShuttingDown marks the server as shutting down.
func (s *Server) SetShuttingDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuttingDown = true
}
