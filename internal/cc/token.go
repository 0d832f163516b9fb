// Package cc implements the parser collaborator for include analysis: a
// C/C++ lexer, a preprocessor that drives callback consumers, and a
// tolerant parser producing the top-level declaration AST.
//
// The package deliberately understands only as much of the language as
// dependency analysis needs. It is a scanner in the spirit of build-system
// extractors, not a compiler front end: constructs it cannot parse are
// skipped, never fatal.
package cc

import "github.com/CWBudde/go-include-cleaner/internal/source"

// TokenKind classifies lexed tokens.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenNumber
	TokenString
	TokenChar
	TokenPunct
)

// Token is one lexed token with its location.
type Token struct {
	Kind TokenKind
	Text string
	Loc  source.Loc

	// StartOfLine is set on the first token of a physical line; the
	// preprocessor uses it to recognize directives.
	StartOfLine bool
}

// IsIdent reports whether the token is the identifier text.
func (t Token) IsIdent(text string) bool {
	return t.Kind == TokenIdent && t.Text == text
}

// IsPunct reports whether the token is the punctuator text.
func (t Token) IsPunct(text string) bool {
	return t.Kind == TokenPunct && t.Text == text
}
