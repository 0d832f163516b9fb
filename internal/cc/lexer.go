package cc

import (
	"strings"

	"github.com/CWBudde/go-include-cleaner/internal/source"
)

// multi-character punctuators, longest first so maximal munch works.
var punctuators = []string{
	"<<=", ">>=", "...", "->*", "::", "->", "++", "--", "<<", ">>",
	"<=", ">=", "==", "!=", "&&", "||", "+=", "-=", "*=", "/=", "%=",
	"&=", "|=", "^=", "##",
}

// Lexer produces tokens from one registered file. Comments and line
// splices are consumed silently.
type Lexer struct {
	sm          *source.SourceManager
	file        *source.File
	src         string
	off         int
	startOfLine bool
}

// NewLexer creates a lexer over f.
func NewLexer(sm *source.SourceManager, f *source.File) *Lexer {
	return &Lexer{
		sm:          sm,
		file:        f,
		src:         f.Content,
		off:         0,
		startOfLine: true,
	}
}

// File returns the file being lexed.
func (lx *Lexer) File() *source.File {
	return lx.file
}

func (lx *Lexer) loc() source.Loc {
	return lx.sm.FileLoc(lx.file, lx.off)
}

// skipWhitespaceAndComments advances past spaces, comments, and splices,
// tracking line starts.
func (lx *Lexer) skipWhitespaceAndComments() {
	for lx.off < len(lx.src) {
		c := lx.src[lx.off]
		switch {
		case c == '\n':
			lx.startOfLine = true
			lx.off++
		case c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f':
			lx.off++
		case c == '\\' && lx.off+1 < len(lx.src) && lx.src[lx.off+1] == '\n':
			// line splice: the next line continues this one
			lx.off += 2
		case c == '/' && lx.off+1 < len(lx.src) && lx.src[lx.off+1] == '/':
			if i := strings.IndexByte(lx.src[lx.off:], '\n'); i >= 0 {
				lx.off += i
			} else {
				lx.off = len(lx.src)
			}
		case c == '/' && lx.off+1 < len(lx.src) && lx.src[lx.off+1] == '*':
			if i := strings.Index(lx.src[lx.off+2:], "*/"); i >= 0 {
				// newlines inside block comments still end the line
				if strings.IndexByte(lx.src[lx.off:lx.off+2+i+2], '\n') >= 0 {
					lx.startOfLine = true
				}
				lx.off += 2 + i + 2
			} else {
				lx.off = len(lx.src)
			}
		default:
			return
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// Next returns the next token, or a TokenEOF token at end of input.
func (lx *Lexer) Next() Token {
	lx.skipWhitespaceAndComments()

	tok := Token{Loc: lx.loc(), StartOfLine: lx.startOfLine}
	lx.startOfLine = false

	if lx.off >= len(lx.src) {
		tok.Kind = TokenEOF
		return tok
	}

	c := lx.src[lx.off]
	switch {
	case isIdentStart(c):
		start := lx.off
		for lx.off < len(lx.src) && isIdentCont(lx.src[lx.off]) {
			lx.off++
		}
		tok.Kind = TokenIdent
		tok.Text = lx.src[start:lx.off]

	case c >= '0' && c <= '9':
		start := lx.off
		for lx.off < len(lx.src) {
			d := lx.src[lx.off]
			if isIdentCont(d) || d == '.' || d == '\'' {
				lx.off++
				continue
			}
			// exponent sign belongs to a pp-number
			if (d == '+' || d == '-') && lx.off > start {
				p := lx.src[lx.off-1]
				if p == 'e' || p == 'E' || p == 'p' || p == 'P' {
					lx.off++
					continue
				}
			}
			break
		}
		tok.Kind = TokenNumber
		tok.Text = lx.src[start:lx.off]

	case c == '"':
		tok.Kind = TokenString
		tok.Text = lx.scanQuoted('"')

	case c == '\'':
		tok.Kind = TokenChar
		tok.Text = lx.scanQuoted('\'')

	default:
		tok.Kind = TokenPunct
		rest := lx.src[lx.off:]
		for _, p := range punctuators {
			if strings.HasPrefix(rest, p) {
				tok.Text = p
				lx.off += len(p)
				return tok
			}
		}
		tok.Text = lx.src[lx.off : lx.off+1]
		lx.off++
	}

	return tok
}

// scanQuoted consumes a quoted literal including delimiters, honoring
// backslash escapes. Unterminated literals end at the line break.
func (lx *Lexer) scanQuoted(quote byte) string {
	start := lx.off
	lx.off++ // opening quote
	for lx.off < len(lx.src) {
		c := lx.src[lx.off]
		if c == '\\' && lx.off+1 < len(lx.src) {
			lx.off += 2
			continue
		}
		if c == quote {
			lx.off++
			break
		}
		if c == '\n' {
			break
		}
		lx.off++
	}
	return lx.src[start:lx.off]
}

// atByte reports whether the next unread byte is c, with no whitespace
// skipping. The preprocessor uses it to detect function-like defines.
func (lx *Lexer) atByte(c byte) bool {
	return lx.off < len(lx.src) && lx.src[lx.off] == c
}

// RestOfLine consumes and returns the raw text from the current position
// to the end of the physical line. The preprocessor uses it for include
// targets and for skipping directives it does not understand.
func (lx *Lexer) RestOfLine() string {
	start := lx.off
	for lx.off < len(lx.src) && lx.src[lx.off] != '\n' {
		lx.off++
	}
	return lx.src[start:lx.off]
}

// SkipLine discards the remainder of the current physical line.
func (lx *Lexer) SkipLine() {
	lx.RestOfLine()
}
