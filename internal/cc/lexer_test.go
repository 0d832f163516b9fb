package cc

import (
	"testing"

	"github.com/CWBudde/go-include-cleaner/internal/source"
)

func lexAll(t *testing.T, content string) []Token {
	t.Helper()
	sm := source.NewSourceManager()
	f := sm.AddFile("test.cc", content)
	lx := NewLexer(sm, f)

	var toks []Token
	for {
		tok := lx.Next()
		if tok.Kind == TokenEOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestLexer_TokenKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kinds []TokenKind
		texts []string
	}{
		{
			name:  "declaration",
			input: "int y = 42;",
			kinds: []TokenKind{TokenIdent, TokenIdent, TokenPunct, TokenNumber, TokenPunct},
			texts: []string{"int", "y", "=", "42", ";"},
		},
		{
			name:  "qualified name",
			input: "std::vector<int> v;",
			kinds: []TokenKind{TokenIdent, TokenPunct, TokenIdent, TokenPunct, TokenIdent, TokenPunct, TokenIdent, TokenPunct},
			texts: []string{"std", "::", "vector", "<", "int", ">", "v", ";"},
		},
		{
			name:  "multi-char punctuators",
			input: "a == b != c->d",
			texts: []string{"a", "==", "b", "!=", "c", "->", "d"},
		},
		{
			name:  "string and char literals",
			input: `f("a\"b", 'x')`,
			kinds: []TokenKind{TokenIdent, TokenPunct, TokenString, TokenPunct, TokenChar, TokenPunct},
			texts: []string{"f", "(", `"a\"b"`, ",", "'x'", ")"},
		},
		{
			name:  "comments dropped",
			input: "a /* block */ b // line\nc",
			texts: []string{"a", "b", "c"},
		},
		{
			name:  "line splice joins lines",
			input: "ab\\\ncd",
			texts: []string{"ab", "cd"},
		},
		{
			name:  "pp-number with exponent",
			input: "1.5e+3 0x1f",
			kinds: []TokenKind{TokenNumber, TokenNumber},
			texts: []string{"1.5e+3", "0x1f"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := lexAll(t, tt.input)
			if len(toks) != len(tt.texts) {
				t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(tt.texts), toks)
			}
			for i, tok := range toks {
				if tok.Text != tt.texts[i] {
					t.Errorf("token %d text = %q, want %q", i, tok.Text, tt.texts[i])
				}
				if tt.kinds != nil && tok.Kind != tt.kinds[i] {
					t.Errorf("token %d kind = %v, want %v", i, tok.Kind, tt.kinds[i])
				}
			}
		})
	}
}

func TestLexer_StartOfLine(t *testing.T) {
	toks := lexAll(t, "#include <x>\nint y;\n")

	if !toks[0].StartOfLine || !toks[0].IsPunct("#") {
		t.Errorf("first token = %+v, want # at start of line", toks[0])
	}
	if toks[1].StartOfLine {
		t.Error("\"include\" must not be flagged start-of-line")
	}

	var intTok *Token
	for i := range toks {
		if toks[i].IsIdent("int") {
			intTok = &toks[i]
		}
	}
	if intTok == nil || !intTok.StartOfLine {
		t.Errorf("\"int\" should start its line, got %+v", intTok)
	}
}

func TestLexer_RestOfLine(t *testing.T) {
	sm := source.NewSourceManager()
	f := sm.AddFile("test.cc", "#include \"a.h\" // IWYU pragma: keep\nnext")
	lx := NewLexer(sm, f)

	hash := lx.Next()
	if !hash.IsPunct("#") {
		t.Fatalf("expected #, got %+v", hash)
	}
	name := lx.Next()
	if !name.IsIdent("include") {
		t.Fatalf("expected include, got %+v", name)
	}

	rest := lx.RestOfLine()
	if rest != " \"a.h\" // IWYU pragma: keep" {
		t.Errorf("RestOfLine = %q", rest)
	}

	next := lx.Next()
	if !next.IsIdent("next") || !next.StartOfLine {
		t.Errorf("after RestOfLine got %+v, want \"next\" at line start", next)
	}
}
