package cc

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWBudde/go-include-cleaner/internal/source"
)

// eventLog records preprocessor callbacks for inspection.
type eventLog struct {
	events []string
	keeps  map[string]bool
}

func newEventLog() *eventLog {
	return &eventLog{keeps: make(map[string]bool)}
}

func (e *eventLog) FileChanged(loc source.Loc, reason FileChangeReason) {
	// file transitions are exercised through the recorder, not here
}

func (e *eventLog) InclusionDirective(hashLoc source.Loc, spelled string, angled bool, resolved *source.File, keep bool) {
	resolvedName := "<nil>"
	if resolved != nil {
		resolvedName = resolved.Name
	}
	e.events = append(e.events, fmt.Sprintf("include %s -> %s", spelled, resolvedName))
	e.keeps[spelled] = keep
}

func (e *eventLog) MacroDefined(name string, mi *MacroInfo) {
	e.events = append(e.events, "define "+name)
}

func (e *eventLog) MacroUndefined(name string, mi *MacroInfo) {
	e.events = append(e.events, "undef "+name)
}

func (e *eventLog) MacroExpands(nameTok Token, mi *MacroInfo) {
	e.events = append(e.events, "expand "+nameTok.Text)
}

func preprocess(t *testing.T, mainContent string, headers map[string]string) (*source.SourceManager, []Token, *eventLog, *Preprocessor) {
	t.Helper()
	sm := source.NewSourceManager()
	main := sm.AddFile("main.cc", mainContent)
	events := newEventLog()
	pp := NewPreprocessor(sm, MemResolver(headers), events)
	toks := pp.Preprocess(main)
	return sm, toks, events, pp
}

func tokenTexts(toks []Token) []string {
	var out []string
	for _, tok := range toks {
		if tok.Kind != TokenEOF {
			out = append(out, tok.Text)
		}
	}
	return out
}

func TestPreprocessor_IncludeEvents(t *testing.T) {
	headers := map[string]string{
		"a.h": "#ifndef A_H\n#define A_H\nint a;\n#endif\n",
	}
	_, toks, events, _ := preprocess(t, "#include \"a.h\"\n#include \"missing.h\"\nint y;\n", headers)

	assert.Contains(t, events.events, "include a.h -> a.h")
	assert.Contains(t, events.events, "include missing.h -> <nil>")
	assert.Equal(t, []string{"int", "a", ";", "int", "y", ";"}, tokenTexts(toks))
}

func TestPreprocessor_IncludeGuardDetection(t *testing.T) {
	tests := []struct {
		name          string
		header        string
		selfContained bool
	}{
		{
			name:          "classic guard",
			header:        "#ifndef A_H\n#define A_H\nint a;\n#endif\n",
			selfContained: true,
		},
		{
			name:          "pragma once",
			header:        "#pragma once\nint a;\n",
			selfContained: true,
		},
		{
			name:          "no guard",
			header:        "int a;\n",
			selfContained: false,
		},
		{
			name:          "content outside guard",
			header:        "int before;\n#ifndef A_H\n#define A_H\nint a;\n#endif\n",
			selfContained: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm, _, _, _ := preprocess(t, "#include \"a.h\"\n", map[string]string{"a.h": tt.header})
			f := sm.Lookup("a.h")
			require.NotNil(t, f)
			assert.Equal(t, tt.selfContained, f.SelfContained)
		})
	}
}

func TestPreprocessor_GuardedReinclusion(t *testing.T) {
	headers := map[string]string{
		"a.h": "#ifndef A_H\n#define A_H\nint a;\n#endif\n",
	}
	_, toks, _, _ := preprocess(t, "#include \"a.h\"\n#include \"a.h\"\n", headers)

	// the guarded body must appear exactly once
	assert.Equal(t, []string{"int", "a", ";"}, tokenTexts(toks))
}

func TestPreprocessor_ObjectMacroExpansion(t *testing.T) {
	content := "#define FOO 42\n#define X FOO\nint y = X;\n"
	sm, toks, events, _ := preprocess(t, content, nil)

	assert.Equal(t, []string{"int", "y", "=", "42", ";"}, tokenTexts(toks))
	assert.Contains(t, events.events, "expand X")
	assert.Contains(t, events.events, "expand FOO")

	// the expanded 42 carries a macro location spelled at FOO's body
	var lit *Token
	for i := range toks {
		if toks[i].Text == "42" {
			lit = &toks[i]
		}
	}
	require.NotNil(t, lit)
	assert.True(t, sm.IsMacroLoc(lit.Loc))
	assert.Equal(t, 3, sm.Line(lit.Loc), "expansion location is the use site")
	assert.Equal(t, 1, sm.Line(sm.SpellingLoc(lit.Loc)), "spelling location is the macro body")
}

func TestPreprocessor_FunctionMacroArgs(t *testing.T) {
	content := "#define ADD(a, b) a + b\nint y = ADD(x, 2);\n"
	sm, toks, _, _ := preprocess(t, content, nil)

	texts := tokenTexts(toks)
	assert.Equal(t, []string{"int", "y", "=", "x", "+", "2", ";"}, texts)

	// the substituted argument is flagged as a macro-arg expansion, the
	// body "+" is not
	var xTok, plusTok *Token
	for i := range toks {
		switch toks[i].Text {
		case "x":
			xTok = &toks[i]
		case "+":
			plusTok = &toks[i]
		}
	}
	require.NotNil(t, xTok)
	require.NotNil(t, plusTok)

	_, _, isArg, ok := sm.ExpansionInfo(xTok.Loc)
	require.True(t, ok)
	assert.True(t, isArg)

	_, _, isArg, ok = sm.ExpansionInfo(plusTok.Loc)
	require.True(t, ok)
	assert.False(t, isArg)
}

func TestPreprocessor_UndefAndRedefine(t *testing.T) {
	content := "#define FOO 1\n#undef FOO\n#define FOO 2\nint y = FOO;\n"
	_, toks, events, pp := preprocess(t, content, nil)

	assert.Equal(t, []string{"int", "y", "=", "2", ";"}, tokenTexts(toks))
	assert.Contains(t, events.events, "undef FOO")

	mi := pp.LookupMacro("FOO")
	require.NotNil(t, mi)
	require.Len(t, mi.Body, 1)
	assert.Equal(t, "2", mi.Body[0].Text)
}

func TestPreprocessor_Conditionals(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "ifdef of undefined macro skips",
			content: "#ifdef FOO\nint a;\n#endif\nint b;\n",
			want:    []string{"int", "b", ";"},
		},
		{
			name:    "ifdef of defined macro keeps",
			content: "#define FOO 1\n#ifdef FOO\nint a;\n#endif\n",
			want:    []string{"int", "a", ";"},
		},
		{
			name:    "else branch",
			content: "#ifdef FOO\nint a;\n#else\nint b;\n#endif\n",
			want:    []string{"int", "b", ";"},
		},
		{
			name:    "nested dead region",
			content: "#ifdef FOO\n#ifdef BAR\nint a;\n#endif\nint b;\n#endif\nint c;\n",
			want:    []string{"int", "c", ";"},
		},
		{
			name:    "if defined",
			content: "#define FOO 1\n#if defined(FOO)\nint a;\n#endif\n",
			want:    []string{"int", "a", ";"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, toks, _, _ := preprocess(t, tt.content, nil)
			assert.Equal(t, tt.want, tokenTexts(toks))
		})
	}
}

func TestPreprocessor_KeepPragma(t *testing.T) {
	headers := map[string]string{
		"a.h": "#pragma once\nint a;\n",
		"b.h": "#pragma once\nint b;\n",
	}
	content := "#include \"a.h\" // IWYU pragma: keep\n#include \"b.h\"\n"
	_, _, events, _ := preprocess(t, content, headers)

	assert.True(t, events.keeps["a.h"])
	assert.False(t, events.keeps["b.h"])
}

func TestPreprocessor_BuiltinLine(t *testing.T) {
	_, toks, _, _ := preprocess(t, "int y =\n__LINE__;\n", nil)

	texts := tokenTexts(toks)
	require.True(t, strings.HasPrefix(strings.Join(texts, " "), "int y ="))
	assert.Equal(t, "2", texts[3])
}
