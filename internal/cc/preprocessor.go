package cc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CWBudde/go-include-cleaner/internal/source"
)

// FileChangeReason distinguishes entering an included file from returning
// to the includer.
type FileChangeReason int

const (
	EnterFile FileChangeReason = iota
	ExitFile
)

// PPCallbacks receives preprocessing events. Every callback fires in
// source order while the preprocessor runs; loc arguments identify the
// file current after the event.
type PPCallbacks interface {
	FileChanged(loc source.Loc, reason FileChangeReason)
	InclusionDirective(hashLoc source.Loc, spelled string, angled bool, resolved *source.File, keep bool)
	MacroDefined(name string, mi *MacroInfo)
	MacroUndefined(name string, mi *MacroInfo)
	MacroExpands(nameTok Token, mi *MacroInfo)
}

// MacroInfo describes one macro definition. A redefinition under the same
// name produces a fresh MacroInfo; pointer identity therefore identifies
// the definition, not the name.
type MacroInfo struct {
	Name           string
	DefLoc         source.Loc
	IsFunctionLike bool
	Params         []string
	Body           []Token
	IsBuiltin      bool
}

// MacroLookup is the read-only view of the macro table consumers hold
// after preprocessing.
type MacroLookup interface {
	LookupMacro(name string) *MacroInfo
}

// Preprocessor drives one translation unit: it lexes files, handles
// directives, expands macros into the output token stream, and feeds
// every event to the installed callbacks.
type Preprocessor struct {
	sm        *source.SourceManager
	resolver  FileResolver
	callbacks PPCallbacks

	macros map[string]*MacroInfo
	out    []Token

	onceSeen  map[source.FileID]bool
	including map[source.FileID]bool
}

// NewPreprocessor creates a preprocessor over sm resolving includes
// through resolver. callbacks may be nil.
func NewPreprocessor(sm *source.SourceManager, resolver FileResolver, callbacks PPCallbacks) *Preprocessor {
	if callbacks == nil {
		callbacks = nopCallbacks{}
	}
	return &Preprocessor{
		sm:        sm,
		resolver:  resolver,
		callbacks: callbacks,
		macros:    make(map[string]*MacroInfo),
		onceSeen:  make(map[source.FileID]bool),
		including: make(map[source.FileID]bool),
	}
}

type nopCallbacks struct{}

func (nopCallbacks) FileChanged(source.Loc, FileChangeReason) {}
func (nopCallbacks) InclusionDirective(source.Loc, string, bool, *source.File, bool) {
}
func (nopCallbacks) MacroDefined(string, *MacroInfo)   {}
func (nopCallbacks) MacroUndefined(string, *MacroInfo) {}
func (nopCallbacks) MacroExpands(Token, *MacroInfo)    {}

// SetCallbacks installs the event consumer. Must be called before
// Preprocess.
func (pp *Preprocessor) SetCallbacks(callbacks PPCallbacks) {
	if callbacks == nil {
		callbacks = nopCallbacks{}
	}
	pp.callbacks = callbacks
}

// LookupMacro returns the macro currently defined under name, or nil.
func (pp *Preprocessor) LookupMacro(name string) *MacroInfo {
	return pp.macros[name]
}

// predefined macros installed in the predefines buffer. __FILE__ and
// __LINE__ are expanded specially; the rest are plain object macros.
var builtinMacros = []struct {
	name string
	body string
}{
	{"__cplusplus", "201703L"},
	{"__FILE__", ""},
	{"__LINE__", ""},
	{"__STDC_HOSTED__", "1"},
}

// Preprocess runs the whole translation unit rooted at main and returns
// the expanded token stream for the parser.
func (pp *Preprocessor) Preprocess(main *source.File) []Token {
	pp.installPredefines()

	pp.sm.SetMainFile(main)
	pp.callbacks.FileChanged(pp.sm.FileLoc(main, 0), EnterFile)
	pp.processFile(main)

	pp.out = append(pp.out, Token{Kind: TokenEOF, Loc: pp.sm.FileLoc(main, len(main.Content))})
	return pp.out
}

// installPredefines registers the predefines buffer and its macros.
func (pp *Preprocessor) installPredefines() {
	var body strings.Builder
	for _, b := range builtinMacros {
		fmt.Fprintf(&body, "#define %s %s\n", b.name, b.body)
	}

	pre := pp.sm.AddFile("<built-in>", body.String())
	pre.Builtin = true
	pp.callbacks.FileChanged(pp.sm.FileLoc(pre, 0), EnterFile)

	off := 0
	for _, b := range builtinMacros {
		nameOff := off + len("#define ")
		mi := &MacroInfo{
			Name:      b.name,
			DefLoc:    pp.sm.FileLoc(pre, nameOff),
			IsBuiltin: true,
		}
		if b.body != "" {
			mi.Body = []Token{{Kind: TokenNumber, Text: b.body, Loc: pp.sm.FileLoc(pre, nameOff+len(b.name)+1)}}
		}
		pp.macros[b.name] = mi
		off += len("#define ") + len(b.name) + 1 + len(b.body) + 1
	}
}

// condState tracks one conditional nesting level.
type condState struct {
	live      bool // current branch taken
	everLived bool // some earlier branch was taken
	parent    bool // enclosing context live
}

// fileState is the per-file processing state, including include-guard
// detection.
type fileState struct {
	file  *source.File
	conds []condState

	guardName    string
	guardDefined bool
	guardDepth   int
	outsideGuard bool // anything significant outside the guard region
	sawAnything  bool
}

func (fs *fileState) live() bool {
	if len(fs.conds) == 0 {
		return true
	}
	top := fs.conds[len(fs.conds)-1]
	return top.live && top.parent
}

// processFile lexes and preprocesses one file.
func (pp *Preprocessor) processFile(f *source.File) {
	if pp.including[f.ID] {
		return // include cycle, already being processed
	}
	pp.including[f.ID] = true
	defer delete(pp.including, f.ID)

	fs := &fileState{file: f}
	tr := &tokenReader{lx: NewLexer(pp.sm, f)}

	for {
		tok := tr.next()
		if tok.Kind == TokenEOF {
			break
		}

		if tok.StartOfLine && tok.IsPunct("#") {
			pp.handleDirective(fs, tr, tok)
			continue
		}

		if !fs.live() {
			continue
		}

		fs.sawAnything = true
		if len(fs.conds) == 0 || fs.guardName == "" {
			fs.outsideGuard = true
		}
		pp.expandInto(&pp.out, tok, tr, nil)
	}

	// A file whose content is entirely wrapped in "#ifndef G / #define G
	// ... #endif" is self-contained.
	if fs.guardDefined && !fs.outsideGuard && len(fs.conds) == 0 {
		f.SelfContained = true
	}
}

// handleDirective processes one # directive line.
func (pp *Preprocessor) handleDirective(fs *fileState, tr *tokenReader, hashTok Token) {
	nameTok := tr.peek()
	if nameTok.Kind == TokenEOF || nameTok.StartOfLine {
		return // "#" alone on its line
	}
	if nameTok.Kind != TokenIdent {
		// something unrecognizable: drop the line
		tr.next()
		tr.lx.SkipLine()
		return
	}
	tr.next()

	switch nameTok.Text {
	case "ifdef", "ifndef":
		cond := false
		if t := tr.peek(); t.Kind == TokenIdent && !t.StartOfLine {
			tr.next()
			defined := pp.macros[t.Text] != nil
			cond = defined == (nameTok.Text == "ifdef")

			// guard pattern: #ifndef G as the first significant line
			if nameTok.Text == "ifndef" && !fs.sawAnything && fs.guardName == "" && len(fs.conds) == 0 {
				fs.guardName = t.Text
				fs.guardDepth = len(fs.conds)
			} else {
				fs.markDirective()
			}
		}
		fs.conds = append(fs.conds, condState{live: cond, everLived: cond, parent: fs.live()})
		tr.lx.SkipLine()

	case "if":
		fs.markDirective()
		cond := pp.evalCondition(tr)
		fs.conds = append(fs.conds, condState{live: cond, everLived: cond, parent: fs.live()})

	case "elif":
		fs.markDirective()
		cond := pp.evalCondition(tr)
		if n := len(fs.conds); n > 0 {
			top := &fs.conds[n-1]
			top.live = cond && !top.everLived
			top.everLived = top.everLived || top.live
		}

	case "else":
		if n := len(fs.conds); n > 0 {
			top := &fs.conds[n-1]
			top.live = !top.everLived
			top.everLived = true
		}
		tr.lx.SkipLine()

	case "endif":
		if n := len(fs.conds); n > 0 {
			fs.conds = fs.conds[:n-1]
		}
		tr.lx.SkipLine()

	case "include":
		if !fs.live() {
			tr.lx.SkipLine()
			return
		}
		fs.markGuarded()
		pp.handleInclude(fs, tr, hashTok.Loc)

	case "define":
		if !fs.live() {
			tr.lx.SkipLine()
			return
		}
		pp.handleDefine(fs, tr)

	case "undef":
		if !fs.live() {
			tr.lx.SkipLine()
			return
		}
		fs.markGuarded()
		if t := tr.peek(); t.Kind == TokenIdent && !t.StartOfLine {
			tr.next()
			if mi := pp.macros[t.Text]; mi != nil {
				delete(pp.macros, t.Text)
				pp.callbacks.MacroUndefined(t.Text, mi)
			}
		}
		tr.lx.SkipLine()

	case "pragma":
		rest := strings.TrimSpace(tr.lx.RestOfLine())
		if fs.live() && strings.HasPrefix(rest, "once") {
			fs.file.SelfContained = true
		}

	default:
		// #error, #warning, #line, ...: irrelevant for include analysis
		tr.lx.SkipLine()
	}
}

// markDirective notes a directive that disqualifies the include-guard
// pattern when it appears outside the guard region.
func (fs *fileState) markDirective() {
	fs.sawAnything = true
	if len(fs.conds) == 0 {
		fs.outsideGuard = true
	}
}

// markGuarded notes content inside the (potential) guard region.
func (fs *fileState) markGuarded() {
	fs.sawAnything = true
	if len(fs.conds) == 0 {
		fs.outsideGuard = true
	}
}

// handleInclude parses an include target from the raw line, resolves it,
// reports it, and recurses into the included file.
func (pp *Preprocessor) handleInclude(fs *fileState, tr *tokenReader, hashLoc source.Loc) {
	raw := tr.lx.RestOfLine()

	spelled, angled, rest, ok := parseIncludeTarget(raw)
	if !ok {
		return
	}
	keep := strings.Contains(rest, "IWYU pragma: keep")

	var file *source.File
	if name, content, found := pp.resolver.Resolve(spelled, angled, dirOf(fs.file.Name)); found {
		file = pp.sm.AddFile(name, content)
	}

	pp.callbacks.InclusionDirective(hashLoc, spelled, angled, file, keep)

	if file == nil {
		return
	}
	if file.SelfContained && pp.onceSeen[file.ID] {
		return
	}
	pp.onceSeen[file.ID] = true

	pp.callbacks.FileChanged(pp.sm.FileLoc(file, 0), EnterFile)
	pp.processFile(file)
	pp.callbacks.FileChanged(hashLoc, ExitFile)
}

// parseIncludeTarget extracts the spelled target (no delimiters) from the
// raw text after "#include", plus whatever trails it (comments included).
func parseIncludeTarget(raw string) (spelled string, angled bool, rest string, ok bool) {
	s := strings.TrimLeft(raw, " \t")
	if s == "" {
		return "", false, "", false
	}
	var close byte
	switch s[0] {
	case '<':
		close = '>'
		angled = true
	case '"':
		close = '"'
	default:
		return "", false, "", false
	}
	end := strings.IndexByte(s[1:], close)
	if end < 0 {
		return "", false, "", false
	}
	return s[1 : 1+end], angled, s[1+end+1:], true
}

func dirOf(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	return "."
}

// handleDefine parses one #define line into a MacroInfo.
func (pp *Preprocessor) handleDefine(fs *fileState, tr *tokenReader) {
	nameTok := tr.peek()
	if nameTok.Kind != TokenIdent || nameTok.StartOfLine {
		tr.lx.SkipLine()
		return
	}
	tr.next()

	mi := &MacroInfo{Name: nameTok.Text, DefLoc: nameTok.Loc}

	// function-like iff "(" immediately follows the name
	if tr.pending() == 0 && tr.lx.atByte('(') {
		mi.IsFunctionLike = true
		tr.next() // "("
		for {
			t := tr.peek()
			if t.Kind == TokenEOF || t.StartOfLine || t.IsPunct(")") {
				if t.IsPunct(")") {
					tr.next()
				}
				break
			}
			tr.next()
			if t.Kind == TokenIdent {
				mi.Params = append(mi.Params, t.Text)
			}
		}
	}

	for {
		t := tr.peek()
		if t.Kind == TokenEOF || t.StartOfLine {
			break
		}
		mi.Body = append(mi.Body, tr.next())
	}

	// second define of the guard macro right after #ifndef completes the
	// guard pattern; anything else is ordinary content
	if fs.guardName != "" && !fs.guardDefined && mi.Name == fs.guardName && len(fs.conds) == fs.guardDepth+1 {
		fs.guardDefined = true
	} else {
		fs.sawAnything = true
	}

	pp.macros[mi.Name] = mi
	pp.callbacks.MacroDefined(mi.Name, mi)
}

// evalCondition evaluates the remainder of an #if/#elif line. Only
// "defined" tests and integer literals are understood; anything else is
// treated as true, the tolerant choice for dependency extraction.
func (pp *Preprocessor) evalCondition(tr *tokenReader) bool {
	var toks []Token
	for {
		t := tr.peek()
		if t.Kind == TokenEOF || t.StartOfLine {
			break
		}
		toks = append(toks, tr.next())
	}

	neg := false
	i := 0
	for i < len(toks) && toks[i].IsPunct("!") {
		neg = !neg
		i++
	}
	rest := toks[i:]

	switch {
	case len(rest) == 1 && rest[0].Kind == TokenNumber:
		v, err := strconv.ParseInt(strings.TrimRight(rest[0].Text, "uUlL"), 0, 64)
		result := err != nil || v != 0
		if neg {
			result = !result
		}
		return result

	case len(rest) >= 2 && rest[0].IsIdent("defined"):
		name := ""
		if rest[1].Kind == TokenIdent {
			name = rest[1].Text
		} else if len(rest) >= 3 && rest[1].IsPunct("(") && rest[2].Kind == TokenIdent {
			name = rest[2].Text
		}
		result := pp.macros[name] != nil
		if neg {
			result = !result
		}
		return result
	}

	return true
}

// expandInto appends tok to dst, expanding it first when it names a
// defined macro. hide carries the macro names already active in the
// current expansion so recursion terminates.
func (pp *Preprocessor) expandInto(dst *[]Token, tok Token, tr *tokenReader, hide map[string]bool) {
	if tok.Kind != TokenIdent {
		*dst = append(*dst, tok)
		return
	}
	mi := pp.macros[tok.Text]
	if mi == nil || hide[tok.Text] {
		*dst = append(*dst, tok)
		return
	}

	if mi.IsFunctionLike {
		if tr == nil || !tr.peek().IsPunct("(") {
			*dst = append(*dst, tok)
			return
		}
	}

	pp.callbacks.MacroExpands(tok, mi)

	// special expansions for __FILE__ / __LINE__
	if mi.IsBuiltin && (mi.Name == "__FILE__" || mi.Name == "__LINE__") {
		loc := pp.sm.CreateExpansionLoc(mi.DefLoc, tok.Loc, false)
		out := Token{Loc: loc}
		if mi.Name == "__FILE__" {
			out.Kind = TokenString
			out.Text = strconv.Quote(pp.sm.FileFor(tok.Loc).Name)
		} else {
			out.Kind = TokenNumber
			out.Text = strconv.Itoa(pp.sm.Line(tok.Loc))
		}
		*dst = append(*dst, out)
		return
	}

	var args [][]Token
	if mi.IsFunctionLike {
		args = pp.readMacroArgs(tr)
	}

	// substitute the body, rescanning for nested expansions
	nextHide := map[string]bool{tok.Text: true}
	for n := range hide {
		nextHide[n] = true
	}

	sub := pp.substitute(mi, args, tok.Loc)
	sr := &sliceReader{toks: sub}
	for {
		t, ok := sr.read()
		if !ok {
			break
		}
		pp.expandInto(dst, t, nil, nextHide)
	}
}

// readMacroArgs consumes "( ... )" from tr and splits the contents on
// top-level commas.
func (pp *Preprocessor) readMacroArgs(tr *tokenReader) [][]Token {
	tr.next() // "("
	var args [][]Token
	var cur []Token
	depth := 1
	for {
		t := tr.next()
		if t.Kind == TokenEOF {
			break
		}
		switch {
		case t.IsPunct("("):
			depth++
		case t.IsPunct(")"):
			depth--
			if depth == 0 {
				args = append(args, cur)
				return args
			}
		case t.IsPunct(",") && depth == 1:
			args = append(args, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		args = append(args, cur)
	}
	return args
}

// substitute produces the body token list with parameters replaced by
// argument tokens, every token relocated to an expansion location at
// useLoc. Argument tokens are flagged as macro-argument expansions.
func (pp *Preprocessor) substitute(mi *MacroInfo, args [][]Token, useLoc source.Loc) []Token {
	var out []Token
	for _, bt := range mi.Body {
		if bt.Kind == TokenIdent {
			if idx := paramIndex(mi.Params, bt.Text); idx >= 0 {
				if idx < len(args) {
					for _, at := range args[idx] {
						t := at
						t.Loc = pp.sm.CreateExpansionLoc(at.Loc, useLoc, true)
						t.StartOfLine = false
						out = append(out, t)
					}
				}
				continue
			}
		}
		t := bt
		t.Loc = pp.sm.CreateExpansionLoc(bt.Loc, useLoc, false)
		t.StartOfLine = false
		out = append(out, t)
	}
	return out
}

func paramIndex(params []string, name string) int {
	for i, p := range params {
		if p == name {
			return i
		}
	}
	return -1
}

// tokenReader wraps a lexer with one-token pushback so directive handlers
// can peek line boundaries.
type tokenReader struct {
	lx  *Lexer
	buf []Token
}

func (tr *tokenReader) next() Token {
	if n := len(tr.buf); n > 0 {
		t := tr.buf[n-1]
		tr.buf = tr.buf[:n-1]
		return t
	}
	return tr.lx.Next()
}

func (tr *tokenReader) peek() Token {
	if len(tr.buf) == 0 {
		tr.buf = append(tr.buf, tr.lx.Next())
	}
	return tr.buf[len(tr.buf)-1]
}

func (tr *tokenReader) pending() int {
	return len(tr.buf)
}

// sliceReader iterates a substituted token list during rescanning.
type sliceReader struct {
	toks []Token
	i    int
}

func (sr *sliceReader) read() (Token, bool) {
	if sr.i >= len(sr.toks) {
		return Token{}, false
	}
	t := sr.toks[sr.i]
	sr.i++
	return t, true
}
