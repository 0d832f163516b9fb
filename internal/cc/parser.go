package cc

import (
	"log"

	"github.com/CWBudde/go-include-cleaner/internal/source"
)

// DeclConsumer receives each completed top-level declaration as parsing
// progresses, in source order.
type DeclConsumer func(d *NamedDecl)

// qualifier and storage keywords skipped while parsing types.
var skippableQualifiers = map[string]bool{
	"const": true, "volatile": true, "static": true, "extern": true,
	"inline": true, "constexpr": true, "register": true, "mutable": true,
	"thread_local": true, "virtual": true, "explicit": true, "typename": true,
}

// builtin type keywords; references to these produce no declaration.
var builtinTypes = map[string]bool{
	"void": true, "bool": true, "char": true, "short": true, "int": true,
	"long": true, "float": true, "double": true, "signed": true,
	"unsigned": true, "auto": true, "wchar_t": true,
}

// Parser builds the top-level declaration AST from a preprocessed token
// stream. It is deliberately tolerant: constructs outside its subset are
// skipped to the next synchronization point.
type Parser struct {
	sm   *source.SourceManager
	toks []Token
	pos  int

	consumer DeclConsumer

	// namespace scope stack; scopes[0] is the global scope
	scopes    []map[string]*NamedDecl
	scopePath []string

	// qualified name -> canonical declaration, across all namespaces
	qualified map[string]*NamedDecl

	// locals of the function body being parsed, nil at namespace scope
	locals map[string]*NamedDecl

	pendingTemplate bool
	pendingFriend   bool

	decls []*NamedDecl
}

// NewParser creates a parser over the preprocessed token stream. consumer
// may be nil.
func NewParser(sm *source.SourceManager, toks []Token, consumer DeclConsumer) *Parser {
	return &Parser{
		sm:        sm,
		toks:      toks,
		consumer:  consumer,
		scopes:    []map[string]*NamedDecl{make(map[string]*NamedDecl)},
		qualified: make(map[string]*NamedDecl),
	}
}

func (p *Parser) cur() Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return Token{Kind: TokenEOF}
}

func (p *Parser) la(n int) Token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return Token{Kind: TokenEOF}
}

func (p *Parser) advance() Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) acceptPunct(text string) bool {
	if p.cur().IsPunct(text) {
		p.pos++
		return true
	}
	return false
}

func (p *Parser) acceptIdent(text string) bool {
	if p.cur().IsIdent(text) {
		p.pos++
		return true
	}
	return false
}

// skipToSemi discards tokens through the next top-level ";", balancing
// braces, parens, and brackets on the way.
func (p *Parser) skipToSemi() {
	depth := 0
	for {
		t := p.cur()
		if t.Kind == TokenEOF {
			return
		}
		p.advance()
		switch {
		case t.IsPunct("{") || t.IsPunct("(") || t.IsPunct("["):
			depth++
		case t.IsPunct("}") || t.IsPunct(")") || t.IsPunct("]"):
			if depth > 0 {
				depth--
			}
			// a closing brace at depth 0 also synchronizes
			if depth == 0 && t.IsPunct("}") {
				return
			}
		case t.IsPunct(";") && depth == 0:
			return
		}
	}
}

// skipBalanced consumes from the current open delimiter through its
// match. The current token must be open.
func (p *Parser) skipBalanced(open, close string) {
	if !p.cur().IsPunct(open) {
		return
	}
	depth := 0
	for {
		t := p.cur()
		if t.Kind == TokenEOF {
			return
		}
		p.advance()
		if t.IsPunct(open) {
			depth++
		} else if t.IsPunct(close) {
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// ParseTranslationUnit parses every top-level declaration and returns
// them in source order.
func (p *Parser) ParseTranslationUnit() []*NamedDecl {
	for p.cur().Kind != TokenEOF {
		before := p.pos
		p.parseTopLevel()
		if p.pos == before {
			p.advance() // always make progress
		}
	}
	return p.decls
}

// emit records a completed top-level declaration.
func (p *Parser) emit(d *NamedDecl) {
	if d == nil {
		return
	}
	p.decls = append(p.decls, d)
	if p.consumer != nil {
		p.consumer(d)
	}
}

func (p *Parser) parseTopLevel() {
	t := p.cur()

	switch {
	case t.IsPunct(";"):
		p.advance()

	case t.IsIdent("namespace"):
		p.parseNamespace()

	case t.IsIdent("template"):
		p.advance()
		p.skipAngles()
		p.pendingTemplate = true

	case t.IsIdent("typedef"):
		p.emit(p.parseTypedef())

	case t.IsIdent("using"):
		p.emit(p.parseUsing())

	case t.IsIdent("friend"):
		p.advance()
		p.pendingFriend = true

	case t.IsIdent("struct") || t.IsIdent("class") || t.IsIdent("union") || t.IsIdent("enum"):
		p.parseTagTopLevel()

	case t.IsIdent("extern") && p.la(1).Kind == TokenString:
		// extern "C" { ... } or extern "C" declaration
		p.advance()
		p.advance()
		if p.cur().IsPunct("{") {
			p.advance()
			for p.cur().Kind != TokenEOF && !p.cur().IsPunct("}") {
				before := p.pos
				p.parseTopLevel()
				if p.pos == before {
					p.advance()
				}
			}
			p.acceptPunct("}")
		}

	case t.IsIdent("static_assert"):
		p.skipToSemi()

	default:
		p.parseDeclaration()
	}
}

// skipAngles consumes a balanced <...> group.
func (p *Parser) skipAngles() {
	if !p.cur().IsPunct("<") {
		return
	}
	depth := 0
	for {
		t := p.cur()
		if t.Kind == TokenEOF || t.IsPunct(";") || t.IsPunct("{") {
			return
		}
		p.advance()
		if t.IsPunct("<") {
			depth++
		} else if t.IsPunct(">") {
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

func (p *Parser) parseNamespace() {
	p.advance() // "namespace"
	name := ""
	if p.cur().Kind == TokenIdent {
		name = p.advance().Text
	}
	if p.acceptPunct("=") {
		// namespace alias, irrelevant here
		p.skipToSemi()
		return
	}
	if !p.acceptPunct("{") {
		p.skipToSemi()
		return
	}

	p.scopePath = append(p.scopePath, name)
	p.scopes = append(p.scopes, make(map[string]*NamedDecl))
	for p.cur().Kind != TokenEOF && !p.cur().IsPunct("}") {
		before := p.pos
		p.parseTopLevel()
		if p.pos == before {
			p.advance()
		}
	}
	p.acceptPunct("}")
	p.scopes = p.scopes[:len(p.scopes)-1]
	p.scopePath = p.scopePath[:len(p.scopePath)-1]
}

// scopeName returns the current namespace path as a qualified prefix.
func (p *Parser) scopeName() string {
	s := ""
	for _, seg := range p.scopePath {
		if s == "" {
			s = seg
		} else {
			s += "::" + seg
		}
	}
	return s
}

// register installs d in the current scope, chaining redeclarations of
// the same entity, and returns d.
func (p *Parser) register(d *NamedDecl) *NamedDecl {
	if d.Name == "" {
		return d
	}
	scope := p.scopes[len(p.scopes)-1]
	if prev, ok := scope[d.Name]; ok && compatibleRedecl(prev, d) {
		ChainRedecl(prev, d)
	} else {
		scope[d.Name] = d
		p.qualified[d.QualifiedName()] = d
	}
	return d
}

// registerLocal installs a function-body declaration.
func (p *Parser) registerLocal(d *NamedDecl) *NamedDecl {
	if p.locals != nil && d.Name != "" {
		p.locals[d.Name] = d
	}
	return d
}

// compatibleRedecl reports whether two same-name declarations are the
// same entity.
func compatibleRedecl(a, b *NamedDecl) bool {
	if a.Kind == b.Kind {
		return true
	}
	// a typedef/alias over a tag of the same name redeclares nothing
	return false
}

// lookup resolves an unqualified name: locals first, then enclosing
// namespace scopes outermost-last.
func (p *Parser) lookup(name string) *NamedDecl {
	if p.locals != nil {
		if d, ok := p.locals[name]; ok {
			return d
		}
	}
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if d, ok := p.scopes[i][name]; ok {
			return d
		}
	}
	return nil
}

// lookupQualified resolves a fully qualified name.
func (p *Parser) lookupQualified(qual string) *NamedDecl {
	return p.qualified[qual]
}

// ---- type parsing ----

// isTypeDecl reports whether d can head a type reference.
func isTypeDecl(d *NamedDecl) bool {
	if d == nil {
		return false
	}
	switch d.Canon().Kind {
	case DeclClass, DeclStruct, DeclUnion, DeclEnum, DeclTypedef, DeclAlias:
		return true
	}
	return false
}

// qualifiedNameAhead reads an optionally ::-qualified identifier starting
// at the current token, without consuming, and returns the token count it
// spans. Zero means no identifier is ahead.
func (p *Parser) qualifiedNameAhead() (string, int) {
	if p.cur().Kind != TokenIdent {
		return "", 0
	}
	name := p.cur().Text
	n := 1
	for p.la(n).IsPunct("::") && p.la(n+1).Kind == TokenIdent {
		name += "::" + p.la(n+1).Text
		n += 2
	}
	return name, n
}

// parseType parses a type reference at the current position. Returns nil
// when no type starts here; the position is unchanged in that case.
func (p *Parser) parseType() *TypeRef {
	start := p.pos
	for skippableQualifiers[p.cur().Text] && p.cur().Kind == TokenIdent {
		p.advance()
	}

	t := p.cur()

	// elaborated type: struct S, enum E, ...
	if t.IsIdent("struct") || t.IsIdent("class") || t.IsIdent("union") || t.IsIdent("enum") {
		kw := p.advance()
		if p.cur().Kind != TokenIdent {
			p.pos = start
			return nil
		}
		nameTok := p.advance()
		d := p.lookup(nameTok.Text)
		if d == nil {
			// an elaborated reference forward-declares the tag
			d = p.register(&NamedDecl{
				Kind:  tagKindOf(kw.Text),
				Name:  nameTok.Text,
				Scope: p.scopeName(),
				Loc:   nameTok.Loc,
			})
		}
		tr := &TypeRef{Loc: kw.Loc, Name: nameTok.Text, Decl: d}
		p.finishType(tr)
		return tr
	}

	if t.Kind != TokenIdent {
		if p.pos != start {
			p.pos = start
		}
		return nil
	}

	// builtin type keyword sequence
	if builtinTypes[t.Text] {
		loc := t.Loc
		name := ""
		for p.cur().Kind == TokenIdent && builtinTypes[p.cur().Text] {
			if name != "" {
				name += " "
			}
			name += p.advance().Text
		}
		tr := &TypeRef{Loc: loc, Name: name}
		p.finishType(tr)
		return tr
	}

	// named type, possibly qualified
	qual, n := p.qualifiedNameAhead()
	var d *NamedDecl
	if n > 1 {
		d = p.lookupQualified(qual)
	} else {
		d = p.lookup(qual)
	}
	if !isTypeDecl(d) {
		p.pos = start
		return nil
	}
	loc := t.Loc
	p.pos += n

	tr := &TypeRef{Loc: loc, Name: qual, Decl: d}
	if d.Canon().IsTemplate && p.cur().IsPunct("<") {
		p.parseTemplateArgs(tr)
	}
	p.finishType(tr)
	return tr
}

func tagKindOf(kw string) DeclKind {
	switch kw {
	case "class":
		return DeclClass
	case "union":
		return DeclUnion
	case "enum":
		return DeclEnum
	}
	return DeclStruct
}

// parseTemplateArgs parses <...> into nested type references.
func (p *Parser) parseTemplateArgs(tr *TypeRef) {
	p.advance() // "<"
	for {
		t := p.cur()
		if t.Kind == TokenEOF || t.IsPunct(">") || t.IsPunct(";") {
			break
		}
		if arg := p.parseType(); arg != nil {
			tr.Args = append(tr.Args, arg)
		} else {
			p.advance() // non-type argument
		}
		if !p.acceptPunct(",") && !p.cur().IsPunct(">") {
			// lost synchronization inside the argument list
			for p.cur().Kind != TokenEOF && !p.cur().IsPunct(">") && !p.cur().IsPunct(";") {
				p.advance()
			}
		}
	}
	p.acceptPunct(">")
}

// finishType consumes trailing pointer/reference/qualifier tokens.
func (p *Parser) finishType(tr *TypeRef) {
	for {
		t := p.cur()
		if t.IsPunct("*") || t.IsPunct("&") || t.IsPunct("&&") {
			p.advance()
			continue
		}
		if t.Kind == TokenIdent && (t.Text == "const" || t.Text == "volatile") {
			p.advance()
			continue
		}
		return
	}
}

// ---- declarations ----

func (p *Parser) parseTypedef() *NamedDecl {
	p.advance() // "typedef"
	tr := p.parseType()
	if tr == nil || p.cur().Kind != TokenIdent {
		p.skipToSemi()
		return nil
	}
	nameTok := p.advance()
	p.skipToSemi()

	d := &NamedDecl{
		Kind:         DeclTypedef,
		Name:         nameTok.Text,
		Scope:        p.scopeName(),
		Loc:          nameTok.Loc,
		Type:         tr,
		IsDefinition: true,
	}
	return p.register(d)
}

func (p *Parser) parseUsing() *NamedDecl {
	usingTok := p.advance() // "using"

	if p.cur().IsIdent("namespace") {
		p.skipToSemi()
		return nil
	}

	// using N = type;
	if p.cur().Kind == TokenIdent && p.la(1).IsPunct("=") {
		nameTok := p.advance()
		p.advance() // "="
		tr := p.parseType()
		p.skipToSemi()
		d := &NamedDecl{
			Kind:         DeclAlias,
			Name:         nameTok.Text,
			Scope:        p.scopeName(),
			Loc:          nameTok.Loc,
			Type:         tr,
			IsDefinition: true,
			IsTemplate:   p.takeTemplate(),
		}
		return p.register(d)
	}

	// using qual::name;
	qual, n := p.qualifiedNameAhead()
	if n == 0 {
		p.skipToSemi()
		return nil
	}
	p.pos += n
	p.skipToSemi()

	d := &NamedDecl{
		Kind:  DeclUsing,
		Name:  qual,
		Loc:   usingTok.Loc,
		Scope: p.scopeName(),
	}
	if target := p.lookupQualified(qual); target != nil {
		d.Targets = append(d.Targets, target)
		// the shadowed name becomes visible unqualified
		p.scopes[len(p.scopes)-1][target.Name] = target
	}
	return d // using-declarations never chain as redecls
}

func (p *Parser) takeTemplate() bool {
	t := p.pendingTemplate
	p.pendingTemplate = false
	return t
}

func (p *Parser) takeFriend() bool {
	f := p.pendingFriend
	p.pendingFriend = false
	return f
}

// parseTagTopLevel parses a record/enum declaration or definition plus
// any trailing declarators.
func (p *Parser) parseTagTopLevel() {
	isTemplate := p.takeTemplate()
	isFriend := p.takeFriend()
	kw := p.advance()
	kind := tagKindOf(kw.Text)

	if kw.IsIdent("enum") && (p.cur().IsIdent("class") || p.cur().IsIdent("struct")) {
		p.advance() // scoped enum
	}

	if p.cur().Kind != TokenIdent {
		// anonymous tag, skip its body and declarators
		p.skipToSemi()
		return
	}
	nameTok := p.advance()

	d := &NamedDecl{
		Kind:       kind,
		Name:       nameTok.Text,
		Scope:      p.scopeName(),
		Loc:        nameTok.Loc,
		IsTemplate: isTemplate,
		IsFriend:   isFriend,
	}

	// explicit specialization arguments on the tag name, e.g. S<int>
	if p.cur().IsPunct("<") {
		p.skipAngles()
	}

	switch {
	case p.cur().IsPunct(";"):
		p.advance()
		p.emit(p.register(d))
		return

	case p.cur().IsPunct(":"):
		for p.cur().Kind != TokenEOF && !p.cur().IsPunct("{") && !p.cur().IsPunct(";") {
			p.advance()
		}
	}

	if !p.cur().IsPunct("{") {
		p.skipToSemi()
		p.emit(p.register(d))
		return
	}

	d.IsDefinition = true
	p.register(d)
	p.parseMembers(d)
	p.emit(d)

	// trailing declarators: "} x, y;"
	if p.cur().Kind == TokenIdent {
		tr := &TypeRef{Loc: nameTok.Loc, Name: d.Name, Decl: d}
		p.parseVarDeclarators(tr, false)
		return
	}
	p.acceptPunct(";")
}

// parseMembers consumes a record or enum body, collecting member
// declarations. Friend declarations register at namespace scope.
func (p *Parser) parseMembers(record *NamedDecl) {
	p.advance() // "{"

	if record.Kind == DeclEnum {
		// enumerators become members but stay unreferenced here
		for p.cur().Kind != TokenEOF && !p.cur().IsPunct("}") {
			if p.cur().Kind == TokenIdent {
				record.Members = append(record.Members, &NamedDecl{
					Kind:     DeclVar,
					Name:     p.cur().Text,
					Loc:      p.cur().Loc,
					IsMember: true,
				})
			}
			p.advance()
			for p.cur().Kind != TokenEOF && !p.cur().IsPunct(",") && !p.cur().IsPunct("}") {
				p.advance()
			}
			p.acceptPunct(",")
		}
		p.acceptPunct("}")
		return
	}

	for {
		t := p.cur()
		if t.Kind == TokenEOF || t.IsPunct("}") {
			break
		}

		switch {
		case t.IsIdent("public") || t.IsIdent("private") || t.IsIdent("protected"):
			p.advance()
			p.acceptPunct(":")

		case t.IsIdent("friend"):
			p.advance()
			p.parseFriendMember()

		case t.IsIdent("struct") || t.IsIdent("class") || t.IsIdent("union") || t.IsIdent("enum"):
			p.parseTagMember(record)

		case t.IsIdent("template"):
			p.advance()
			p.skipAngles()

		case t.IsPunct(";"):
			p.advance()

		default:
			p.parseMemberDeclarator(record)
		}
	}
	p.acceptPunct("}")
}

// parseFriendMember handles "friend <declaration>;" inside a record. A
// friend function declaration is visible at namespace scope but is not a
// forward declaration for provider purposes.
func (p *Parser) parseFriendMember() {
	tr := p.parseType()
	name, nameLoc, ok := p.parseDeclaratorName()
	if tr == nil || !ok {
		p.skipToSemi()
		return
	}
	if p.cur().IsPunct("(") {
		p.skipBalanced("(", ")")
		d := &NamedDecl{
			Kind:     DeclFunction,
			Name:     name,
			Scope:    p.scopeName(),
			Loc:      nameLoc,
			IsFriend: true,
			Type:     tr,
		}
		p.register(d)
	}
	p.skipToSemi()
}

// parseTagMember parses a nested tag declaration inside a record.
func (p *Parser) parseTagMember(record *NamedDecl) {
	kw := p.advance()
	kind := tagKindOf(kw.Text)
	if p.cur().Kind != TokenIdent {
		p.skipToSemi()
		return
	}
	nameTok := p.advance()
	d := &NamedDecl{
		Kind:     kind,
		Name:     nameTok.Text,
		Scope:    p.scopeName(),
		Loc:      nameTok.Loc,
		IsMember: true,
	}
	record.Members = append(record.Members, d)
	if p.cur().IsPunct("{") {
		d.IsDefinition = true
		p.skipBalanced("{", "}")
	}
	p.skipToSemi()
}

// parseDeclaratorName reads a declarator name, including operator names.
func (p *Parser) parseDeclaratorName() (string, source.Loc, bool) {
	t := p.cur()
	if t.IsIdent("operator") {
		opTok := p.la(1)
		if opTok.Kind == TokenPunct {
			p.advance()
			p.advance()
			name := "operator" + opTok.Text
			// operator() and operator[] span two punctuators
			if (opTok.IsPunct("(") && p.cur().IsPunct(")")) || (opTok.IsPunct("[") && p.cur().IsPunct("]")) {
				name += p.advance().Text
			}
			return name, t.Loc, true
		}
	}
	if t.Kind == TokenIdent {
		p.advance()
		return t.Text, t.Loc, true
	}
	return "", source.InvalidLoc, false
}

// parseMemberDeclarator parses one field or method declaration.
func (p *Parser) parseMemberDeclarator(record *NamedDecl) {
	tr := p.parseType()
	if tr == nil {
		// constructors, destructors, conversion operators: skip
		p.skipToSemi()
		return
	}
	name, nameLoc, ok := p.parseDeclaratorName()
	if !ok {
		p.skipToSemi()
		return
	}

	if p.cur().IsPunct("(") {
		p.skipBalanced("(", ")")
		d := &NamedDecl{
			Kind:     DeclFunction,
			Name:     name,
			Scope:    p.scopeName(),
			Loc:      nameLoc,
			IsMember: true,
			Type:     tr,
		}
		record.Members = append(record.Members, d)
		// trailing qualifiers then body or ";"
		for p.cur().Kind == TokenIdent {
			p.advance()
		}
		if p.cur().IsPunct("{") {
			d.IsDefinition = true
			p.skipBalanced("{", "}")
		} else {
			p.skipToSemi()
		}
		return
	}

	d := &NamedDecl{
		Kind:     DeclField,
		Name:     name,
		Scope:    p.scopeName(),
		Loc:      nameLoc,
		IsMember: true,
		Type:     tr,
	}
	record.Members = append(record.Members, d)
	p.skipToSemi()
}

// parseDeclaration parses a namespace-scope variable or function
// declaration starting with a type.
func (p *Parser) parseDeclaration() {
	isTemplate := p.takeTemplate()
	isFriend := p.takeFriend()

	tr := p.parseType()
	if tr == nil {
		log.Printf("cc: skipping unparsable construct at %s", p.sm.Position(p.cur().Loc))
		p.skipToSemi()
		return
	}

	name, nameLoc, ok := p.parseDeclaratorName()
	if !ok {
		p.skipToSemi()
		return
	}

	if p.cur().IsPunct("(") {
		p.parseFunction(tr, name, nameLoc, isTemplate, isFriend)
		return
	}

	p.parseVarDeclaratorsAt(tr, name, nameLoc, false)
}

// parseFunction parses a function declaration or definition.
func (p *Parser) parseFunction(ret *TypeRef, name string, nameLoc source.Loc, isTemplate, isFriend bool) {
	d := &NamedDecl{
		Kind:       DeclFunction,
		Name:       name,
		Scope:      p.scopeName(),
		Loc:        nameLoc,
		Type:       ret,
		IsTemplate: isTemplate,
		IsFriend:   isFriend,
	}

	params := p.parseParams()

	// trailing specifiers: const, noexcept, override, ...
	for p.cur().Kind == TokenIdent && p.cur().Text != "" && skippableFunctionSuffix(p.cur().Text) {
		p.advance()
	}

	if p.cur().IsPunct("{") {
		d.IsDefinition = true
		p.register(d)
		p.locals = make(map[string]*NamedDecl)
		for _, prm := range params {
			p.registerLocal(prm)
		}
		d.Body = p.parseBody()
		p.locals = nil
	} else {
		p.register(d)
		p.skipToSemi()
	}
	p.emit(d)
}

func skippableFunctionSuffix(text string) bool {
	switch text {
	case "const", "noexcept", "override", "final", "volatile":
		return true
	}
	return false
}

// parseParams parses "(...)" into parameter declarations.
func (p *Parser) parseParams() []*NamedDecl {
	var params []*NamedDecl
	if !p.acceptPunct("(") {
		return params
	}
	for {
		t := p.cur()
		if t.Kind == TokenEOF || t.IsPunct(")") {
			break
		}
		tr := p.parseType()
		if tr == nil {
			// unknown parameter shape, drop to the next boundary
			for !p.cur().IsPunct(",") && !p.cur().IsPunct(")") && p.cur().Kind != TokenEOF {
				p.advance()
			}
			p.acceptPunct(",")
			continue
		}
		prm := &NamedDecl{Kind: DeclVar, Type: tr}
		if p.cur().Kind == TokenIdent {
			nameTok := p.advance()
			prm.Name = nameTok.Text
			prm.Loc = nameTok.Loc
		}
		params = append(params, prm)
		// default argument
		if p.acceptPunct("=") {
			for !p.cur().IsPunct(",") && !p.cur().IsPunct(")") && p.cur().Kind != TokenEOF {
				p.advance()
			}
		}
		if !p.acceptPunct(",") {
			break
		}
	}
	p.acceptPunct(")")
	return params
}

// parseVarDeclarators parses declarators for an already parsed type at
// namespace or local scope.
func (p *Parser) parseVarDeclarators(tr *TypeRef, local bool) []*NamedDecl {
	name, nameLoc, ok := p.parseDeclaratorName()
	if !ok {
		p.skipToSemi()
		return nil
	}
	return p.parseVarDeclaratorsAt(tr, name, nameLoc, local)
}

func (p *Parser) parseVarDeclaratorsAt(tr *TypeRef, name string, nameLoc source.Loc, local bool) []*NamedDecl {
	var out []*NamedDecl
	typeForWalk := tr // only the first declarator walks the written type

	for {
		d := &NamedDecl{
			Kind:         DeclVar,
			Name:         name,
			Scope:        p.scopeName(),
			Loc:          nameLoc,
			Type:         typeForWalk,
			IsDefinition: true,
		}
		typeForWalk = nil

		// arrays
		for p.cur().IsPunct("[") {
			p.skipBalanced("[", "]")
		}

		switch {
		case p.acceptPunct("="):
			d.Init = p.parseExpr()

		case p.cur().IsPunct("(") || p.cur().IsPunct("{"):
			d.Init = p.parseConstructInit(tr)
		}

		if local {
			p.registerLocal(d)
		} else {
			p.register(d)
			p.emit(d)
		}
		out = append(out, d)

		if !p.acceptPunct(",") {
			break
		}
		var ok bool
		name, nameLoc, ok = p.parseDeclaratorName()
		if !ok {
			break
		}
	}
	p.acceptPunct(";")
	return out
}

// parseConstructInit parses "(args)" or "{args}" direct initialization.
// No type is written at the call site, so the walker only reaches the
// record through the Construction policy.
func (p *Parser) parseConstructInit(tr *TypeRef) Expr {
	open := p.cur().Text
	close := ")"
	if open == "{" {
		close = "}"
	}
	callLoc := p.cur().Loc
	p.advance()

	var record *NamedDecl
	if tr != nil && tr.Decl != nil && tr.Decl.Canon().Kind.IsTag() {
		record = tr.Decl.Canon()
	}

	ctor := &ConstructExpr{CallLoc: callLoc, Record: record}
	for {
		t := p.cur()
		if t.Kind == TokenEOF || t.IsPunct(close) {
			break
		}
		ctor.Args = append(ctor.Args, p.parseExpr())
		if !p.acceptPunct(",") {
			break
		}
	}
	p.acceptPunct(close)
	return ctor
}

// ---- statements and expressions ----

// parseBody parses "{ ... }" into a flat statement list.
func (p *Parser) parseBody() []Expr {
	p.advance() // "{"
	var stmts []Expr

	for {
		t := p.cur()
		if t.Kind == TokenEOF || t.IsPunct("}") {
			break
		}
		if t.IsPunct("{") {
			stmts = append(stmts, p.parseBody()...)
			continue
		}
		before := p.pos
		if s := p.parseStatement(); s != nil {
			stmts = append(stmts, s)
		}
		if p.pos == before {
			p.advance()
		}
	}
	p.acceptPunct("}")
	return stmts
}

func (p *Parser) parseStatement() Expr {
	t := p.cur()

	switch {
	case t.IsPunct(";"):
		p.advance()
		return nil

	case t.IsIdent("return"):
		p.advance()
		if p.cur().IsPunct(";") {
			p.advance()
			return nil
		}
		e := p.parseExpr()
		p.acceptPunct(";")
		return e

	case t.IsIdent("if") || t.IsIdent("while") || t.IsIdent("switch") || t.IsIdent("for"):
		p.advance()
		if p.cur().IsPunct("(") {
			p.advance()
			var parts []Expr
			for p.cur().Kind != TokenEOF && !p.cur().IsPunct(")") {
				before := p.pos
				parts = append(parts, p.parseExpr())
				p.acceptPunct(";")
				p.acceptPunct(",")
				if p.pos == before {
					p.advance()
				}
			}
			p.acceptPunct(")")
			if len(parts) > 0 {
				return parts[0]
			}
		}
		return nil

	case t.IsIdent("else") || t.IsIdent("do") || t.IsIdent("break") || t.IsIdent("continue"):
		p.advance()
		return nil
	}

	// local declaration?
	if tr := p.parseType(); tr != nil {
		if p.cur().Kind == TokenIdent || p.cur().IsIdent("operator") {
			decls := p.parseVarDeclarators(tr, true)
			return &DeclStmt{DeclLoc: tr.Loc, Decls: decls}
		}
		// a type with no declarator: treat as expression start, e.g. S(x)
	}

	e := p.parseExpr()
	p.acceptPunct(";")
	return e
}

// binary operators handled in expressions, in scan order.
var binaryOps = []string{
	"==", "!=", "<=", ">=", "&&", "||", "<<", ">>",
	"+", "-", "*", "/", "%", "&", "|", "^", "<", ">", "=",
}

func isBinaryOp(t Token) bool {
	if t.Kind != TokenPunct {
		return false
	}
	for _, op := range binaryOps {
		if t.Text == op {
			return true
		}
	}
	return false
}

// parseExpr parses a flat left-associative expression. Precedence is not
// modeled; reference extraction only needs the operands and operators.
func (p *Parser) parseExpr() Expr {
	lhs := p.parsePostfix()
	for isBinaryOp(p.cur()) {
		opTok := p.advance()
		rhs := p.parsePostfix()

		// an in-scope operator function turns this into an overloaded
		// operator call
		if fn := p.lookup("operator" + opTok.Text); fn != nil && fn.Canon().Kind == DeclFunction {
			lhs = &OperatorCallExpr{
				Op:    opTok.Text,
				OpLoc: opTok.Loc,
				Fn:    fn,
				Args:  []Expr{lhs, rhs},
			}
			continue
		}
		lhs = &BinaryExpr{Op: opTok.Text, OpLoc: opTok.Loc, LHS: lhs, RHS: rhs}
	}
	return lhs
}

func (p *Parser) parsePostfix() Expr {
	e := p.parsePrimary()
	for {
		t := p.cur()
		switch {
		case t.IsPunct(".") || t.IsPunct("->"):
			p.advance()
			if p.cur().Kind != TokenIdent {
				return e
			}
			nameTok := p.advance()
			member := findMember(exprRecord(e), nameTok.Text)
			e = &MemberExpr{Base: e, MemberLoc: nameTok.Loc, Name: nameTok.Text, Member: member}

		case t.IsPunct("("):
			lparen := p.advance()
			call := &CallExpr{Callee: e, LParen: lparen.Loc}
			for p.cur().Kind != TokenEOF && !p.cur().IsPunct(")") {
				call.Args = append(call.Args, p.parseExpr())
				if !p.acceptPunct(",") {
					break
				}
			}
			p.acceptPunct(")")
			e = call

		case t.IsPunct("[") :
			p.skipBalanced("[", "]")

		case t.IsPunct("++") || t.IsPunct("--"):
			p.advance()

		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() Expr {
	t := p.cur()

	switch {
	case t.Kind == TokenNumber || t.Kind == TokenString || t.Kind == TokenChar:
		p.advance()
		return &LiteralExpr{LitLoc: t.Loc}

	case t.IsPunct("("):
		p.advance()
		e := p.parseExpr()
		p.acceptPunct(")")
		return e

	case t.IsPunct("!") || t.IsPunct("-") || t.IsPunct("+") || t.IsPunct("*") || t.IsPunct("&") || t.IsPunct("~"):
		p.advance()
		return p.parsePrimary()

	case t.Kind == TokenIdent:
		qual, n := p.qualifiedNameAhead()
		var d *NamedDecl
		if n > 1 {
			d = p.lookupQualified(qual)
		} else {
			d = p.lookup(qual)
		}

		// a type name followed by a call is a written constructor call
		if isTypeDecl(d) {
			start := p.pos
			if tr := p.parseType(); tr != nil && (p.cur().IsPunct("(") || p.cur().IsPunct("{")) {
				ctor := p.parseConstructInit(tr).(*ConstructExpr)
				ctor.Type = tr
				return ctor
			}
			p.pos = start
		}

		p.pos += n
		if d == nil {
			// unresolved: an empty overload set keeps analysis tolerant
			return &UnresolvedLookupExpr{NameLoc: t.Loc, Name: qual}
		}
		return &DeclRefExpr{NameLoc: t.Loc, Decl: d}
	}

	p.advance()
	return &LiteralExpr{LitLoc: t.Loc}
}

// exprRecord returns the record type an expression statically carries,
// best effort.
func exprRecord(e Expr) *NamedDecl {
	switch x := e.(type) {
	case *DeclRefExpr:
		if x.Decl != nil && x.Decl.Type != nil && x.Decl.Type.Decl != nil {
			d := x.Decl.Type.Decl.Canon()
			if d.Kind.IsTag() {
				return d
			}
		}
	case *ConstructExpr:
		return x.Record
	case *MemberExpr:
		if x.Member != nil && x.Member.Type != nil && x.Member.Type.Decl != nil {
			d := x.Member.Type.Decl.Canon()
			if d.Kind.IsTag() {
				return d
			}
		}
	}
	return nil
}

// findMember resolves a member name in a record definition.
func findMember(record *NamedDecl, name string) *NamedDecl {
	if record == nil {
		return nil
	}
	for _, m := range record.Canon().Members {
		if m.Name == name {
			return m
		}
	}
	return nil
}
