package cc

import "github.com/CWBudde/go-include-cleaner/internal/source"

// DeclKind classifies named declarations.
type DeclKind int

const (
	DeclClass DeclKind = iota
	DeclStruct
	DeclUnion
	DeclEnum
	DeclFunction
	DeclVar
	DeclTypedef
	DeclAlias
	DeclUsing
	DeclNamespace
	DeclField
)

// String returns the user-visible node kind name used in diagnostics.
func (k DeclKind) String() string {
	switch k {
	case DeclClass:
		return "class"
	case DeclStruct:
		return "struct"
	case DeclUnion:
		return "union"
	case DeclEnum:
		return "enum"
	case DeclFunction:
		return "function"
	case DeclVar:
		return "variable"
	case DeclTypedef:
		return "typedef"
	case DeclAlias:
		return "type alias"
	case DeclUsing:
		return "using"
	case DeclNamespace:
		return "namespace"
	case DeclField:
		return "field"
	}
	return "declaration"
}

// IsTag reports whether the kind is a class/struct/union/enum.
func (k DeclKind) IsTag() bool {
	switch k {
	case DeclClass, DeclStruct, DeclUnion, DeclEnum:
		return true
	}
	return false
}

// NamedDecl is one declaration of a named entity. Redeclarations of the
// same entity chain through a shared canonical declaration; the canonical
// declaration is always the first one seen and carries the full redecl
// list (itself included).
type NamedDecl struct {
	Kind  DeclKind
	Name  string
	Scope string // enclosing namespace path, "" at global scope
	Loc   source.Loc

	canonical *NamedDecl
	Redecls   []*NamedDecl // populated on the canonical declaration only

	IsDefinition bool
	IsFriend     bool // written as a friend declaration
	IsTemplate   bool
	IsImplicit   bool // compiler-synthesized (e.g. implicit instantiation)
	IsMember     bool // declared inside a record

	// Type is the declared type for variables and the underlying type
	// for typedefs and aliases.
	Type *TypeRef

	// Init is the variable initializer, if any.
	Init Expr

	// Body holds a function definition's statements.
	Body []Expr

	// Targets are the declarations a using-declaration brings in.
	Targets []*NamedDecl

	// Members are the declarations inside a record definition.
	Members []*NamedDecl
}

// Canon returns the canonical declaration of the entity.
func (d *NamedDecl) Canon() *NamedDecl {
	if d.canonical != nil {
		return d.canonical
	}
	return d
}

// AllRedecls returns every declaration of the entity, canonical first.
func (d *NamedDecl) AllRedecls() []*NamedDecl {
	c := d.Canon()
	if len(c.Redecls) == 0 {
		return []*NamedDecl{c}
	}
	return c.Redecls
}

// QualifiedName returns the scope-qualified name.
func (d *NamedDecl) QualifiedName() string {
	if d.Scope == "" {
		return d.Name
	}
	return d.Scope + "::" + d.Name
}

// ChainRedecl links d as a redeclaration of canon. The parser calls it
// for every redeclaration it recognizes; AST-building consumers can use
// it the same way.
func ChainRedecl(canon, d *NamedDecl) {
	canon = canon.Canon()
	d.canonical = canon
	if len(canon.Redecls) == 0 {
		canon.Redecls = append(canon.Redecls, canon)
	}
	canon.Redecls = append(canon.Redecls, d)
}

// TypeRef is one written use of a type name, carrying the location of the
// whole type spelling (its TypeLoc).
type TypeRef struct {
	Loc  source.Loc
	Name string

	// Decl is the referenced type declaration; nil for builtin types.
	Decl *NamedDecl

	// SpecializedRecord is the chosen specialization of a template
	// specialization type, when one exists alongside the primary.
	SpecializedRecord *NamedDecl

	// Args are template arguments, each a nested type reference.
	Args []*TypeRef
}

// Expr is one expression node. The set of variants is closed; consumers
// switch exhaustively on the concrete type.
type Expr interface {
	exprNode()
	Pos() source.Loc
}

// DeclRefExpr is a direct reference to a named declaration.
type DeclRefExpr struct {
	NameLoc source.Loc
	Decl    *NamedDecl
}

// MemberExpr is a member access (a.b or a->b).
type MemberExpr struct {
	Base      Expr
	MemberLoc source.Loc
	Name      string
	Member    *NamedDecl // nil when the member could not be resolved
}

// CallExpr is a call through an ordinary callee expression.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	LParen source.Loc
}

// OperatorCallExpr is a use of an overloaded operator resolved to a
// declared operator function.
type OperatorCallExpr struct {
	Op    string
	OpLoc source.Loc
	Fn    *NamedDecl
	Args  []Expr
}

// BinaryExpr is a builtin binary operation.
type BinaryExpr struct {
	Op    string
	OpLoc source.Loc
	LHS   Expr
	RHS   Expr
}

// ConstructExpr is a constructor call. Type is nil when no type was
// written at the call site (e.g. brace initialization against a known
// record type).
type ConstructExpr struct {
	CallLoc source.Loc
	Type    *TypeRef
	Record  *NamedDecl
	Args    []Expr
}

// UnresolvedLookupExpr is a reference that resolved to an overload set.
type UnresolvedLookupExpr struct {
	NameLoc    source.Loc
	Name       string
	Candidates []*NamedDecl
	IsMember   bool
}

// DeclStmt is a declaration in statement position inside a function body.
type DeclStmt struct {
	DeclLoc source.Loc
	Decls   []*NamedDecl
}

// LiteralExpr is a literal; it references nothing.
type LiteralExpr struct {
	LitLoc source.Loc
}

func (*DeclRefExpr) exprNode()          {}
func (*MemberExpr) exprNode()           {}
func (*CallExpr) exprNode()             {}
func (*OperatorCallExpr) exprNode()     {}
func (*BinaryExpr) exprNode()           {}
func (*ConstructExpr) exprNode()        {}
func (*UnresolvedLookupExpr) exprNode() {}
func (*DeclStmt) exprNode()             {}
func (*LiteralExpr) exprNode()          {}

func (e *DeclRefExpr) Pos() source.Loc          { return e.NameLoc }
func (e *MemberExpr) Pos() source.Loc           { return e.MemberLoc }
func (e *CallExpr) Pos() source.Loc             { return e.LParen }
func (e *OperatorCallExpr) Pos() source.Loc     { return e.OpLoc }
func (e *BinaryExpr) Pos() source.Loc           { return e.OpLoc }
func (e *ConstructExpr) Pos() source.Loc        { return e.CallLoc }
func (e *UnresolvedLookupExpr) Pos() source.Loc { return e.NameLoc }
func (e *DeclStmt) Pos() source.Loc             { return e.DeclLoc }
func (e *LiteralExpr) Pos() source.Loc          { return e.LitLoc }
