package analysis

import (
	"testing"

	"github.com/CWBudde/go-include-cleaner/internal/cc"
	"github.com/CWBudde/go-include-cleaner/internal/source"
)

// walkFixture hand-builds a tiny translation unit so the walker can be
// driven without the parser.
type walkFixture struct {
	sm   *source.SourceManager
	main *source.File

	record *cc.NamedDecl // struct Widget, defined in the main file
	fn     *cc.NamedDecl // bool operator==(Widget, Widget)
	field  *cc.NamedDecl // Widget::field
	varA   *cc.NamedDecl // Widget a
}

func newWalkFixture(t *testing.T) *walkFixture {
	t.Helper()
	sm := source.NewSourceManager()
	main := sm.AddFile("main.cc", "struct Widget { int field; };\nWidget a;\n")
	sm.SetMainFile(main)

	fx := &walkFixture{sm: sm, main: main}

	fx.field = &cc.NamedDecl{Kind: cc.DeclField, Name: "field", Loc: sm.FileLoc(main, 20), IsMember: true}
	fx.record = &cc.NamedDecl{
		Kind:         cc.DeclStruct,
		Name:         "Widget",
		Loc:          sm.FileLoc(main, 7),
		IsDefinition: true,
		Members:      []*cc.NamedDecl{fx.field},
	}
	fx.fn = &cc.NamedDecl{Kind: cc.DeclFunction, Name: "operator==", Loc: sm.FileLoc(main, 0)}
	fx.varA = &cc.NamedDecl{
		Kind: cc.DeclVar,
		Name: "a",
		Loc:  sm.FileLoc(main, 37),
		Type: &cc.TypeRef{Loc: sm.FileLoc(main, 30), Name: "Widget", Decl: fx.record},
	}
	return fx
}

func (fx *walkFixture) collect(policy Policy, d *cc.NamedDecl) []*cc.NamedDecl {
	ctx := NewAnalysisContext(policy, false, fx.sm, nil)
	var got []*cc.NamedDecl
	walkDecl(ctx, d, func(loc source.Loc, ref *cc.NamedDecl) {
		got = append(got, ref)
	})
	return got
}

func containsDecl(decls []*cc.NamedDecl, d *cc.NamedDecl) bool {
	for _, x := range decls {
		if x == d {
			return true
		}
	}
	return false
}

func TestWalk_VarTypeReference(t *testing.T) {
	fx := newWalkFixture(t)

	got := fx.collect(Policy{}, fx.varA)
	if len(got) != 1 || got[0] != fx.record {
		t.Errorf("got %v, want exactly the Widget reference", got)
	}
}

func TestWalk_TemplateArguments(t *testing.T) {
	fx := newWalkFixture(t)

	inner := &cc.NamedDecl{Kind: cc.DeclClass, Name: "Inner", Loc: fx.sm.FileLoc(fx.main, 4)}
	v := &cc.NamedDecl{
		Kind: cc.DeclVar,
		Name: "v",
		Loc:  fx.varA.Loc,
		Type: &cc.TypeRef{
			Loc:  fx.sm.FileLoc(fx.main, 30),
			Decl: fx.record,
			Args: []*cc.TypeRef{{Loc: fx.sm.FileLoc(fx.main, 31), Decl: inner}},
		},
	}

	got := fx.collect(Policy{}, v)
	if !containsDecl(got, fx.record) || !containsDecl(got, inner) {
		t.Errorf("template argument reference lost: %v", got)
	}
}

func TestWalk_PolicyGates(t *testing.T) {
	fx := newWalkFixture(t)

	base := &cc.DeclRefExpr{NameLoc: fx.varA.Loc, Decl: fx.varA}
	body := []cc.Expr{
		&cc.MemberExpr{Base: base, MemberLoc: fx.varA.Loc, Name: "field", Member: fx.field},
		&cc.OperatorCallExpr{Op: "==", OpLoc: fx.varA.Loc, Fn: fx.fn, Args: []cc.Expr{base}},
		&cc.ConstructExpr{CallLoc: fx.varA.Loc, Record: fx.record},
	}
	fn := &cc.NamedDecl{
		Kind:         cc.DeclFunction,
		Name:         "test",
		Loc:          fx.sm.FileLoc(fx.main, 0),
		IsDefinition: true,
		Body:         body,
	}

	tests := []struct {
		name   string
		policy Policy
		member bool
		op     bool
		ctor   bool
	}{
		{"all off", Policy{}, false, false, false},
		{"members", Policy{Members: true}, true, false, false},
		{"operators", Policy{Operators: true}, false, true, false},
		{"construction", Policy{Construction: true}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fx.collect(tt.policy, fn)
			if containsDecl(got, fx.field) != tt.member {
				t.Errorf("member reported = %v, want %v", !tt.member, tt.member)
			}
			if containsDecl(got, fx.fn) != tt.op {
				t.Errorf("operator reported = %v, want %v", !tt.op, tt.op)
			}
			if containsDecl(got, fx.record) != tt.ctor {
				t.Errorf("construction reported = %v, want %v", !tt.ctor, tt.ctor)
			}
			// the operand is a plain reference and always reported
			if !containsDecl(got, fx.varA) {
				t.Error("operand reference lost")
			}
		})
	}
}

func TestWalk_UsingDeclaration(t *testing.T) {
	fx := newWalkFixture(t)

	using := &cc.NamedDecl{
		Kind:    cc.DeclUsing,
		Name:    "ns::Widget",
		Loc:     fx.sm.FileLoc(fx.main, 0),
		Targets: []*cc.NamedDecl{fx.record, fx.fn},
	}

	got := fx.collect(Policy{}, using)
	if len(got) != 2 || got[0] != fx.record || got[1] != fx.fn {
		t.Errorf("using-decl must report every shadowed target, got %v", got)
	}
}

func TestWalk_Canonicalization(t *testing.T) {
	fx := newWalkFixture(t)

	// a second declaration of Widget; references must unify on the
	// canonical one
	redecl := &cc.NamedDecl{Kind: cc.DeclStruct, Name: "Widget", Loc: fx.sm.FileLoc(fx.main, 7)}
	cc.ChainRedecl(fx.record, redecl)

	v := &cc.NamedDecl{
		Kind: cc.DeclVar,
		Name: "v",
		Loc:  fx.varA.Loc,
		Type: &cc.TypeRef{Loc: fx.varA.Loc, Decl: redecl},
	}
	got := fx.collect(Policy{}, v)
	if len(got) != 1 || got[0] != fx.record {
		t.Errorf("reference must canonicalize to the first declaration, got %v", got)
	}
}

func TestWalk_MacroLocations(t *testing.T) {
	fx := newWalkFixture(t)

	useLoc := fx.sm.FileLoc(fx.main, 30)
	bodyLoc := fx.sm.FileLoc(fx.main, 4)

	// spelled in a macro argument: rewritten to the spelling location
	argLoc := fx.sm.CreateExpansionLoc(useLoc, useLoc, true)
	v := &cc.NamedDecl{
		Kind: cc.DeclVar, Name: "v", Loc: useLoc,
		Type: &cc.TypeRef{Loc: argLoc, Decl: fx.record},
	}

	ctx := NewAnalysisContext(Policy{}, false, fx.sm, nil)
	var locs []source.Loc
	walkDecl(ctx, v, func(loc source.Loc, d *cc.NamedDecl) {
		locs = append(locs, loc)
	})
	if len(locs) != 1 || locs[0] != useLoc {
		t.Errorf("macro-arg reference must surface at its spelling, got %v", locs)
	}

	// spelled in a macro body: suppressed
	bodyExp := fx.sm.CreateExpansionLoc(bodyLoc, useLoc, false)
	v.Type = &cc.TypeRef{Loc: bodyExp, Decl: fx.record}

	locs = nil
	walkDecl(ctx, v, func(loc source.Loc, d *cc.NamedDecl) {
		locs = append(locs, loc)
	})
	if len(locs) != 0 {
		t.Errorf("macro-body reference must be suppressed, got %v", locs)
	}
}

func TestWalk_UnresolvedLookup(t *testing.T) {
	fx := newWalkFixture(t)

	candA := &cc.NamedDecl{Kind: cc.DeclFunction, Name: "f", Loc: fx.sm.FileLoc(fx.main, 0)}
	candB := &cc.NamedDecl{Kind: cc.DeclFunction, Name: "f", Loc: fx.sm.FileLoc(fx.main, 4)}

	mk := func(isMember bool) *cc.NamedDecl {
		return &cc.NamedDecl{
			Kind: cc.DeclFunction, Name: "test",
			Loc:          fx.sm.FileLoc(fx.main, 0),
			IsDefinition: true,
			Body: []cc.Expr{&cc.UnresolvedLookupExpr{
				NameLoc:    fx.varA.Loc,
				Name:       "f",
				Candidates: []*cc.NamedDecl{candA, candB},
				IsMember:   isMember,
			}},
		}
	}

	// a free overload set reports every candidate
	got := fx.collect(Policy{}, mk(false))
	if !containsDecl(got, candA) || !containsDecl(got, candB) {
		t.Errorf("free overload set must report all candidates, got %v", got)
	}

	// a member overload set is gated by the Members policy
	if got := fx.collect(Policy{}, mk(true)); len(got) != 0 {
		t.Errorf("member overload set reported with Members off: %v", got)
	}
	got = fx.collect(Policy{Members: true}, mk(true))
	if !containsDecl(got, candA) || !containsDecl(got, candB) {
		t.Errorf("member overload set lost under Members policy: %v", got)
	}
}

func TestWalk_FunctionDefinitionReportsCanonical(t *testing.T) {
	fx := newWalkFixture(t)

	decl := &cc.NamedDecl{Kind: cc.DeclFunction, Name: "helper", Loc: fx.sm.FileLoc(fx.main, 0)}
	def := &cc.NamedDecl{Kind: cc.DeclFunction, Name: "helper", Loc: fx.sm.FileLoc(fx.main, 10), IsDefinition: true}
	cc.ChainRedecl(decl, def)

	got := fx.collect(Policy{}, def)
	if !containsDecl(got, decl) {
		t.Errorf("definition must reference its canonical declaration, got %v", got)
	}
}
