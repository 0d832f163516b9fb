package source

import "testing"

func TestAddFile_Identity(t *testing.T) {
	sm := NewSourceManager()

	a := sm.AddFile("a.h", "int x;\n")
	b := sm.AddFile("b.h", "int y;\n")
	again := sm.AddFile("a.h", "ignored")

	if a == b {
		t.Fatal("distinct names must yield distinct files")
	}
	if again != a {
		t.Error("re-registering a name must return the original file")
	}
	if again.Content != "int x;\n" {
		t.Errorf("re-registration must not replace content, got %q", again.Content)
	}
	if sm.Lookup("b.h") != b {
		t.Error("Lookup(b.h) did not return the registered file")
	}
}

func TestLineColumn(t *testing.T) {
	sm := NewSourceManager()
	f := sm.AddFile("main.cc", "abc\ndef\n\nxyz")

	tests := []struct {
		name string
		off  int
		line int
		col  int
	}{
		{"first byte", 0, 1, 1},
		{"end of first line", 2, 1, 3},
		{"start of second line", 4, 2, 1},
		{"empty line", 8, 3, 1},
		{"last line", 9, 4, 1},
		{"mid last line", 11, 4, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := sm.FileLoc(f, tt.off)
			if got := sm.Line(loc); got != tt.line {
				t.Errorf("Line = %d, want %d", got, tt.line)
			}
			if got := sm.Column(loc); got != tt.col {
				t.Errorf("Column = %d, want %d", got, tt.col)
			}
		})
	}
}

func TestExpansionWalking(t *testing.T) {
	sm := NewSourceManager()
	header := sm.AddFile("a.h", "#define FOO 42\n")
	main := sm.AddFile("main.cc", "int y = FOO;\n")
	sm.SetMainFile(main)

	spelling := sm.FileLoc(header, 12) // the "42" in the macro body
	use := sm.FileLoc(main, 8)         // the "FOO" at the use site

	exp := sm.CreateExpansionLoc(spelling, use, false)

	if !sm.IsMacroLoc(exp) {
		t.Fatal("expansion loc not recognized as macro loc")
	}
	if sm.IsMacroLoc(use) {
		t.Fatal("file loc misclassified as macro loc")
	}
	if got := sm.ExpansionLoc(exp); got != use {
		t.Errorf("ExpansionLoc = %v, want %v", got, use)
	}
	if got := sm.SpellingLoc(exp); got != spelling {
		t.Errorf("SpellingLoc = %v, want %v", got, spelling)
	}
	if f := sm.FileFor(exp); f != main {
		t.Errorf("FileFor(expansion) = %v, want main file", f)
	}
	if got := sm.Line(exp); got != 1 {
		t.Errorf("Line(expansion) = %d, want 1", got)
	}

	// two levels: an argument token expanded inside another expansion
	nested := sm.CreateExpansionLoc(exp, use, true)
	sp, u, isArg, ok := sm.ExpansionInfo(nested)
	if !ok || !isArg {
		t.Fatal("ExpansionInfo lost the macro-arg flag")
	}
	if sp != exp || u != use {
		t.Errorf("ExpansionInfo = (%v, %v), want (%v, %v)", sp, u, exp, use)
	}
	if got := sm.SpellingLoc(nested); got != spelling {
		t.Errorf("SpellingLoc through two levels = %v, want %v", got, spelling)
	}
}

func TestLineText(t *testing.T) {
	sm := NewSourceManager()
	f := sm.AddFile("main.cc", "#include <vector>\nint main(){}\n")

	if got := sm.LineText(f, 1); got != "#include <vector>" {
		t.Errorf("LineText(1) = %q", got)
	}
	if got := sm.LineText(f, 2); got != "int main(){}" {
		t.Errorf("LineText(2) = %q", got)
	}
	if got := sm.LineText(f, 99); got != "" {
		t.Errorf("LineText out of range = %q, want empty", got)
	}
}

func TestInvalidLoc(t *testing.T) {
	sm := NewSourceManager()
	sm.AddFile("main.cc", "int x;\n")

	if InvalidLoc.IsValid() {
		t.Error("InvalidLoc must not be valid")
	}
	if f := sm.FileFor(InvalidLoc); f != nil {
		t.Errorf("FileFor(invalid) = %v, want nil", f)
	}
	if got := sm.Line(InvalidLoc); got != 0 {
		t.Errorf("Line(invalid) = %d, want 0", got)
	}
	if got := sm.Position(InvalidLoc); got != "<invalid>" {
		t.Errorf("Position(invalid) = %q", got)
	}
}
