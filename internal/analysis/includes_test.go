package analysis

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/CWBudde/go-include-cleaner/internal/source"
)

func TestRecordedIncludes_OrderAndIndices(t *testing.T) {
	sm := source.NewSourceManager()
	fileA := sm.AddFile("a.h", "")
	fileB := sm.AddFile("b.h", "")

	var ri RecordedIncludes
	// duplicates are preserved: a.h twice yields two ordinals
	ri.Add(&Include{Spelled: "a.h", Resolved: fileA, Line: 1})
	ri.Add(&Include{Spelled: "b.h", Resolved: fileB, Line: 2})
	ri.Add(&Include{Spelled: "a.h", Resolved: fileA, Line: 3})
	ri.Add(&Include{Spelled: "missing.h", Line: 4})

	all := ri.All()
	if len(all) != 4 {
		t.Fatalf("All() has %d entries, want 4", len(all))
	}
	for i, inc := range all {
		if inc.Ordinal != i {
			t.Errorf("entry %d has ordinal %d", i, inc.Ordinal)
		}
	}

	// both indices recover the same ordinals as the sequence
	if diff := cmp.Diff([]int{0, 2}, ri.bySpelling["a.h"]); diff != "" {
		t.Errorf("bySpelling[a.h] mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 2}, ri.byFile[fileA.ID]); diff != "" {
		t.Errorf("byFile[a.h] mismatch (-want +got):\n%s", diff)
	}
	for spelling, ordinals := range ri.bySpelling {
		for _, ord := range ordinals {
			if all[ord].Spelled != spelling {
				t.Errorf("bySpelling[%q] ordinal %d points at %q", spelling, ord, all[ord].Spelled)
			}
		}
	}
	for id, ordinals := range ri.byFile {
		for _, ord := range ordinals {
			if all[ord].Resolved == nil || all[ord].Resolved.ID != id {
				t.Errorf("byFile[%d] ordinal %d points at %+v", id, ord, all[ord].Resolved)
			}
		}
	}
}

func TestRecordedIncludes_Match(t *testing.T) {
	sm := source.NewSourceManager()
	fileA := sm.AddFile("a.h", "")
	fileOther := sm.AddFile("other.h", "")

	var ri RecordedIncludes
	ri.Add(&Include{Spelled: "a.h", Resolved: fileA, Line: 1})
	ri.Add(&Include{Spelled: "vector", Resolved: nil, Angled: true, Line: 2})
	ri.Add(&Include{Spelled: "a.h", Resolved: fileA, Line: 3})

	tests := []struct {
		name     string
		header   Header
		wantOrds []int
	}{
		{"physical matches by resolved file", PhysicalHeader(fileA), []int{0, 2}},
		{"physical no match", PhysicalHeader(fileOther), nil},
		{"stdlib matches by trimmed spelling", StdlibHeader("vector"), []int{1}},
		{"stdlib with brackets trims", StdlibHeader("<vector>"), []int{1}},
		{"verbatim matches spelling", VerbatimHeader("\"a.h\""), []int{0, 2}},
		{"builtin never matches", BuiltinHeader(), nil},
		{"main file never matches", MainFileHeader(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ri.Match(tt.header)
			var ords []int
			for _, inc := range got {
				ords = append(ords, inc.Ordinal)
			}
			if diff := cmp.Diff(tt.wantOrds, ords); diff != "" {
				t.Errorf("Match ordinals mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHeaderEqualityAndOrder(t *testing.T) {
	sm := source.NewSourceManager()
	fileA := sm.AddFile("a.h", "")

	if VerbatimHeader("x.h") != VerbatimHeader("x.h") {
		t.Error("verbatim headers must compare equal on spelling")
	}
	if StdlibHeader("vector") != StdlibHeader("vector") {
		t.Error("stdlib headers must compare equal on the logical name")
	}
	if PhysicalHeader(fileA) != PhysicalHeader(fileA) {
		t.Error("physical headers must compare equal on file identity")
	}

	// equal headers are identical map keys (equal hash)
	seen := map[Header]int{}
	seen[StdlibHeader("vector")]++
	seen[StdlibHeader("vector")]++
	if len(seen) != 1 || seen[StdlibHeader("vector")] != 2 {
		t.Errorf("map folding failed: %v", seen)
	}

	if compareHeaders(PhysicalHeader(fileA), StdlibHeader("vector")) >= 0 {
		t.Error("physical headers order before stdlib headers")
	}
	if compareHeaders(StdlibHeader("map"), StdlibHeader("set")) >= 0 {
		t.Error("stdlib headers order by name")
	}
	if compareHeaders(MainFileHeader(), MainFileHeader()) != 0 {
		t.Error("main-file headers compare equal")
	}
}
