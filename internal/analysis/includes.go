package analysis

import (
	"sort"
	"strings"

	"github.com/CWBudde/go-include-cleaner/internal/source"
)

// Include is one written #include directive in the main file.
type Include struct {
	// Spelled is the text between the delimiters, without the delimiters.
	Spelled string
	// Resolved is the file the preprocessor resolved, or nil.
	Resolved *source.File
	// HashLoc is the location of the leading '#'.
	HashLoc source.Loc
	// Line is the 1-based line number of the '#'.
	Line int
	// Angled is set for <...> directives.
	Angled bool
	// Keep is set when the directive carries a keep annotation.
	Keep bool

	// Ordinal is the directive's insertion position, assigned by Add.
	Ordinal int
}

// RecordedIncludes is the include table of the main file: all directives
// in textual order plus two secondary indices. Duplicates are preserved;
// the same spelling twice yields two entries and two ordinals.
type RecordedIncludes struct {
	all        []*Include
	bySpelling map[string][]int
	byFile     map[source.FileID][]int
}

// Add appends inc and updates both indices.
func (ri *RecordedIncludes) Add(inc *Include) {
	if ri.bySpelling == nil {
		ri.bySpelling = make(map[string][]int)
		ri.byFile = make(map[source.FileID][]int)
	}
	ordinal := len(ri.all)
	inc.Ordinal = ordinal
	ri.all = append(ri.all, inc)
	ri.bySpelling[inc.Spelled] = append(ri.bySpelling[inc.Spelled], ordinal)
	if inc.Resolved != nil {
		ri.byFile[inc.Resolved.ID] = append(ri.byFile[inc.Resolved.ID], ordinal)
	}
}

// All returns every directive in insertion order.
func (ri *RecordedIncludes) All() []*Include {
	return ri.all
}

// Match returns the directives satisfied by h, sorted by ordinal and
// deduplicated. Builtin and main-file headers never match anything.
func (ri *RecordedIncludes) Match(h Header) []*Include {
	var ordinals []int
	switch h.Kind {
	case HeaderPhysical:
		if h.File != nil {
			ordinals = ri.byFile[h.File.ID]
		}
	case HeaderStdlib:
		ordinals = ri.bySpelling[trimDelimiters(h.Std)]
	case HeaderVerbatim:
		ordinals = ri.bySpelling[trimDelimiters(h.Spelling)]
	case HeaderBuiltin, HeaderMainFile:
		return nil
	}
	if len(ordinals) == 0 {
		return nil
	}

	sorted := make([]int, len(ordinals))
	copy(sorted, ordinals)
	sort.Ints(sorted)

	out := make([]*Include, 0, len(sorted))
	prev := -1
	for _, ord := range sorted {
		if ord == prev {
			continue
		}
		prev = ord
		out = append(out, ri.all[ord])
	}
	return out
}

// trimDelimiters strips one layer of <...> or "..." from a spelling.
func trimDelimiters(s string) string {
	if len(s) >= 2 {
		if (s[0] == '<' && s[len(s)-1] == '>') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return strings.TrimSpace(s)
}
