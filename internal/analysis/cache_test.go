package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CWBudde/go-include-cleaner/internal/source"
)

func TestSymbolCache_MacroIdentity(t *testing.T) {
	sm := source.NewSourceManager()
	f := sm.AddFile("main.cc", "#define FOO 1\n#undef FOO\n#define FOO 2\n")

	firstDef := sm.FileLoc(f, 8)
	secondDef := sm.FileLoc(f, 33)

	cache := newSymbolCache()

	a := cache.getMacro("FOO", firstDef)
	b := cache.getMacro("FOO", firstDef)
	assert.Same(t, a, b, "equal keys must intern to the same symbol")

	// redefinition under the same name is a distinct symbol
	c := cache.getMacro("FOO", secondDef)
	assert.NotSame(t, a, c)
	assert.Equal(t, "FOO", c.Name)

	// distinct names at the same location are distinct too
	d := cache.getMacro("BAR", firstDef)
	assert.NotSame(t, a, d)
}
