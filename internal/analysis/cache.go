package analysis

import "github.com/CWBudde/go-include-cleaner/internal/source"

// Macro identifies one macro definition. Two definitions of the same name
// at different locations are distinct macros.
type Macro struct {
	Name   string
	DefLoc source.Loc
}

type macroKey struct {
	name string
	loc  source.Loc
}

// symbolCache deduplicates macro symbols by (name, definition-location).
// The table is append-only: a repeated query with an equal key returns
// the same *Macro identity.
type symbolCache struct {
	macros map[macroKey]*Macro
}

func newSymbolCache() *symbolCache {
	return &symbolCache{macros: make(map[macroKey]*Macro)}
}

// getMacro interns the macro identified by name and its definition
// location.
func (c *symbolCache) getMacro(name string, defLoc source.Loc) *Macro {
	key := macroKey{name: name, loc: defLoc}
	if m, ok := c.macros[key]; ok {
		return m
	}
	m := &Macro{Name: name, DefLoc: defLoc}
	c.macros[key] = m
	return m
}
