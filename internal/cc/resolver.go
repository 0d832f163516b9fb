package cc

import (
	"os"
	"path"
	"path/filepath"
)

// FileResolver locates the file an include directive refers to. The
// returned name keys the source manager's file registry, so it must be
// stable across repeated resolutions of the same file.
type FileResolver interface {
	Resolve(spelled string, angled bool, includerDir string) (name string, content string, ok bool)
}

// PathResolver resolves includes against the real filesystem: quoted
// includes search the includer's directory first, then the include dirs;
// angled includes search the include dirs only.
type PathResolver struct {
	IncludeDirs []string
}

// Resolve implements FileResolver.
func (r *PathResolver) Resolve(spelled string, angled bool, includerDir string) (string, string, bool) {
	var dirs []string
	if !angled {
		dirs = append(dirs, includerDir)
	}
	dirs = append(dirs, r.IncludeDirs...)

	for _, dir := range dirs {
		candidate := filepath.Join(dir, filepath.FromSlash(spelled))
		content, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		return filepath.ToSlash(candidate), string(content), true
	}
	return "", "", false
}

// MemResolver resolves includes from an in-memory file map keyed by the
// spelled include target. Used by tests.
type MemResolver map[string]string

// Resolve implements FileResolver.
func (r MemResolver) Resolve(spelled string, angled bool, includerDir string) (string, string, bool) {
	if content, ok := r[spelled]; ok {
		return spelled, content, true
	}
	// quoted includes may be spelled relative to the includer
	if !angled {
		joined := path.Join(includerDir, spelled)
		if content, ok := r[joined]; ok {
			return joined, content, true
		}
	}
	return "", "", false
}
