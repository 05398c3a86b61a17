package store

import "path/filepath"

// resolveUnder joins name under dir, taking only name's base component so a
// path persisted under a different host's outDir still resolves correctly
// after the directory is relocated.
func resolveUnder(dir, name string) string {
	return filepath.Join(dir, filepath.Base(name))
}
