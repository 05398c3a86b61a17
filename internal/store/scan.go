package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// EntryDir pairs a subdirectory name with its full path, for sweep iteration
// over a jobs/ or batches/ root.
type EntryDir struct {
	ID   string
	Path string
	Info os.FileInfo
}

// ListEntryDirs lists the immediate subdirectories of root, skipping files.
// A missing root yields an empty slice, not an error.
func ListEntryDirs(root string) ([]EntryDir, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("internal_error: list %s: %w", root, err)
	}

	dirs := make([]EntryDir, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, EntryDir{ID: entry.Name(), Path: filepath.Join(root, entry.Name()), Info: info})
	}
	return dirs, nil
}

// RemoveDir recursively deletes dir, best effort.
func RemoveDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}
