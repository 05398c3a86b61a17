package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// writeMetaAtomic commits the already-serialized data into dir/name via a
// temp-file-then-rename sequence. If the rename fails because name already
// exists, the existing file is removed and the rename retried once.
func writeMetaAtomic(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	target := filepath.Join(dir, name)
	tmp := filepath.Join(dir, fmt.Sprintf("%s.tmp.%s", name, uuid.NewString()))

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("io_error: write temp metadata: %w", err)
	}

	if err := os.Rename(tmp, target); err != nil {
		if os.IsExist(err) {
			if rmErr := os.Remove(target); rmErr != nil {
				os.Remove(tmp)
				return fmt.Errorf("io_error: remove existing metadata: %w", rmErr)
			}
			if err := os.Rename(tmp, target); err != nil {
				os.Remove(tmp)
				return fmt.Errorf("io_error: rename metadata (retry): %w", err)
			}
			return nil
		}
		os.Remove(tmp)
		return fmt.Errorf("io_error: rename metadata: %w", err)
	}
	return nil
}
