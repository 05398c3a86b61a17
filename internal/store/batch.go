package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// BatchMetaName is the filename holding a batch's metadata within its directory.
const BatchMetaName = "batch.json"

// SaveBatch persists batch to dir/batch.json atomically.
func SaveBatch(dir string, batch *Batch) error {
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("internal_error: marshal batch: %w", err)
	}
	return writeMetaAtomic(dir, BatchMetaName, data)
}

// LoadBatch reads dir/batch.json, reconciling each item's artifacts against
// item subdirectories under items/<idx>/. A missing or malformed file is
// reported as "absent": (nil, nil).
func LoadBatch(dir string) (*Batch, error) {
	path := filepath.Join(dir, BatchMetaName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("internal_error: read batch metadata: %w", err)
	}

	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, nil
	}
	batch.ensureCancelFlag()

	batch.OutDir = dir
	for _, item := range batch.Items {
		if item == nil {
			continue
		}
		if item.Artifacts == nil {
			item.Artifacts = make(map[ArtifactKey]*Artifact)
		}
		reconcileArtifacts(ItemDir(dir, item.Idx), item.Artifacts)
	}
	return &batch, nil
}

// ItemDir returns the per-item working directory within a batch directory.
func ItemDir(batchDir string, idx int) string {
	return filepath.Join(batchDir, "items", fmt.Sprintf("%d", idx))
}

// InputsDir returns the directory holding materialized batch item inputs.
func InputsDir(batchDir string) string {
	return filepath.Join(batchDir, "inputs")
}
