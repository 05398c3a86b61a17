package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// JobMetaName is the filename holding a job's metadata within its directory.
const JobMetaName = "job.json"

// SaveJob persists job to dir/job.json atomically.
func SaveJob(dir string, job *Job) error {
	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("internal_error: marshal job: %w", err)
	}
	return writeMetaAtomic(dir, JobMetaName, data)
}

// LoadJob reads dir/job.json. A missing or malformed file is reported as
// "absent": (nil, nil). On success outDir is rewritten to dir and
// artifacts are reconciled against the filesystem.
func LoadJob(dir string) (*Job, error) {
	path := filepath.Join(dir, JobMetaName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("internal_error: read job metadata: %w", err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		// Malformed metadata is treated as absent, not a hard error, so the
		// caller can fall back to reaper/orphan handling.
		return nil, nil
	}

	job.OutDir = dir
	if job.Artifacts == nil {
		job.Artifacts = make(map[ArtifactKey]*Artifact)
	}
	reconcileArtifacts(job.OutDir, job.Artifacts)
	return &job, nil
}
