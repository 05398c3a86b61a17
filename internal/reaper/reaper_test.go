package reaper_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"transom/internal/reaper"
	"transom/internal/registry"
	"transom/internal/store"
)

func TestSweepRemovesExpiredTerminalJob(t *testing.T) {
	reg := registry.New()
	dir := t.TempDir()
	past := time.Now().UTC().Add(-time.Minute)
	job := &store.Job{ID: "job-1", State: store.StateSucceeded, Phase: store.PhaseDone, OutDir: dir, ExpiresAt: &past}
	reg.PutJob(job)

	r := reaper.New(reg, t.TempDir(), t.TempDir(), time.Hour, nil)
	r.Sweep()

	if reg.Job("job-1") != nil {
		t.Fatalf("expected job removed from registry")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected job directory removed, stat err = %v", err)
	}
}

func TestSweepKeepsNonExpiredTerminalJob(t *testing.T) {
	reg := registry.New()
	dir := t.TempDir()
	future := time.Now().UTC().Add(time.Hour)
	job := &store.Job{ID: "job-2", State: store.StateSucceeded, Phase: store.PhaseDone, OutDir: dir, ExpiresAt: &future}
	reg.PutJob(job)

	r := reaper.New(reg, t.TempDir(), t.TempDir(), time.Hour, nil)
	r.Sweep()

	if reg.Job("job-2") == nil {
		t.Fatalf("expected non-expired job to remain")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected job directory to remain: %v", err)
	}
}

func TestSweepIgnoresNonTerminalJob(t *testing.T) {
	reg := registry.New()
	dir := t.TempDir()
	job := &store.Job{ID: "job-3", State: store.StateRunning, Phase: store.PhaseASR, OutDir: dir}
	reg.PutJob(job)

	r := reaper.New(reg, t.TempDir(), t.TempDir(), time.Hour, nil)
	r.Sweep()

	if reg.Job("job-3") == nil {
		t.Fatalf("expected running job to remain untouched")
	}
}

func TestStartupSweepFailsInterruptedJob(t *testing.T) {
	jobsRoot := t.TempDir()
	jobDir := filepath.Join(jobsRoot, "job-4")
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	job := &store.Job{ID: "job-4", State: store.StateRunning, Phase: store.PhaseASRConvert, OutDir: jobDir, CreatedAt: time.Now()}
	if err := store.SaveJob(jobDir, job); err != nil {
		t.Fatalf("save job: %v", err)
	}

	r := reaper.New(registry.New(), jobsRoot, t.TempDir(), time.Hour, nil)
	jobs, _ := r.StartupSweep()

	if len(jobs) != 1 {
		t.Fatalf("expected 1 surviving job, got %d", len(jobs))
	}
	loaded, err := store.LoadJob(jobDir)
	if err != nil || loaded == nil {
		t.Fatalf("load job: %v, %+v", err, loaded)
	}
	if loaded.State != store.StateFailed {
		t.Fatalf("expected failed, got %s", loaded.State)
	}
	if loaded.Error == nil || loaded.Error.Code != "internal_error" {
		t.Fatalf("expected internal_error, got %+v", loaded.Error)
	}
	if loaded.FinishedAt == nil || loaded.ExpiresAt == nil {
		t.Fatalf("expected finishedAt/expiresAt set")
	}
}

func TestStartupSweepDeletesExpiredTerminalJob(t *testing.T) {
	jobsRoot := t.TempDir()
	jobDir := filepath.Join(jobsRoot, "job-5")
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	past := time.Now().UTC().Add(-time.Minute)
	job := &store.Job{ID: "job-5", State: store.StateFailed, Phase: store.PhaseDone, OutDir: jobDir, ExpiresAt: &past}
	if err := store.SaveJob(jobDir, job); err != nil {
		t.Fatalf("save job: %v", err)
	}

	r := reaper.New(registry.New(), jobsRoot, t.TempDir(), time.Hour, nil)
	jobs, _ := r.StartupSweep()

	if len(jobs) != 0 {
		t.Fatalf("expected no surviving jobs, got %d", len(jobs))
	}
	if _, err := os.Stat(jobDir); !os.IsNotExist(err) {
		t.Fatalf("expected expired job dir removed, stat err = %v", err)
	}
}

func TestStartupSweepDeletesOldUnparseableDirectory(t *testing.T) {
	jobsRoot := t.TempDir()
	junkDir := filepath.Join(jobsRoot, "junk")
	if err := os.MkdirAll(junkDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(junkDir, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	r := reaper.New(registry.New(), jobsRoot, t.TempDir(), time.Hour, nil)
	r.StartupSweep()

	if _, err := os.Stat(junkDir); !os.IsNotExist(err) {
		t.Fatalf("expected old unparseable dir removed, stat err = %v", err)
	}
}

func TestStartupSweepKeepsRecentUnparseableDirectory(t *testing.T) {
	jobsRoot := t.TempDir()
	junkDir := filepath.Join(jobsRoot, "junk-recent")
	if err := os.MkdirAll(junkDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	r := reaper.New(registry.New(), jobsRoot, t.TempDir(), time.Hour, nil)
	r.StartupSweep()

	if _, err := os.Stat(junkDir); err != nil {
		t.Fatalf("expected recent unparseable dir kept: %v", err)
	}
}

func TestStartupSweepFailsInterruptedBatchItems(t *testing.T) {
	batchesRoot := t.TempDir()
	batchDir := filepath.Join(batchesRoot, "batch-1")
	if err := os.MkdirAll(batchDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	batch := &store.Batch{
		ID:    "batch-1",
		State: store.StateRunning,
		Phase: store.PhaseASR,
		Items: []*store.BatchItem{
			{Idx: 0, State: store.StateSucceeded, Phase: store.PhaseDone},
			{Idx: 1, State: store.StateRunning, Phase: store.PhaseASR},
			{Idx: 2, State: store.StateQueued, Phase: store.PhaseQueued},
		},
		OutDir: batchDir,
	}
	if err := store.SaveBatch(batchDir, batch); err != nil {
		t.Fatalf("save batch: %v", err)
	}

	r := reaper.New(registry.New(), t.TempDir(), batchesRoot, time.Hour, nil)
	_, batches := r.StartupSweep()

	if len(batches) != 1 {
		t.Fatalf("expected 1 surviving batch, got %d", len(batches))
	}
	loaded, err := store.LoadBatch(batchDir)
	if err != nil || loaded == nil {
		t.Fatalf("load batch: %v, %+v", err, loaded)
	}
	if loaded.State != store.StateFailed {
		t.Fatalf("expected batch failed, got %s", loaded.State)
	}
	if loaded.Items[0].State != store.StateSucceeded {
		t.Fatalf("expected already-succeeded item untouched, got %s", loaded.Items[0].State)
	}
	for _, idx := range []int{1, 2} {
		item := loaded.Items[idx]
		if item.State != store.StateFailed || item.Error == nil || item.Error.Code != "internal_error" {
			t.Fatalf("expected item %d failed with internal_error, got %+v", idx, item)
		}
	}
}
