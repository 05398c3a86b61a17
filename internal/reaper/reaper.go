package reaper

import (
	"log/slog"
	"time"

	"transom/internal/logging"
	"transom/internal/registry"
	"transom/internal/store"
)

// Reaper periodically removes expired job/batch records and their
// directories, and on startup reconciles whatever was left on disk by an
// unclean shutdown.
type Reaper struct {
	reg         *registry.Registry
	jobsRoot    string
	batchesRoot string
	ttl         time.Duration
	logger      *slog.Logger
}

// New constructs a Reaper. jobsRoot/batchesRoot are the persistence roots
// swept on startup; reg is the in-memory table swept on every tick.
func New(reg *registry.Registry, jobsRoot, batchesRoot string, ttl time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{
		reg:         reg,
		jobsRoot:    jobsRoot,
		batchesRoot: batchesRoot,
		ttl:         ttl,
		logger:      logging.NewComponentLogger(logger, "reaper"),
	}
}

// Sweep runs one periodic pass: any terminal record whose expiresAt is past
// is dropped from memory and its outDir recursively removed, best effort.
func (r *Reaper) Sweep() {
	now := time.Now().UTC()
	removed := 0

	for _, job := range r.reg.JobsSnapshot() {
		if isExpired(job.State.Terminal(), job.ExpiresAt, now) {
			r.reg.RemoveJob(job.ID)
			if err := store.RemoveDir(job.OutDir); err != nil {
				logging.WarnWithContext(r.logger, "failed to remove expired job directory", "reap_job_dir_failed",
					logging.String("job_id", job.ID), logging.Error(err))
			}
			removed++
		}
	}

	for _, batch := range r.reg.BatchesSnapshot() {
		if isExpired(batch.State.Terminal(), batch.ExpiresAt, now) {
			r.reg.RemoveBatch(batch.ID)
			if err := store.RemoveDir(batch.OutDir); err != nil {
				logging.WarnWithContext(r.logger, "failed to remove expired batch directory", "reap_batch_dir_failed",
					logging.String("batch_id", batch.ID), logging.Error(err))
			}
			removed++
		}
	}

	if removed > 0 {
		r.logger.Info("reaper sweep removed expired records",
			logging.String("event_type", "reaper_sweep"), logging.Int("removed", removed))
	}
}

func isExpired(terminal bool, expiresAt *time.Time, now time.Time) bool {
	return terminal && expiresAt != nil && expiresAt.Before(now)
}

// StartupSweep walks the jobs and batches persistence roots once, before
// anything is loaded into the registry. Parseable expired entries are
// deleted outright; parseable entries left queued/running are marked failed
// with an internal_error noting the restart (no resume) and persisted back
// to disk; unparseable directories older than the TTL are deleted by mtime.
// It returns the surviving, non-expired job and batch records so the caller
// can seed the registry with them.
func (r *Reaper) StartupSweep() ([]*store.Job, []*store.Batch) {
	now := time.Now().UTC()

	jobs := r.startupSweepJobs(now)
	batches := r.startupSweepBatches(now)
	return jobs, batches
}

func (r *Reaper) startupSweepJobs(now time.Time) []*store.Job {
	entries, err := store.ListEntryDirs(r.jobsRoot)
	if err != nil {
		logging.ErrorWithContext(r.logger, "failed to list jobs root", "reaper_startup_list_failed", logging.Error(err))
		return nil
	}

	var survivors []*store.Job
	for _, entry := range entries {
		job, err := store.LoadJob(entry.Path)
		if err != nil || job == nil {
			r.reapUnparseable(entry, now)
			continue
		}

		if job.State.Terminal() {
			if job.ExpiresAt != nil && job.ExpiresAt.Before(now) {
				removeEntry(r.logger, entry.Path, "job")
				continue
			}
			survivors = append(survivors, job)
			continue
		}

		r.failInterrupted(job)
		survivors = append(survivors, job)
	}
	return survivors
}

func (r *Reaper) startupSweepBatches(now time.Time) []*store.Batch {
	entries, err := store.ListEntryDirs(r.batchesRoot)
	if err != nil {
		logging.ErrorWithContext(r.logger, "failed to list batches root", "reaper_startup_list_failed", logging.Error(err))
		return nil
	}

	var survivors []*store.Batch
	for _, entry := range entries {
		batch, err := store.LoadBatch(entry.Path)
		if err != nil || batch == nil {
			r.reapUnparseable(entry, now)
			continue
		}

		if batch.State.Terminal() {
			if batch.ExpiresAt != nil && batch.ExpiresAt.Before(now) {
				removeEntry(r.logger, entry.Path, "batch")
				continue
			}
			survivors = append(survivors, batch)
			continue
		}

		r.failInterruptedBatch(batch)
		survivors = append(survivors, batch)
	}
	return survivors
}

func (r *Reaper) failInterrupted(job *store.Job) {
	now := time.Now().UTC()
	job.State = store.StateFailed
	job.Phase = store.PhaseError
	job.FinishedAt = &now
	expires := now.Add(r.ttl)
	job.ExpiresAt = &expires
	job.Error = &store.ErrorInfo{
		Code:    "internal_error",
		Message: "interrupted by server restart",
	}
	if err := store.SaveJob(job.OutDir, job); err != nil {
		logging.ErrorWithContext(r.logger, "failed to persist interrupted job", "reaper_persist_failed",
			logging.String("job_id", job.ID), logging.Error(err))
	}
	logging.WarnWithContext(r.logger, "job interrupted by restart", "reaper_job_interrupted",
		logging.String("job_id", job.ID))
}

func (r *Reaper) failInterruptedBatch(batch *store.Batch) {
	now := time.Now().UTC()
	for _, item := range batch.Items {
		if item.State == store.StateQueued || item.State == store.StateRunning {
			item.State = store.StateFailed
			item.Phase = store.PhaseError
			item.FinishedAt = &now
			item.Error = &store.ErrorInfo{
				Code:    "internal_error",
				Message: "interrupted by server restart",
			}
		}
	}
	batch.State = store.StateFailed
	batch.Phase = store.PhaseError
	batch.FinishedAt = &now
	expires := now.Add(r.ttl)
	batch.ExpiresAt = &expires
	batch.Error = &store.ErrorInfo{
		Code:    "internal_error",
		Message: "interrupted by server restart",
	}
	if err := store.SaveBatch(batch.OutDir, batch); err != nil {
		logging.ErrorWithContext(r.logger, "failed to persist interrupted batch", "reaper_persist_failed",
			logging.String("batch_id", batch.ID), logging.Error(err))
	}
	logging.WarnWithContext(r.logger, "batch interrupted by restart", "reaper_batch_interrupted",
		logging.String("batch_id", batch.ID))
}

func (r *Reaper) reapUnparseable(entry store.EntryDir, now time.Time) {
	if now.Sub(entry.Info.ModTime()) < r.ttl {
		return
	}
	removeEntry(r.logger, entry.Path, "unparseable")
}

func removeEntry(logger *slog.Logger, path, kind string) {
	if err := store.RemoveDir(path); err != nil {
		logging.WarnWithContext(logger, "failed to remove stale directory", "reaper_startup_remove_failed",
			logging.String("kind", kind), logging.String("path", path), logging.Error(err))
	}
}
