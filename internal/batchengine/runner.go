package batchengine

import (
	"context"
	"log/slog"
	"time"

	"transom/internal/adapters"
	"transom/internal/apierr"
	"transom/internal/asrworker"
	"transom/internal/logging"
	"transom/internal/store"
)

// Deps bundles the engine adapters a Runner drives.
type Deps struct {
	Transcoder *adapters.Transcoder
	Separator  *adapters.Separator
	Packer     *adapters.Packer
	ASR        *asrworker.Supervisor
	TTL        time.Duration
	Logger     *slog.Logger
}

// Runner drives one batch through the stage-first algorithm.
type Runner struct {
	deps Deps
}

// New constructs a Runner.
func New(deps Deps) *Runner {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	deps.Logger = logging.NewComponentLogger(deps.Logger, "batch-engine")
	return &Runner{deps: deps}
}

// Run executes batch to completion. The batch record is persisted when the
// batch starts, when each stage begins, after each item's step within a
// stage, and when the batch terminates; phase changes made inside one item's
// step (asr_convert → asr, demucs → zip_demucs → zip_result) are not
// persisted on their own, only with the state the step ends in. Like
// jobengine.Runner.Run, batch-level and item-level failures are recorded on
// the record itself, and Run always returns nil.
func (r *Runner) Run(ctx context.Context, batch *store.Batch) error {
	logger := logging.WithContext(apierr.WithEntityID(ctx, batch.ID), r.deps.Logger)
	logger.Info("batch started", logging.String("event_type", "batch_started"), logging.Int("items", len(batch.Items)))

	now := time.Now().UTC()
	batch.State = store.StateRunning
	batch.StartedAt = &now
	batch.Phase = store.PhaseValidate
	r.persist(logger, batch)

	if batch.Options.Tasks.ASR {
		if r.runStage(ctx, logger, batch, store.PhaseASR, r.runItemASR) {
			r.finalize(logger, batch)
			return nil
		}
	}

	if batch.Options.Tasks.Demucs {
		if r.runStage(ctx, logger, batch, store.PhaseDemucs, r.runItemDemucs) {
			r.finalize(logger, batch)
			return nil
		}
	}

	r.finalize(logger, batch)
	return nil
}

// runStage walks items still queued, in index order, invoking step per item.
// It returns true if cancellation was observed and the batch has already
// been terminated as canceled.
func (r *Runner) runStage(ctx context.Context, logger *slog.Logger, batch *store.Batch, phase store.Phase, step func(context.Context, *slog.Logger, *store.Batch, *store.BatchItem)) bool {
	batch.Phase = phase
	r.persist(logger, batch)

	for _, item := range batch.Items {
		if item.State != store.StateQueued {
			continue
		}
		if batch.IsCancelRequested() {
			r.cancelRemainingQueued(batch)
			r.finalizeCanceled(logger, batch)
			return true
		}
		step(ctx, logger, batch, item)
		r.persist(logger, batch)
	}
	return false
}

func (r *Runner) persist(logger *slog.Logger, batch *store.Batch) {
	batch.CancelRequested = batch.IsCancelRequested()
	if err := store.SaveBatch(batch.OutDir, batch); err != nil {
		logging.ErrorWithContext(logger, "failed to persist batch", "batch_persist_failed", logging.Error(err))
	}
}

func (r *Runner) cancelRemainingQueued(batch *store.Batch) {
	for _, item := range batch.Items {
		if item.State == store.StateQueued {
			item.State = store.StateCanceled
			item.Phase = store.PhaseDone
			now := time.Now().UTC()
			item.FinishedAt = &now
		}
	}
}

func (r *Runner) finalizeCanceled(logger *slog.Logger, batch *store.Batch) {
	now := time.Now().UTC()
	batch.State = store.StateCanceled
	batch.Phase = store.PhaseDone
	batch.FinishedAt = &now
	expires := now.Add(r.deps.TTL)
	batch.ExpiresAt = &expires
	r.persist(logger, batch)
	logger.Info("batch canceled", logging.String("event_type", "batch_canceled"))
}

func (r *Runner) finalize(logger *slog.Logger, batch *store.Batch) {
	now := time.Now().UTC()
	counts := batch.CountItems()

	switch {
	case counts.Canceled > 0 && counts.Failed == 0:
		batch.State = store.StateCanceled
	case counts.Failed > 0:
		batch.State = store.StateFailed
	default:
		batch.State = store.StateSucceeded
	}
	batch.Phase = store.PhaseDone
	batch.FinishedAt = &now
	expires := now.Add(r.deps.TTL)
	batch.ExpiresAt = &expires
	r.persist(logger, batch)

	logger.Info("batch finished",
		logging.String("event_type", "batch_finished"),
		logging.String("state", string(batch.State)),
		logging.Int("succeeded", counts.Succeeded),
		logging.Int("failed", counts.Failed),
		logging.Int("canceled", counts.Canceled))
}
