package jobengine

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

// Runner drives one job through its stage sequence.
type Runner struct {
	deps Deps
}

// New constructs a Runner.
func New(deps Deps) *Runner {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	deps.Logger = logging.NewComponentLogger(deps.Logger, "job-engine")
	return &Runner{deps: deps}
}

// Run executes job to completion, persisting after every transition. Run
// itself never returns an error for a job-level failure: failures are
// recorded on the job record per §7, and Run returns nil so the submitting
// engine queue task is considered complete. An unknown job type is recorded
// the same way, as a bad_request failure; Run always returns nil.
func (r *Runner) Run(ctx context.Context, job *store.Job) error {
	logger := logging.WithContext(apierr.WithEntityID(ctx, job.ID), r.deps.Logger)
	logger.Info("job started", logging.String("event_type", "job_started"), logging.String("type", string(job.Type)))

	now := time.Now().UTC()
	job.State = store.StateRunning
	job.StartedAt = &now
	if job.Artifacts == nil {
		job.Artifacts = make(map[store.ArtifactKey]*store.Artifact)
	}

	var err error
	switch job.Type {
	case store.JobTypeASR:
		job.Phase = store.PhaseASRConvert
		r.persist(logger, job)
		err = r.runASR(ctx, logger, job)
	case store.JobTypeDemucs:
		job.Phase = store.PhaseDemucs
		r.persist(logger, job)
		err = r.runDemucs(ctx, logger, job)
	case store.JobTypeASRDemucs:
		job.Phase = store.PhaseASRConvert
		r.persist(logger, job)
		err = r.runASRDemucs(ctx, logger, job)
	default:
		err = apierr.New(apierr.CodeBadRequest, "unknown job type")
	}

	if err != nil {
		r.finalizeFailure(logger, job, err)
	} else {
		r.finalizeSuccess(logger, job)
	}
	r.cleanupOwnedInput(logger, job)
	r.persist(logger, job)

	logger.Info("job finished",
		logging.String("event_type", "job_finished"),
		logging.String("state", string(job.State)))
	return nil
}

func (r *Runner) persist(logger *slog.Logger, job *store.Job) {
	if err := store.SaveJob(job.OutDir, job); err != nil {
		logging.ErrorWithContext(logger, "failed to persist job", "job_persist_failed", logging.Error(err))
	}
}

func (r *Runner) finalizeSuccess(logger *slog.Logger, job *store.Job) {
	now := time.Now().UTC()
	job.State = store.StateSucceeded
	job.Phase = store.PhaseDone
	job.FinishedAt = &now
	expires := now.Add(r.deps.TTL)
	job.ExpiresAt = &expires
}

func (r *Runner) finalizeFailure(logger *slog.Logger, job *store.Job, err error) {
	now := time.Now().UTC()
	job.State = store.StateFailed
	job.Phase = store.PhaseError
	job.FinishedAt = &now
	expires := now.Add(r.deps.TTL)
	job.ExpiresAt = &expires
	detail := apierr.DetailFor(err)
	job.Error = &store.ErrorInfo{Code: string(detail.Code), Message: detail.Message, Details: detail.Details}

	logging.ErrorWithContext(logger, "job failed", "job_failed",
		logging.String("code", string(detail.Code)),
		logging.Error(err))
}

func (r *Runner) cleanupOwnedInput(logger *slog.Logger, job *store.Job) {
	if !job.CleanupAudioOnFinish || job.AudioPath == "" {
		return
	}
	if err := removeBestEffort(job.AudioPath); err != nil {
		logging.WarnWithContext(logger, "failed to remove owned input", "owned_input_cleanup_failed", logging.Error(err))
	}
}
