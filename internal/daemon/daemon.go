package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"transom/internal/asrworker"
	"transom/internal/config"
	"transom/internal/engine"
	"transom/internal/logging"
	"transom/internal/reaper"
	"transom/internal/registry"
)

// Daemon coordinates the background processing services and enforces
// single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	queue    *engine.Queue
	asr      *asrworker.Supervisor
	reaper   *reaper.Reaper
	cron     *cron.Cron
	registry *registry.Registry

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a Daemon with initialized dependencies. queue, asrSup, and
// rpr must already be constructed by the caller (cmd/mediad wires them).
func New(cfg *config.Config, logger *slog.Logger, reg *registry.Registry, queue *engine.Queue, asrSup *asrworker.Supervisor, rpr *reaper.Reaper) (*Daemon, error) {
	if cfg == nil || queue == nil || rpr == nil || reg == nil {
		return nil, errors.New("daemon requires config, registry, queue, and reaper")
	}

	lockPath := filepath.Join(cfg.Paths.TmpDir, "transomd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		queue:    queue,
		asr:      asrSup,
		reaper:   rpr,
		cron:     cron.New(),
		registry: reg,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the single-instance lock, runs the startup reaper sweep to
// seed the registry, starts the engine queue dispatch loop, and registers
// the periodic reaper sweep on the cron scheduler.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another transomd instance is already running")
	}

	jobs, batches := d.reaper.StartupSweep()
	for _, job := range jobs {
		d.registry.PutJob(job)
	}
	for _, batch := range batches {
		d.registry.PutBatch(batch)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	go d.queue.Run(runCtx)

	if _, err := d.reaper.Start(d.cron); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("schedule reaper: %w", err)
	}
	d.cron.Start()

	d.running.Store(true)
	d.logger.Info("transomd daemon started",
		logging.String("event_type", "daemon_started"), logging.String("lock", d.lockPath))
	return nil
}

// Stop halts the engine queue and reaper schedule and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	stopCtx := d.cron.Stop()
	<-stopCtx.Done()

	if d.asr != nil {
		d.asr.Shutdown()
	}

	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_unlock_failed", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("transomd daemon stopped", logging.String("event_type", "daemon_stopped"))
}
