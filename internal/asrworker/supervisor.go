package asrworker

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"transom/internal/apierr"
	"transom/internal/logging"
)

// errWorkerDied is the internal sentinel used to detect a mid-flight crash so
// Recognize can apply its one-shot respawn-and-retry policy. It never
// escapes Recognize.
var errWorkerDied = errors.New("asr worker process died")

// Config configures timeouts for spawning and talking to the worker.
type Config struct {
	Binary                 string
	StartupTimeout         time.Duration
	RequestTimeout         time.Duration
	IdleShutdownSeconds    int
}

// Supervisor manages a single long-lived recognizer subprocess.
type Supervisor struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	readyCh chan readyMessage
	exited  chan struct{}

	nextID  int64
	pending map[int64]chan resultMessage
}

// New constructs a Supervisor. The worker is not spawned until the first
// Recognize call.
func New(cfg Config, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "asr-worker"),
		state:   StateDown,
		pending: make(map[int64]chan resultMessage),
	}
}

// State reports the current supervisor state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Recognize dispatches a recognize request, spawning the worker if necessary,
// and returns the normalized result. A mid-flight process death is retried
// exactly once.
func (s *Supervisor) Recognize(ctx context.Context, audioPath, outDir string, vadMaxSingleSegmentMs, vadMaxEndSilenceMs int) (Result, error) {
	result, err := s.dispatch(ctx, audioPath, outDir, vadMaxSingleSegmentMs, vadMaxEndSilenceMs)
	if err != nil && errors.Is(err, errWorkerDied) {
		s.logger.Warn("asr worker died mid-request, retrying once",
			logging.String("event_type", "asr_worker_retry"))
		result, err = s.dispatch(ctx, audioPath, outDir, vadMaxSingleSegmentMs, vadMaxEndSilenceMs)
		if err != nil && errors.Is(err, errWorkerDied) {
			return Result{}, apierr.Wrap(apierr.ErrEngine, "asr", "recognize", "worker died twice", err)
		}
	}
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func (s *Supervisor) dispatch(ctx context.Context, audioPath, outDir string, vadMaxSingleSegmentMs, vadMaxEndSilenceMs int) (Result, error) {
	if err := s.ensureReady(ctx); err != nil {
		return Result{}, err
	}

	id := atomic.AddInt64(&s.nextID, 1)
	respCh := make(chan resultMessage, 1)

	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return Result{}, errWorkerDied
	}
	s.pending[id] = respCh
	stdin := s.stdin
	exited := s.exited
	s.mu.Unlock()

	req := Request{
		Type:                  "asr",
		ID:                    id,
		AudioPath:             audioPath,
		OutDir:                outDir,
		VADMaxSingleSegmentMs: vadMaxSingleSegmentMs,
		VADMaxEndSilenceMs:    vadMaxEndSilenceMs,
	}
	data, err := json.Marshal(req)
	if err != nil {
		s.dropPending(id)
		return Result{}, apierr.Wrap(apierr.ErrInternal, "asr", "recognize", "marshal request", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	_, writeErr := stdin.Write(data)
	s.mu.Unlock()
	if writeErr != nil {
		s.dropPending(id)
		return Result{}, errWorkerDied
	}

	timeout := s.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-respCh:
		if !msg.OK {
			detail := msg.Error
			if detail == "" {
				detail = "recognizer reported failure"
			}
			return Result{}, apierr.Wrap(apierr.ErrEngine, "asr", "recognize", detail, nil)
		}
		return Result{SRTPath: msg.SRTPath}, nil
	case <-exited:
		s.dropPending(id)
		return Result{}, errWorkerDied
	case <-ctx.Done():
		s.dropPending(id)
		return Result{}, ctx.Err()
	case <-timer.C:
		s.dropPending(id)
		return Result{}, apierr.Wrap(apierr.ErrEngine, "asr", "recognize", "request timed out", nil)
	}
}

// Shutdown terminates the worker process if one is running. It is safe to
// call when the worker is already down. The state moves to dying before the
// kill signal is sent; awaitExit observes the process exit and moves it on
// to down once the OS has reaped it.
func (s *Supervisor) Shutdown() error {
	s.mu.Lock()
	cmd := s.cmd
	if cmd != nil && cmd.Process != nil {
		s.state = StateDying
	}
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

func (s *Supervisor) dropPending(id int64) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

// ensureReady spawns the worker if down, and waits for readiness if starting.
func (s *Supervisor) ensureReady(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateReady:
		s.mu.Unlock()
		return nil
	case StateStarting:
		readyCh := s.readyCh
		s.mu.Unlock()
		return s.awaitReady(ctx, readyCh)
	default: // down or dying: spawn fresh
		readyCh := make(chan readyMessage, 1)
		s.readyCh = readyCh
		s.state = StateStarting
		s.mu.Unlock()

		if err := s.spawn(); err != nil {
			s.mu.Lock()
			s.state = StateDown
			s.mu.Unlock()
			return apierr.Wrap(apierr.ErrEngine, "asr", "spawn", "failed to start asr worker", err)
		}
		return s.awaitReady(ctx, readyCh)
	}
}

func (s *Supervisor) awaitReady(ctx context.Context, readyCh chan readyMessage) error {
	timeout := s.cfg.StartupTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	s.mu.Lock()
	exited := s.exited
	s.mu.Unlock()

	select {
	case <-readyCh:
		return nil
	case <-exited:
		return apierr.Wrap(apierr.ErrEngine, "asr", "spawn", "worker exited before becoming ready", nil)
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return apierr.Wrap(apierr.ErrEngine, "asr", "spawn", "worker did not become ready in time", nil)
	}
}

func (s *Supervisor) spawn() error {
	args := []string{"--idle-seconds", strconv.Itoa(s.cfg.IdleShutdownSeconds)}
	cmd := exec.Command(s.cfg.Binary, args...) //nolint:gosec

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	exited := make(chan struct{})

	s.mu.Lock()
	s.cmd = cmd
	s.stdin = stdin
	s.exited = exited
	s.mu.Unlock()

	go s.readStdout(stdout)
	go s.readStderr(stderr)
	go s.awaitExit(cmd, exited)

	return nil
}

func (s *Supervisor) readStdout(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		var env envelope
		if err := json.Unmarshal(line, &env); err != nil {
			continue
		}
		switch env.Type {
		case "ready":
			var ready readyMessage
			if err := json.Unmarshal(line, &ready); err != nil {
				continue
			}
			s.mu.Lock()
			if s.state == StateStarting {
				s.state = StateReady
			}
			readyCh := s.readyCh
			s.mu.Unlock()
			if readyCh != nil {
				select {
				case readyCh <- ready:
				default:
					// Already consumed by an earlier waiter; readiness is
					// one-shot from the worker's point of view.
				}
			}
		case "result":
			var result resultMessage
			if err := json.Unmarshal(line, &result); err != nil {
				continue
			}
			s.mu.Lock()
			ch, ok := s.pending[result.ID]
			if ok {
				delete(s.pending, result.ID)
			}
			s.mu.Unlock()
			if ok {
				ch <- result
			}
			// Orphan responses (no matching pending id) are discarded.
		}
	}
}

func (s *Supervisor) readStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 8*1024), 64*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) > 2048 {
			line = line[:2048]
		}
		s.logger.Debug("asr worker stderr", logging.String("line", line))
	}
}

func (s *Supervisor) awaitExit(cmd *exec.Cmd, exited chan struct{}) {
	err := cmd.Wait()

	s.mu.Lock()
	wasStarting := s.state == StateStarting
	s.state = StateDown
	pending := s.pending
	s.pending = make(map[int64]chan resultMessage)
	s.mu.Unlock()

	close(exited)

	if err != nil && !wasStarting {
		s.logger.Info("asr worker exited",
			logging.String("event_type", "asr_worker_exited"),
			logging.Error(err))
	}
	// Pending requests are not individually notified here: each dispatch
	// call also selects on the exited channel, which is the signal that
	// drives its errWorkerDied path.
	_ = pending
}
