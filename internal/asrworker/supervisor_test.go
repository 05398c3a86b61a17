package asrworker_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"transom/internal/apierr"
	"transom/internal/asrworker"
)

func writeFakeWorker(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-worker.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write fake worker: %v", err)
	}
	return path
}

const okWorkerBody = `echo '{"type":"ready","pid":1,"device":"cpu"}'
while IFS= read -r line; do
  id=$(printf '%s' "$line" | sed -n 's/.*"id":\([0-9]*\).*/\1/p')
  echo '{"type":"result","id":'"$id"',"ok":true,"srtPath":"/tmp/fake.srt"}'
done
`

const failWorkerBody = `echo '{"type":"ready","pid":1,"device":"cpu"}'
while IFS= read -r line; do
  id=$(printf '%s' "$line" | sed -n 's/.*"id":\([0-9]*\).*/\1/p')
  echo '{"type":"result","id":'"$id"',"ok":false,"error":"model exploded"}'
done
`

const crashWorkerBody = `exit 7
`

func TestRecognizeSpawnsAndReturnsResult(t *testing.T) {
	worker := writeFakeWorker(t, okWorkerBody)
	sup := asrworker.New(asrworker.Config{
		Binary:              worker,
		StartupTimeout:      2 * time.Second,
		RequestTimeout:      2 * time.Second,
		IdleShutdownSeconds: 300,
	}, nil)

	result, err := sup.Recognize(context.Background(), "/tmp/in.wav", "/tmp/out", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SRTPath != "/tmp/fake.srt" {
		t.Fatalf("unexpected srt path: %q", result.SRTPath)
	}
	if sup.State() != asrworker.StateReady {
		t.Fatalf("expected ready state, got %s", sup.State())
	}
}

func TestRecognizeFailureClassifiesEngineError(t *testing.T) {
	worker := writeFakeWorker(t, failWorkerBody)
	sup := asrworker.New(asrworker.Config{
		Binary:              worker,
		StartupTimeout:      2 * time.Second,
		RequestTimeout:      2 * time.Second,
		IdleShutdownSeconds: 300,
	}, nil)

	_, err := sup.Recognize(context.Background(), "/tmp/in.wav", "/tmp/out", 0, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, apierr.ErrEngine) {
		t.Fatalf("expected engine_error classification, got %v", err)
	}
}

func TestRecognizeCrashBeforeReadySurfacesEngineError(t *testing.T) {
	worker := writeFakeWorker(t, crashWorkerBody)
	sup := asrworker.New(asrworker.Config{
		Binary:              worker,
		StartupTimeout:      1 * time.Second,
		RequestTimeout:      1 * time.Second,
		IdleShutdownSeconds: 300,
	}, nil)

	_, err := sup.Recognize(context.Background(), "/tmp/in.wav", "/tmp/out", 0, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, apierr.ErrEngine) {
		t.Fatalf("expected engine_error classification, got %v", err)
	}
	if sup.State() != asrworker.StateDown {
		t.Fatalf("expected down state after crash, got %s", sup.State())
	}
}

// crashOnceThenSucceedBody answers ready, reads (and discards) exactly one
// request, then exits without replying — simulating a worker dying
// mid-dispatch. A respawned instance, detected via a marker file dropped
// next to the script, behaves like okWorkerBody instead.
const crashOnceThenSucceedBody = `dir=$(dirname "$0")
marker="$dir/spawned-once"
if [ -f "$marker" ]; then
  echo '{"type":"ready","pid":2,"device":"cpu"}'
  while IFS= read -r line; do
    id=$(printf '%s' "$line" | sed -n 's/.*"id":\([0-9]*\).*/\1/p')
    echo '{"type":"result","id":'"$id"',"ok":true,"srtPath":"/tmp/respawned.srt"}'
  done
else
  touch "$marker"
  echo '{"type":"ready","pid":1,"device":"cpu"}'
  read -r line
  exit 9
fi
`

// crashEveryTimeBody answers ready and then exits the moment it receives a
// request, on every invocation — used to exercise the "died twice" path.
const crashEveryTimeBody = `echo '{"type":"ready","pid":1,"device":"cpu"}'
read -r line
exit 9
`

func TestRecognizeRespawnsOnceAfterMidFlightCrashThenSucceeds(t *testing.T) {
	worker := writeFakeWorker(t, crashOnceThenSucceedBody)
	sup := asrworker.New(asrworker.Config{
		Binary:              worker,
		StartupTimeout:      2 * time.Second,
		RequestTimeout:      2 * time.Second,
		IdleShutdownSeconds: 300,
	}, nil)

	result, err := sup.Recognize(context.Background(), "/tmp/in.wav", "/tmp/out", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SRTPath != "/tmp/respawned.srt" {
		t.Fatalf("unexpected srt path: %q", result.SRTPath)
	}
	if sup.State() != asrworker.StateReady {
		t.Fatalf("expected ready state after respawn, got %s", sup.State())
	}
}

func TestRecognizeFailsAfterSecondMidFlightCrash(t *testing.T) {
	worker := writeFakeWorker(t, crashEveryTimeBody)
	sup := asrworker.New(asrworker.Config{
		Binary:              worker,
		StartupTimeout:      2 * time.Second,
		RequestTimeout:      2 * time.Second,
		IdleShutdownSeconds: 300,
	}, nil)

	_, err := sup.Recognize(context.Background(), "/tmp/in.wav", "/tmp/out", 0, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, apierr.ErrEngine) {
		t.Fatalf("expected engine_error classification, got %v", err)
	}
}

// okWithOrphanResultBody answers a bogus result for an id no caller is
// waiting on before answering the real request, exercising the orphan
// discard branch in readStdout.
const okWithOrphanResultBody = `echo '{"type":"ready","pid":1,"device":"cpu"}'
while IFS= read -r line; do
  id=$(printf '%s' "$line" | sed -n 's/.*"id":\([0-9]*\).*/\1/p')
  echo '{"type":"result","id":999999,"ok":true,"srtPath":"/tmp/orphan.srt"}'
  echo '{"type":"result","id":'"$id"',"ok":true,"srtPath":"/tmp/real.srt"}'
done
`

func TestRecognizeDiscardsOrphanResultWithoutCorruptingPendingMap(t *testing.T) {
	worker := writeFakeWorker(t, okWithOrphanResultBody)
	sup := asrworker.New(asrworker.Config{
		Binary:              worker,
		StartupTimeout:      2 * time.Second,
		RequestTimeout:      2 * time.Second,
		IdleShutdownSeconds: 300,
	}, nil)

	result, err := sup.Recognize(context.Background(), "/tmp/in.wav", "/tmp/out", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SRTPath != "/tmp/real.srt" {
		t.Fatalf("orphan result leaked into real response: got %q", result.SRTPath)
	}

	// A second request confirms the pending map is still healthy after the
	// orphan was discarded, not left holding a stale or duplicate entry.
	result, err = sup.Recognize(context.Background(), "/tmp/in.wav", "/tmp/out", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error on second request: %v", err)
	}
	if result.SRTPath != "/tmp/real.srt" {
		t.Fatalf("unexpected srt path on second request: %q", result.SRTPath)
	}
}
