package jobengine_test

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"transom/internal/adapters"
	"transom/internal/asrworker"
	"transom/internal/jobengine"
	"transom/internal/store"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script %s: %v", name, err)
	}
	return path
}

const fakeFFmpegBody = `eval last=\${$#}
printf 'fake-wav' > "$last"
exit 0
`

const fakeDemucsBody = `outdir=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then outdir="$2"; fi
  shift
done
mkdir -p "$outdir/track"
printf v > "$outdir/track/vocals.mp3"
printf n > "$outdir/track/no_vocals.mp3"
exit 0
`

const fakeASRWorkerBody = `echo '{"type":"ready","pid":1}'
while IFS= read -r line; do
  id=$(printf '%s' "$line" | sed -n 's/.*"id":\([0-9]*\).*/\1/p')
  outdir=$(printf '%s' "$line" | sed -n 's/.*"outDir":"\([^"]*\)".*/\1/p')
  srt="$outdir/worker_output.srt"
  printf '1\n00:00:00,000 --> 00:00:01,000\nhello\n\n' > "$srt"
  echo '{"type":"result","id":'"$id"',"ok":true,"srtPath":"'"$srt"'"}'
done
`

func newRunner(t *testing.T, binDir string) *jobengine.Runner {
	t.Helper()
	ffmpeg := writeScript(t, binDir, "ffmpeg", fakeFFmpegBody)
	demucs := writeScript(t, binDir, "demucs", fakeDemucsBody)
	worker := writeScript(t, binDir, "asr-worker", fakeASRWorkerBody)

	return jobengine.New(jobengine.Deps{
		Transcoder: adapters.NewTranscoder(ffmpeg),
		Separator:  adapters.NewSeparator(demucs, 256, 2),
		Packer:     adapters.NewPacker("zip"),
		ASR: asrworker.New(asrworker.Config{
			Binary:              worker,
			StartupTimeout:      2 * time.Second,
			RequestTimeout:      2 * time.Second,
			IdleShutdownSeconds: 300,
		}, nil),
		TTL: time.Hour,
	})
}

func newJob(t *testing.T, jobType store.JobType) (*store.Job, string) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "input.wav")
	if err := os.WriteFile(input, []byte("original audio"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	job := &store.Job{
		ID:                   "job-under-test",
		Type:                 jobType,
		State:                store.StateQueued,
		Phase:                store.PhaseQueued,
		CreatedAt:            time.Now(),
		OutDir:               dir,
		Source:               store.SourceUpload,
		AudioPath:            input,
		CleanupAudioOnFinish: true,
		Artifacts:            map[store.ArtifactKey]*store.Artifact{},
	}
	return job, dir
}

func TestRunASRPublishesSRT(t *testing.T) {
	binDir := t.TempDir()
	runner := newRunner(t, binDir)
	job, _ := newJob(t, store.JobTypeASR)

	if err := runner.Run(context.Background(), job); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if job.State != store.StateSucceeded {
		t.Fatalf("expected succeeded, got %s (error=%+v)", job.State, job.Error)
	}
	srt := job.Artifacts[store.ArtifactSRT]
	if srt == nil || !srt.Ready {
		t.Fatal("expected srt artifact ready")
	}
	if job.FinishedAt == nil || job.ExpiresAt == nil {
		t.Fatal("expected finishedAt/expiresAt set on terminal job")
	}
	if _, err := os.Stat(job.AudioPath); !os.IsNotExist(err) {
		t.Fatal("expected owned input to be deleted on finish")
	}
}

func TestRunDemucsPublishesStemsAndZip(t *testing.T) {
	binDir := t.TempDir()
	runner := newRunner(t, binDir)
	job, _ := newJob(t, store.JobTypeDemucs)

	if err := runner.Run(context.Background(), job); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if job.State != store.StateSucceeded {
		t.Fatalf("expected succeeded, got %s (error=%+v)", job.State, job.Error)
	}
	for _, key := range []store.ArtifactKey{store.ArtifactVocals, store.ArtifactNoVocals, store.ArtifactDemucsZip} {
		if a := job.Artifacts[key]; a == nil || !a.Ready {
			t.Fatalf("expected %s artifact ready, got %+v", key, a)
		}
	}
}

func TestRunASRDemucsProducesResultZipWithAllThreeEntries(t *testing.T) {
	binDir := t.TempDir()
	runner := newRunner(t, binDir)
	job, _ := newJob(t, store.JobTypeASRDemucs)

	if err := runner.Run(context.Background(), job); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if job.State != store.StateSucceeded {
		t.Fatalf("expected succeeded, got %s (error=%+v)", job.State, job.Error)
	}

	resultZip := job.Artifacts[store.ArtifactResultZip]
	if resultZip == nil || !resultZip.Ready {
		t.Fatal("expected result_zip artifact ready")
	}

	r, err := zip.OpenReader(resultZip.Path)
	if err != nil {
		t.Fatalf("open result zip: %v", err)
	}
	defer r.Close()

	names := map[string]bool{}
	for _, f := range r.File {
		names[f.Name] = true
	}
	for _, want := range []string{"output.srt", "vocals.mp3", "no_vocals.mp3"} {
		if !names[want] {
			t.Fatalf("expected result.zip to contain %s, got %v", want, names)
		}
	}
}

func TestRunFailureRecordsErrorAndLeavesEarlierArtifacts(t *testing.T) {
	binDir := t.TempDir()
	ffmpeg := writeScript(t, binDir, "ffmpeg", fakeFFmpegBody)
	worker := writeScript(t, binDir, "asr-worker", fakeASRWorkerBody)
	failingDemucs := writeScript(t, binDir, "demucs", "echo boom 1>&2\nexit 1\n")

	runner := jobengine.New(jobengine.Deps{
		Transcoder: adapters.NewTranscoder(ffmpeg),
		Separator:  adapters.NewSeparator(failingDemucs, 256, 2),
		Packer:     adapters.NewPacker("zip"),
		ASR: asrworker.New(asrworker.Config{
			Binary:              worker,
			StartupTimeout:      2 * time.Second,
			RequestTimeout:      2 * time.Second,
			IdleShutdownSeconds: 300,
		}, nil),
		TTL: time.Hour,
	})

	job, _ := newJob(t, store.JobTypeASRDemucs)
	if err := runner.Run(context.Background(), job); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if job.State != store.StateFailed {
		t.Fatalf("expected failed, got %s", job.State)
	}
	if job.Error == nil || job.Error.Code != "bad_audio" {
		t.Fatalf("expected bad_audio error, got %+v", job.Error)
	}
	if srt := job.Artifacts[store.ArtifactSRT]; srt == nil || !srt.Ready {
		t.Fatal("expected srt artifact published before demucs failure to remain ready")
	}
}
