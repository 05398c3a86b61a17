package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"transom/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("TMP_DIR", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantJobsDir := filepath.Join(tempHome, ".local", "share", "transomd", "jobs-v2")
	if cfg.Paths.JobsDir != wantJobsDir {
		t.Fatalf("unexpected jobs dir: got %q want %q", cfg.Paths.JobsDir, wantJobsDir)
	}
	if cfg.Paths.APIBind != "127.0.0.1:8420" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Jobs.TTLSeconds != 21600 {
		t.Fatalf("unexpected job ttl: %d", cfg.Jobs.TTLSeconds)
	}
	if cfg.Demucs.MP3Bitrate != 256 {
		t.Fatalf("unexpected demucs bitrate: %d", cfg.Demucs.MP3Bitrate)
	}
	if cfg.Demucs.Jobs != 2 {
		t.Fatalf("unexpected demucs jobs: %d", cfg.Demucs.Jobs)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.TmpDir, cfg.Paths.UploadsDir, cfg.Paths.JobsDir, cfg.Paths.BatchesDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "transomd.toml")

	type payload struct {
		Jobs struct {
			TTLSeconds int `toml:"ttl_seconds"`
		} `toml:"jobs"`
		Demucs struct {
			MP3Bitrate int `toml:"mp3_bitrate"`
		} `toml:"demucs"`
	}
	custom := payload{}
	custom.Jobs.TTLSeconds = 7200
	custom.Demucs.MP3Bitrate = 320
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Jobs.TTLSeconds != 7200 {
		t.Fatalf("expected ttl 7200, got %d", cfg.Jobs.TTLSeconds)
	}
	if cfg.Demucs.MP3Bitrate != 320 {
		t.Fatalf("expected bitrate 320, got %d", cfg.Demucs.MP3Bitrate)
	}
}

func TestEnvVarOverridesConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "transomd.toml")

	type payload struct {
		Jobs struct {
			TTLSeconds int `toml:"ttl_seconds"`
		} `toml:"jobs"`
		Demucs struct {
			MP3Bitrate int `toml:"mp3_bitrate"`
			Jobs       int `toml:"jobs"`
		} `toml:"demucs"`
	}
	custom := payload{}
	custom.Jobs.TTLSeconds = 1000
	custom.Demucs.MP3Bitrate = 128
	custom.Demucs.Jobs = 1
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("JOB_TTL_SECONDS", "5000")
	t.Setenv("DEMUCS_MP3_BITRATE", "192")
	t.Setenv("DEMUCS_JOBS", "4")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Jobs.TTLSeconds != 5000 {
		t.Errorf("expected ttl from env, got %d", cfg.Jobs.TTLSeconds)
	}
	if cfg.Demucs.MP3Bitrate != 192 {
		t.Errorf("expected bitrate from env, got %d", cfg.Demucs.MP3Bitrate)
	}
	if cfg.Demucs.Jobs != 4 {
		t.Errorf("expected jobs from env, got %d", cfg.Demucs.Jobs)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "transomd") {
		t.Fatalf("sample config missing expected content: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Demucs.MP3Bitrate != 256 {
		t.Fatalf("unexpected sample bitrate: %d", cfg.Demucs.MP3Bitrate)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.TmpDir = "/tmp/transomd-test"
	cfg.Paths.JobsDir = "/tmp/transomd-test/jobs"
	cfg.Paths.BatchesDir = "/tmp/transomd-test/batches"
	cfg.Demucs.MP3Bitrate = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive bitrate")
	}

	cfg = config.Default()
	cfg.Jobs.TTLSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive ttl")
	}

	cfg = config.Default()
	cfg.ASRWorker.RequestTimeoutSeconds = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative asr request timeout")
	}
}
