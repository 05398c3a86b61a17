package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	TmpDir      string `toml:"tmp_dir"`
	UploadsDir  string `toml:"uploads_dir"`
	JobsDir     string `toml:"jobs_dir"`
	BatchesDir  string `toml:"batches_dir"`
	LogDir      string `toml:"log_dir"`
	APIBind     string `toml:"api_bind"`
	APIToken    string `toml:"api_token"`
}

// Engine contains the filesystem paths to the external subprocess binaries
// the adapters shell out to, and the long-lived ASR worker binary.
type Engine struct {
	TranscodeBinary string `toml:"transcode_binary"`
	SeparateBinary  string `toml:"separate_binary"`
	RecognizeBinary string `toml:"recognize_binary"`
	PackBinary      string `toml:"pack_binary"`
	ASRWorkerBinary string `toml:"asr_worker_binary"`
}

// Jobs contains job/batch lifecycle and retention settings.
type Jobs struct {
	TTLSeconds     int `toml:"ttl_seconds"`
	ReaperInterval int `toml:"reaper_interval_seconds"`
	MaxBatchItems  int `toml:"max_batch_items"`
}

// Demucs contains tuning knobs for the vocal separation adapter.
type Demucs struct {
	MP3Bitrate int `toml:"mp3_bitrate"`
	Jobs       int `toml:"jobs"`
}

// ASRWorker contains tuning knobs for the long-lived ASR worker supervisor.
type ASRWorker struct {
	StartupTimeoutSeconds int `toml:"startup_timeout_seconds"`
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
	IdleShutdownSeconds   int `toml:"idle_shutdown_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	Dir           string `toml:"dir"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for transomd.
//
// Configuration sections by subsystem:
//   - Paths: directories and API bind address/token
//   - Engine: subprocess adapter and ASR worker binary locations
//   - Jobs: job/batch TTL, reaper cadence, batch size limits
//   - Demucs: vocal separation tuning
//   - ASRWorker: long-lived recognize worker supervision tuning
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Engine    Engine    `toml:"engine"`
	Jobs      Jobs      `toml:"jobs"`
	Demucs    Demucs    `toml:"demucs"`
	ASRWorker ASRWorker `toml:"asr_worker"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/transomd/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/transomd/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("transomd.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.TmpDir, c.Paths.UploadsDir, c.Paths.JobsDir, c.Paths.BatchesDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultTmpDir() string {
	if base, ok := os.LookupEnv("TMP_DIR"); ok && strings.TrimSpace(base) != "" {
		return base
	}
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "transomd", "tmp")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/transomd/tmp"
	}
	return filepath.Join(home, ".cache", "transomd", "tmp")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
