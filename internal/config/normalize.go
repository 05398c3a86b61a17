package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeEngine(); err != nil {
		return err
	}
	c.normalizeJobs()
	c.normalizeDemucs()
	c.normalizeASRWorker()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv("TMP_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.TmpDir = value
	}
	if c.Paths.TmpDir, err = expandPath(c.Paths.TmpDir); err != nil {
		return fmt.Errorf("paths.tmp_dir: %w", err)
	}
	if c.Paths.UploadsDir, err = expandPath(c.Paths.UploadsDir); err != nil {
		return fmt.Errorf("paths.uploads_dir: %w", err)
	}
	if c.Paths.JobsDir, err = expandPath(c.Paths.JobsDir); err != nil {
		return fmt.Errorf("paths.jobs_dir: %w", err)
	}
	if c.Paths.BatchesDir, err = expandPath(c.Paths.BatchesDir); err != nil {
		return fmt.Errorf("paths.batches_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	if value, ok := os.LookupEnv("API_TOKEN"); ok {
		c.Paths.APIToken = strings.TrimSpace(value)
	}
	return nil
}

func (c *Config) normalizeEngine() error {
	c.Engine.TranscodeBinary = strings.TrimSpace(c.Engine.TranscodeBinary)
	if c.Engine.TranscodeBinary == "" {
		c.Engine.TranscodeBinary = defaultTranscodeBinary
	}
	c.Engine.SeparateBinary = strings.TrimSpace(c.Engine.SeparateBinary)
	if c.Engine.SeparateBinary == "" {
		c.Engine.SeparateBinary = defaultSeparateBinary
	}
	c.Engine.RecognizeBinary = strings.TrimSpace(c.Engine.RecognizeBinary)
	if c.Engine.RecognizeBinary == "" {
		c.Engine.RecognizeBinary = defaultRecognizeBinary
	}
	c.Engine.PackBinary = strings.TrimSpace(c.Engine.PackBinary)
	if c.Engine.PackBinary == "" {
		c.Engine.PackBinary = defaultPackBinary
	}
	c.Engine.ASRWorkerBinary = strings.TrimSpace(c.Engine.ASRWorkerBinary)
	if c.Engine.ASRWorkerBinary == "" {
		c.Engine.ASRWorkerBinary = c.Engine.RecognizeBinary
	}
	return nil
}

func (c *Config) normalizeJobs() {
	if value, ok := os.LookupEnv("JOB_TTL_SECONDS"); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && parsed > 0 {
			c.Jobs.TTLSeconds = parsed
		}
	}
	if c.Jobs.TTLSeconds <= 0 {
		c.Jobs.TTLSeconds = defaultJobTTLSeconds
	}
	if c.Jobs.ReaperInterval <= 0 {
		c.Jobs.ReaperInterval = defaultReaperIntervalSecs
	}
	if c.Jobs.MaxBatchItems <= 0 {
		c.Jobs.MaxBatchItems = defaultMaxBatchItems
	}
}

func (c *Config) normalizeDemucs() {
	if value, ok := os.LookupEnv("DEMUCS_MP3_BITRATE"); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && parsed > 0 {
			c.Demucs.MP3Bitrate = parsed
		}
	}
	if c.Demucs.MP3Bitrate <= 0 {
		c.Demucs.MP3Bitrate = defaultDemucsMP3Bitrate
	}
	if value, ok := os.LookupEnv("DEMUCS_JOBS"); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && parsed > 0 {
			c.Demucs.Jobs = parsed
		}
	}
	if c.Demucs.Jobs <= 0 {
		c.Demucs.Jobs = defaultDemucsJobs
	}
}

func (c *Config) normalizeASRWorker() {
	if c.ASRWorker.StartupTimeoutSeconds <= 0 {
		c.ASRWorker.StartupTimeoutSeconds = defaultASRStartupTimeoutSeconds
	}
	if c.ASRWorker.RequestTimeoutSeconds <= 0 {
		c.ASRWorker.RequestTimeoutSeconds = defaultASRRequestTimeoutSeconds
	}
	if c.ASRWorker.IdleShutdownSeconds <= 0 {
		c.ASRWorker.IdleShutdownSeconds = defaultASRIdleShutdownSeconds
	}
}

func (c *Config) normalizeLogging() {
	if c.Logging.Dir == "" {
		c.Logging.Dir = c.Paths.LogDir
	} else if expanded, err := expandPath(c.Logging.Dir); err == nil {
		c.Logging.Dir = expanded
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
