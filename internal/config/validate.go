package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateJobs(); err != nil {
		return err
	}
	if err := c.validateDemucs(); err != nil {
		return err
	}
	if err := c.validateASRWorker(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.TmpDir == "" {
		return errors.New("paths.tmp_dir must be set")
	}
	if c.Paths.JobsDir == "" {
		return errors.New("paths.jobs_dir must be set")
	}
	if c.Paths.BatchesDir == "" {
		return errors.New("paths.batches_dir must be set")
	}
	if c.Paths.APIBind == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateJobs() error {
	if c.Jobs.TTLSeconds <= 0 {
		return errors.New("jobs.ttl_seconds must be positive")
	}
	if c.Jobs.ReaperInterval <= 0 {
		return errors.New("jobs.reaper_interval_seconds must be positive")
	}
	if c.Jobs.MaxBatchItems <= 0 {
		return errors.New("jobs.max_batch_items must be positive")
	}
	return nil
}

func (c *Config) validateDemucs() error {
	if c.Demucs.MP3Bitrate <= 0 {
		return fmt.Errorf("demucs.mp3_bitrate must be positive, got %d", c.Demucs.MP3Bitrate)
	}
	if c.Demucs.Jobs <= 0 {
		return fmt.Errorf("demucs.jobs must be positive, got %d", c.Demucs.Jobs)
	}
	return nil
}

func (c *Config) validateASRWorker() error {
	if c.ASRWorker.StartupTimeoutSeconds <= 0 {
		return errors.New("asr_worker.startup_timeout_seconds must be positive")
	}
	if c.ASRWorker.RequestTimeoutSeconds <= 0 {
		return errors.New("asr_worker.request_timeout_seconds must be positive")
	}
	if c.ASRWorker.IdleShutdownSeconds <= 0 {
		return errors.New("asr_worker.idle_shutdown_seconds must be positive")
	}
	return nil
}
