// Package config loads, normalizes, and validates transomd configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// TMP_DIR, JOB_TTL_SECONDS, DEMUCS_MP3_BITRATE, and DEMUCS_JOBS. The Config
// type centralizes every knob the daemon and CLI need: storage directories,
// external engine binary paths, job/batch retention, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
