// Package daemon coordinates transomd's background services — the serial
// engine queue, the ASR worker supervisor, and the reaper's cron schedule —
// and enforces single-instance execution via a file lock, mirroring the
// teacher daemon's lifecycle shape.
package daemon
