// Package reaper sweeps terminal job/batch records and their directories
// once past expiresAt, and reconciles on-disk state left behind by an
// unclean server restart.
//
// The periodic sweep runs on a cron schedule against an in-memory registry
// of live records; the startup sweep walks the persistence roots directly,
// since nothing is in memory yet at that point.
package reaper
