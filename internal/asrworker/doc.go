// Package asrworker supervises a single long-lived ASR recognizer
// subprocess. The recognizer preloads heavy models once; the supervisor
// multiplexes requests to it over line-delimited JSON on its stdin/stdout,
// correlating responses by a monotonically increasing request id.
//
// The worker is spawned lazily on first use, reaped silently after the
// process reports its own idle shutdown, and respawned on the next request.
// A request that observes the worker die mid-flight gets exactly one
// supervised respawn-and-retry; a second failure is final.
package asrworker
