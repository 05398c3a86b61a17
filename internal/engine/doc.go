// Package engine implements the serial, single-slot FIFO task queue that
// every job and batch submits its engine-bound work through. All heavy work
// (ASR, separation, transcode, zip) is serialized globally: at most one task
// runs at a time, regardless of how many HTTP requests enqueue concurrently.
//
// A task that returns an error does not poison the queue; the next task in
// line still runs. The queue has no cancel primitive of its own — callers
// cooperate via flags checked between stages (see internal/jobengine and
// internal/batchengine).
package engine
