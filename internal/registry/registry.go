// Package registry holds the in-memory job/batch tables that back status
// polling and the reaper's periodic sweep. Each table is a single
// sync.RWMutex-guarded map. The *Snapshot accessors return shallow copies
// of the records, taken under the lock; Job and Batch return the live
// pointer shared with the engine that owns the underlying
// *store.Job/*store.Batch.
package registry

import (
	"sync"

	"transom/internal/store"
)

// Registry tracks every live job and batch by ID.
type Registry struct {
	jobsMu sync.RWMutex
	jobs   map[string]*store.Job

	batchesMu sync.RWMutex
	batches   map[string]*store.Batch
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		jobs:    make(map[string]*store.Job),
		batches: make(map[string]*store.Batch),
	}
}

// PutJob registers or replaces job under its ID.
func (r *Registry) PutJob(job *store.Job) {
	r.jobsMu.Lock()
	defer r.jobsMu.Unlock()
	r.jobs[job.ID] = job
}

// Job returns the live job record for id, or nil if absent. The returned
// pointer is shared with whatever goroutine is driving the job; callers
// that only need a point-in-time view should use JobSnapshot instead.
func (r *Registry) Job(id string) *store.Job {
	r.jobsMu.RLock()
	defer r.jobsMu.RUnlock()
	return r.jobs[id]
}

// JobSnapshot returns a shallow copy of the job record for id, safe to read
// without racing further mutation, and whether it was found.
func (r *Registry) JobSnapshot(id string) (store.Job, bool) {
	r.jobsMu.RLock()
	defer r.jobsMu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return store.Job{}, false
	}
	return *job, true
}

// RemoveJob drops id from the table.
func (r *Registry) RemoveJob(id string) {
	r.jobsMu.Lock()
	defer r.jobsMu.Unlock()
	delete(r.jobs, id)
}

// JobsSnapshot returns shallow copies of every live job, in no particular
// order.
func (r *Registry) JobsSnapshot() []store.Job {
	r.jobsMu.RLock()
	defer r.jobsMu.RUnlock()
	out := make([]store.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, *job)
	}
	return out
}

// PutBatch registers or replaces batch under its ID.
func (r *Registry) PutBatch(batch *store.Batch) {
	r.batchesMu.Lock()
	defer r.batchesMu.Unlock()
	r.batches[batch.ID] = batch
}

// Batch returns the live batch record for id, or nil if absent.
func (r *Registry) Batch(id string) *store.Batch {
	r.batchesMu.RLock()
	defer r.batchesMu.RUnlock()
	return r.batches[id]
}

// BatchSnapshot returns a shallow copy of the batch record for id (items
// slice header copied, item pointers shared — sufficient for read-only
// status rendering) and whether it was found.
func (r *Registry) BatchSnapshot(id string) (store.Batch, bool) {
	r.batchesMu.RLock()
	defer r.batchesMu.RUnlock()
	batch, ok := r.batches[id]
	if !ok {
		return store.Batch{}, false
	}
	return *batch, true
}

// RemoveBatch drops id from the table.
func (r *Registry) RemoveBatch(id string) {
	r.batchesMu.Lock()
	defer r.batchesMu.Unlock()
	delete(r.batches, id)
}

// BatchesSnapshot returns shallow copies of every live batch, in no
// particular order.
func (r *Registry) BatchesSnapshot() []store.Batch {
	r.batchesMu.RLock()
	defer r.batchesMu.RUnlock()
	out := make([]store.Batch, 0, len(r.batches))
	for _, batch := range r.batches {
		out = append(out, *batch)
	}
	return out
}
