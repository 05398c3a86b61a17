package batchengine

import "transom/internal/store"

// RequestCancel marks batch for cooperative cancellation, checked between
// items by the running scheduler loop. A terminal batch is left unchanged;
// the caller is expected to treat that as a no-op returning current state.
func RequestCancel(batch *store.Batch) bool {
	if batch.State.Terminal() {
		return false
	}
	batch.RequestCancel()
	return true
}
