// Package boundary converts the three input descriptors the HTTP layer
// accepts — an uploaded blob, a remote URL, or a server-local path — into a
// stable absolute path under the owning job/batch directory, tagging each
// with whether the core owns (and must eventually delete) the resulting
// file.
package boundary
