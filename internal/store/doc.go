// Package store owns the on-disk layout of job and batch directories: atomic
// metadata writes, and reconciliation of declared artifacts against the
// filesystem at load time.
//
// A job directory holds job.json plus input/intermediate/output files at
// stable names. A batch directory holds batch.json, inputs/<idx>.<ext>, and
// items/<idx>/... per item. Metadata is written with a temp-file-then-rename
// sequence so a crash between writes leaves either the last committed state
// or no file at all — never a half-written one.
package store
