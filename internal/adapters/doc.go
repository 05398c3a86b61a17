// Package adapters provides thin, uniform shims over the four external
// engines the job/batch engines drive: transcode (to mono 16 kHz WAV),
// separate (vocal stem extraction), recognize (delegated to
// internal/asrworker's long-lived process), and pack (zip archiving).
//
// Every adapter is handed an absolute output directory it is free to write
// into and must not touch anything outside it. Failures are classified into
// the apierr taxonomy at the adapter boundary so job/batch engine code never
// has to inspect raw subprocess output.
package adapters
