// Package jobengine drives a single job through its deterministic stage
// sequence (asr, demucs, or asr-demucs), persisting state after every
// transition and publishing artifacts as soon as each stage produces them.
//
// The stage sequence and its transition bookkeeping (set phase, persist,
// invoke the adapter, stat and record the resulting artifact, persist again)
// is the same shape regardless of job type; runner.go walks it once per
// job, branching only on which stages a type requires.
package jobengine
