package store

import "os"

// reconcileArtifacts resolves each artifact's path against outDir and stats
// the file, rewriting ready/bytes to match what is actually on disk. A stale
// ready=true whose file is gone becomes ready=false with bytes dropped.
// Reconciliation never deletes files; it only corrects the in-memory record.
func reconcileArtifacts(outDir string, artifacts map[ArtifactKey]*Artifact) {
	for key, artifact := range artifacts {
		if artifact == nil {
			continue
		}
		name, ok := ArtifactFilenames[key]
		if !ok {
			name = artifact.Name
		}
		full := resolveUnder(outDir, name)
		artifact.Name = name
		artifact.Path = full

		info, err := os.Stat(full)
		if err != nil || !info.Mode().IsRegular() {
			artifact.Ready = false
			artifact.Bytes = 0
			continue
		}
		artifact.Ready = true
		artifact.Bytes = info.Size()
	}
}

// ensureArtifactEntry returns the artifact record for key, creating an
// unready placeholder if absent.
func ensureArtifactEntry(artifacts map[ArtifactKey]*Artifact, key ArtifactKey) *Artifact {
	if a, ok := artifacts[key]; ok && a != nil {
		return a
	}
	name := ArtifactFilenames[key]
	a := &Artifact{Name: name}
	artifacts[key] = a
	return a
}
