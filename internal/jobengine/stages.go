package jobengine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"transom/internal/adapters"
	"transom/internal/apierr"
	"transom/internal/logging"
	"transom/internal/store"
)

func asrWAVPath(job *store.Job) string { return filepath.Join(job.OutDir, "asr.wav") }

func (r *Runner) runASR(ctx context.Context, logger *slog.Logger, job *store.Job) error {
	wavPath := asrWAVPath(job)
	if err := r.deps.Transcoder.Transcode(ctx, job.AudioPath, wavPath); err != nil {
		return err
	}

	job.Phase = store.PhaseASR
	r.persist(logger, job)

	result, err := r.deps.ASR.Recognize(ctx, wavPath, job.OutDir, job.VADMaxSingleSegmentMs, job.VADMaxEndSilenceMs)
	if err != nil {
		return err
	}

	if err := r.publishSRT(job, result.SRTPath); err != nil {
		return err
	}
	r.persist(logger, job)

	removeBestEffortLogged(logger, wavPath)
	return nil
}

func (r *Runner) runDemucs(ctx context.Context, logger *slog.Logger, job *store.Job) error {
	rawDir := filepath.Join(job.OutDir, "separated")
	result, err := r.deps.Separator.Separate(ctx, job.AudioPath, rawDir)
	if err != nil {
		return err
	}

	if err := r.publishStems(job, result); err != nil {
		return err
	}
	r.persist(logger, job)

	job.Phase = store.PhaseZipDemucs
	r.persist(logger, job)
	if err := r.packDemucsZip(job); err != nil {
		return err
	}
	r.persist(logger, job)

	removeBestEffortLogged(logger, rawDir)
	return nil
}

func (r *Runner) runASRDemucs(ctx context.Context, logger *slog.Logger, job *store.Job) error {
	if err := r.runASR(ctx, logger, job); err != nil {
		return err
	}

	job.Phase = store.PhaseDemucs
	r.persist(logger, job)
	if err := r.runDemucs(ctx, logger, job); err != nil {
		return err
	}

	job.Phase = store.PhaseZipResult
	r.persist(logger, job)
	if err := r.packResultZip(job); err != nil {
		return err
	}
	r.persist(logger, job)
	return nil
}

func (r *Runner) publishSRT(job *store.Job, srtPath string) error {
	dest := filepath.Join(job.OutDir, store.ArtifactFilenames[store.ArtifactSRT])
	if srtPath != dest {
		if err := relocateFile(srtPath, dest); err != nil {
			return apierr.Wrap(apierr.ErrEngine, "asr", "relocate-srt", "move recognizer output", err)
		}
	}
	return r.stampArtifact(job, store.ArtifactSRT, dest)
}

func (r *Runner) publishStems(job *store.Job, result adapters.Result) error {
	vocalsDest := filepath.Join(job.OutDir, store.ArtifactFilenames[store.ArtifactVocals])
	noVocalsDest := filepath.Join(job.OutDir, store.ArtifactFilenames[store.ArtifactNoVocals])

	if err := relocateFile(result.VocalsPath, vocalsDest); err != nil {
		return apierr.Wrap(apierr.ErrInternal, "demucs", "relocate-vocals", "move vocals stem", err)
	}
	if err := relocateFile(result.NoVocalsPath, noVocalsDest); err != nil {
		return apierr.Wrap(apierr.ErrInternal, "demucs", "relocate-no-vocals", "move no_vocals stem", err)
	}

	if err := r.stampArtifact(job, store.ArtifactVocals, vocalsDest); err != nil {
		return err
	}
	return r.stampArtifact(job, store.ArtifactNoVocals, noVocalsDest)
}

func (r *Runner) packDemucsZip(job *store.Job) error {
	zipPath := filepath.Join(job.OutDir, store.ArtifactFilenames[store.ArtifactDemucsZip])
	entries := []adapters.PackEntry{
		{SourcePath: job.Artifacts[store.ArtifactVocals].Path, ArchiveName: "vocals.mp3"},
		{SourcePath: job.Artifacts[store.ArtifactNoVocals].Path, ArchiveName: "no_vocals.mp3"},
	}
	if err := r.deps.Packer.Pack(context.Background(), zipPath, entries); err != nil {
		return err
	}
	return r.stampArtifact(job, store.ArtifactDemucsZip, zipPath)
}

func (r *Runner) packResultZip(job *store.Job) error {
	zipPath := filepath.Join(job.OutDir, store.ArtifactFilenames[store.ArtifactResultZip])
	entries := []adapters.PackEntry{
		{SourcePath: job.Artifacts[store.ArtifactSRT].Path, ArchiveName: "output.srt"},
		{SourcePath: job.Artifacts[store.ArtifactVocals].Path, ArchiveName: "vocals.mp3"},
		{SourcePath: job.Artifacts[store.ArtifactNoVocals].Path, ArchiveName: "no_vocals.mp3"},
	}
	if err := r.deps.Packer.Pack(context.Background(), zipPath, entries); err != nil {
		return err
	}
	return r.stampArtifact(job, store.ArtifactResultZip, zipPath)
}

func (r *Runner) stampArtifact(job *store.Job, key store.ArtifactKey, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return apierr.Wrap(apierr.ErrInternal, "", "stamp-artifact", "stat published artifact", err)
	}
	job.Artifacts[key] = &store.Artifact{
		Name:  store.ArtifactFilenames[key],
		Path:  path,
		Ready: true,
		Bytes: info.Size(),
	}
	return nil
}

func relocateFile(src, dst string) error {
	if src == dst {
		return nil
	}
	if err := os.Rename(src, dst); err != nil {
		return copyThenDelete(src, dst)
	}
	return nil
}

func copyThenDelete(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	return os.Remove(src)
}

func removeBestEffort(path string) error {
	return os.RemoveAll(path)
}

func removeBestEffortLogged(logger *slog.Logger, path string) {
	if err := removeBestEffort(path); err != nil {
		logging.WarnWithContext(logger, "failed to remove intermediate file", "intermediate_cleanup_failed",
			logging.String("path", path), logging.Error(err))
	}
}
