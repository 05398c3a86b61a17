package batchengine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"transom/internal/adapters"
	"transom/internal/apierr"
	"transom/internal/logging"
	"transom/internal/store"
)

func itemWAVPath(itemDir string) string { return filepath.Join(itemDir, "asr.wav") }

func (r *Runner) runItemASR(ctx context.Context, logger *slog.Logger, batch *store.Batch, item *store.BatchItem) {
	itemDir := store.ItemDir(batch.OutDir, item.Idx)
	if err := os.MkdirAll(itemDir, 0o755); err != nil {
		r.failItem(logger, item, apierr.Wrap(apierr.ErrInternal, "asr_convert", "prepare-item-dir", "create item directory", err))
		return
	}

	now := time.Now().UTC()
	item.State = store.StateRunning
	item.Phase = store.PhaseASRConvert
	item.StartedAt = &now

	wavPath := itemWAVPath(itemDir)
	if err := r.deps.Transcoder.Transcode(ctx, item.AudioPath, wavPath); err != nil {
		r.failItem(logger, item, err)
		return
	}

	item.Phase = store.PhaseASR
	result, err := r.deps.ASR.Recognize(ctx, wavPath, itemDir,
		batch.Options.VADMaxSingleSegmentMs, batch.Options.VADMaxEndSilenceMs)
	if err != nil {
		r.failItem(logger, item, err)
		return
	}

	dest := filepath.Join(itemDir, store.ArtifactFilenames[store.ArtifactSRT])
	if result.SRTPath != dest {
		if err := relocateFile(result.SRTPath, dest); err != nil {
			r.failItem(logger, item, apierr.Wrap(apierr.ErrEngine, "asr", "relocate-srt", "move recognizer output", err))
			return
		}
	}
	if err := stampItemArtifact(item, store.ArtifactSRT, dest); err != nil {
		r.failItem(logger, item, err)
		return
	}

	removeBestEffortLogged(logger, wavPath)

	if !batch.Options.Tasks.Demucs {
		r.succeedItem(item)
		r.releaseOwnedInput(logger, item)
		return
	}
	item.State = store.StateQueued
	item.Phase = store.PhaseQueued
}

func (r *Runner) runItemDemucs(ctx context.Context, logger *slog.Logger, batch *store.Batch, item *store.BatchItem) {
	itemDir := store.ItemDir(batch.OutDir, item.Idx)
	if err := os.MkdirAll(itemDir, 0o755); err != nil {
		r.failItem(logger, item, apierr.Wrap(apierr.ErrInternal, "demucs", "prepare-item-dir", "create item directory", err))
		return
	}

	if item.StartedAt == nil {
		now := time.Now().UTC()
		item.StartedAt = &now
	}
	item.State = store.StateRunning
	item.Phase = store.PhaseDemucs

	rawDir := filepath.Join(itemDir, "separated")
	result, err := r.deps.Separator.Separate(ctx, item.AudioPath, rawDir)
	if err != nil {
		r.failItem(logger, item, err)
		return
	}

	vocalsDest := filepath.Join(itemDir, store.ArtifactFilenames[store.ArtifactVocals])
	noVocalsDest := filepath.Join(itemDir, store.ArtifactFilenames[store.ArtifactNoVocals])
	if err := relocateFile(result.VocalsPath, vocalsDest); err != nil {
		r.failItem(logger, item, apierr.Wrap(apierr.ErrInternal, "demucs", "relocate-vocals", "move vocals stem", err))
		return
	}
	if err := relocateFile(result.NoVocalsPath, noVocalsDest); err != nil {
		r.failItem(logger, item, apierr.Wrap(apierr.ErrInternal, "demucs", "relocate-no-vocals", "move no_vocals stem", err))
		return
	}
	if err := stampItemArtifact(item, store.ArtifactVocals, vocalsDest); err != nil {
		r.failItem(logger, item, err)
		return
	}
	if err := stampItemArtifact(item, store.ArtifactNoVocals, noVocalsDest); err != nil {
		r.failItem(logger, item, err)
		return
	}

	item.Phase = store.PhaseZipDemucs
	demucsZip := filepath.Join(itemDir, store.ArtifactFilenames[store.ArtifactDemucsZip])
	entries := []adapters.PackEntry{
		{SourcePath: vocalsDest, ArchiveName: "vocals.mp3"},
		{SourcePath: noVocalsDest, ArchiveName: "no_vocals.mp3"},
	}
	if err := r.deps.Packer.Pack(ctx, demucsZip, entries); err != nil {
		r.failItem(logger, item, err)
		return
	}
	if err := stampItemArtifact(item, store.ArtifactDemucsZip, demucsZip); err != nil {
		r.failItem(logger, item, err)
		return
	}

	if batch.Options.Tasks.ASR {
		if srt, ok := item.Artifacts[store.ArtifactSRT]; ok && srt.Ready {
			item.Phase = store.PhaseZipResult
			resultZip := filepath.Join(itemDir, store.ArtifactFilenames[store.ArtifactResultZip])
			resultEntries := []adapters.PackEntry{
				{SourcePath: srt.Path, ArchiveName: "output.srt"},
				{SourcePath: vocalsDest, ArchiveName: "vocals.mp3"},
				{SourcePath: noVocalsDest, ArchiveName: "no_vocals.mp3"},
			}
			if err := r.deps.Packer.Pack(ctx, resultZip, resultEntries); err != nil {
				r.failItem(logger, item, err)
				return
			}
			if err := stampItemArtifact(item, store.ArtifactResultZip, resultZip); err != nil {
				r.failItem(logger, item, err)
				return
			}
		}
	}

	removeBestEffortLogged(logger, rawDir)
	r.succeedItem(item)
	r.releaseOwnedInput(logger, item)
}

func (r *Runner) succeedItem(item *store.BatchItem) {
	now := time.Now().UTC()
	item.State = store.StateSucceeded
	item.Phase = store.PhaseDone
	item.FinishedAt = &now
}

func (r *Runner) failItem(logger *slog.Logger, item *store.BatchItem, err error) {
	now := time.Now().UTC()
	item.State = store.StateFailed
	item.Phase = store.PhaseError
	item.FinishedAt = &now
	detail := apierr.DetailFor(err)
	item.Error = &store.ErrorInfo{Code: string(detail.Code), Message: detail.Message, Details: detail.Details}

	logging.ErrorWithContext(logger, "batch item failed", "batch_item_failed",
		logging.Int("idx", item.Idx),
		logging.String("code", string(detail.Code)),
		logging.Error(err))
}

func (r *Runner) releaseOwnedInput(logger *slog.Logger, item *store.BatchItem) {
	if !item.OwnedInput || item.AudioPath == "" {
		return
	}
	if err := os.RemoveAll(item.AudioPath); err != nil {
		logging.WarnWithContext(logger, "failed to remove owned item input", "owned_input_cleanup_failed",
			logging.Int("idx", item.Idx), logging.Error(err))
	}
}

func stampItemArtifact(item *store.BatchItem, key store.ArtifactKey, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return apierr.Wrap(apierr.ErrInternal, "", "stamp-artifact", "stat published artifact", err)
	}
	if item.Artifacts == nil {
		item.Artifacts = make(map[store.ArtifactKey]*store.Artifact)
	}
	item.Artifacts[key] = &store.Artifact{
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
		data, readErr := os.ReadFile(src)
		if readErr != nil {
			return readErr
		}
		if writeErr := os.WriteFile(dst, data, 0o644); writeErr != nil {
			return writeErr
		}
		return os.Remove(src)
	}
	return nil
}

func removeBestEffortLogged(logger *slog.Logger, path string) {
	if err := os.RemoveAll(path); err != nil {
		logging.WarnWithContext(logger, "failed to remove intermediate directory", "intermediate_cleanup_failed",
			logging.String("path", path), logging.Error(err))
	}
}
