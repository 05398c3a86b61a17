package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"transom/internal/apierr"
	"transom/internal/fileutil"
)

// PackEntry names a source file and the name it should carry inside the
// archive.
type PackEntry struct {
	SourcePath  string
	ArchiveName string
}

// Packer shells out to a configured zip binary (default "zip") to create
// deflated archives, matching the uniform subprocess-adapter shape of the
// other three engines.
type Packer struct {
	Binary string
}

// NewPacker constructs a Packer invoking binary (e.g. "zip").
func NewPacker(binary string) *Packer {
	return &Packer{Binary: binary}
}

// Pack creates zipPath containing exactly the given entries at their stated
// archive names. Entries are staged into a scratch directory under the same
// ancestor as zipPath so the zip binary's relative-path naming produces the
// requested archive names. Fails with internal_error on non-zero exit.
func (p *Packer) Pack(ctx context.Context, zipPath string, entries []PackEntry) error {
	staging, err := os.MkdirTemp(filepath.Dir(zipPath), ".pack-*")
	if err != nil {
		return apierr.Wrap(apierr.ErrInternal, "", "pack", "create staging dir", err)
	}
	defer os.RemoveAll(staging)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		dest := filepath.Join(staging, entry.ArchiveName)
		if err := fileutil.CopyFile(entry.SourcePath, dest); err != nil {
			return apierr.Wrap(apierr.ErrInternal, "", "pack", fmt.Sprintf("stage %s", entry.ArchiveName), err)
		}
		names = append(names, entry.ArchiveName)
	}

	absZip, err := filepath.Abs(zipPath)
	if err != nil {
		return apierr.Wrap(apierr.ErrInternal, "", "pack", "resolve archive path", err)
	}

	args := append([]string{"-j", absZip}, names...)
	cmd := commandContext(ctx, p.Binary, args...) //nolint:gosec
	cmd.Dir = staging
	out, err := cmd.CombinedOutput()
	if err != nil {
		return apierr.Wrap(apierr.ErrInternal, "", "pack", fmt.Sprintf("%s failed", p.Binary), wrapExit(p.Binary, err, truncateTail(out, maxStderrTail)))
	}
	return nil
}
