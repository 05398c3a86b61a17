package adapters

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"transom/internal/apierr"
)

// Separator runs a two-stem (vocals / no-vocals) source separator.
type Separator struct {
	Binary     string
	MP3Bitrate int
	Jobs       int
}

// NewSeparator constructs a Separator using binary (e.g. "demucs") configured
// for bitrate kbps MP3 output and the given worker job count.
func NewSeparator(binary string, bitrate, jobs int) *Separator {
	return &Separator{Binary: binary, MP3Bitrate: bitrate, Jobs: jobs}
}

// Result locates the separator's two stem outputs.
type Result struct {
	VocalsPath   string
	NoVocalsPath string
}

// Separate runs the separator against inputPath, writing MP3 stems somewhere
// under outDir. On success it locates vocals.mp3/no_vocals.mp3 by filename
// suffix anywhere under the output tree; if either is missing, fails with
// engine_error. A non-zero exit fails with bad_audio.
func (s *Separator) Separate(ctx context.Context, inputPath, outDir string) (Result, error) {
	args := []string{
		"--two-stems", "vocals",
		"--mp3", "--mp3-bitrate", strconv.Itoa(s.MP3Bitrate),
		"-j", strconv.Itoa(s.Jobs),
		"-o", outDir,
		inputPath,
	}

	tail, err := runCapture(ctx, s.Binary, args...)
	if err != nil {
		return Result{}, apierr.Wrap(apierr.ErrBadAudio, "demucs", "separate", fmt.Sprintf("%s failed", s.Binary), wrapExit(s.Binary, err, tail))
	}

	result, err := locateStems(outDir)
	if err != nil {
		return Result{}, apierr.Wrap(apierr.ErrEngine, "demucs", "separate", err.Error(), nil)
	}
	return result, nil
}

func locateStems(outDir string) (Result, error) {
	var result Result
	err := filepath.WalkDir(outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := d.Name()
		switch {
		case strings.HasSuffix(name, "no_vocals.mp3"):
			result.NoVocalsPath = path
		case strings.HasSuffix(name, "vocals.mp3"):
			if result.VocalsPath == "" {
				result.VocalsPath = path
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("walk separator output: %w", err)
	}
	if result.VocalsPath == "" || result.NoVocalsPath == "" {
		return Result{}, fmt.Errorf("separator did not produce both stems under %s", outDir)
	}
	return result, nil
}
