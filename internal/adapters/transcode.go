package adapters

import (
	"context"
	"fmt"

	"transom/internal/apierr"
)

// Transcoder converts an arbitrary decodable input to single-channel,
// 16 kHz, 16-bit PCM WAV.
type Transcoder struct {
	Binary string
}

// NewTranscoder constructs a Transcoder invoking binary (e.g. "ffmpeg").
func NewTranscoder(binary string) *Transcoder {
	return &Transcoder{Binary: binary}
}

// Transcode converts inputPath to outputPath. Any non-zero exit or decoder
// error classifies as bad_audio, carrying a truncated stderr tail.
func (t *Transcoder) Transcode(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-y",
		"-i", inputPath,
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outputPath,
	}

	tail, err := runCapture(ctx, t.Binary, args...)
	if err != nil {
		return apierr.Wrap(apierr.ErrBadAudio, "asr_convert", "transcode", fmt.Sprintf("%s failed", t.Binary), wrapExit(t.Binary, err, tail))
	}
	return nil
}
