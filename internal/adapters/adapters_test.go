package adapters_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"transom/internal/adapters"
	"transom/internal/apierr"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestTranscodeFailureClassifiesBadAudio(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "ffmpeg-fail", "echo 'decode error' 1>&2\nexit 1\n")

	tr := adapters.NewTranscoder(script)
	err := tr.Transcode(context.Background(), filepath.Join(dir, "in.mov"), filepath.Join(dir, "out.wav"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, apierr.ErrBadAudio) {
		t.Fatalf("expected bad_audio classification, got %v", err)
	}
}

func TestTranscodeSuccess(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "ffmpeg-ok", "exit 0\n")

	tr := adapters.NewTranscoder(script)
	if err := tr.Transcode(context.Background(), filepath.Join(dir, "in.mov"), filepath.Join(dir, "out.wav")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSeparateMissingStemsIsEngineError(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "demucs-noop", "exit 0\n")

	sep := adapters.NewSeparator(script, 256, 2)
	_, err := sep.Separate(context.Background(), filepath.Join(dir, "in.wav"), dir)
	if err == nil {
		t.Fatal("expected error when stems are missing")
	}
	if !errors.Is(err, apierr.ErrEngine) {
		t.Fatalf("expected engine_error classification, got %v", err)
	}
}

func TestSeparateLocatesStems(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(filepath.Join(outDir, "htdemucs", "track"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	vocals := filepath.Join(outDir, "htdemucs", "track", "vocals.mp3")
	noVocals := filepath.Join(outDir, "htdemucs", "track", "no_vocals.mp3")
	if err := os.WriteFile(vocals, []byte("v"), 0o644); err != nil {
		t.Fatalf("write vocals: %v", err)
	}
	if err := os.WriteFile(noVocals, []byte("n"), 0o644); err != nil {
		t.Fatalf("write no_vocals: %v", err)
	}

	script := writeScript(t, dir, "demucs-ok", "exit 0\n")
	sep := adapters.NewSeparator(script, 256, 2)
	result, err := sep.Separate(context.Background(), filepath.Join(dir, "in.wav"), outDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.VocalsPath != vocals {
		t.Fatalf("unexpected vocals path: %s", result.VocalsPath)
	}
	if result.NoVocalsPath != noVocals {
		t.Fatalf("unexpected no_vocals path: %s", result.NoVocalsPath)
	}
}

func TestSeparateFailureClassifiesBadAudio(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "demucs-fail", "exit 1\n")
	sep := adapters.NewSeparator(script, 256, 2)
	_, err := sep.Separate(context.Background(), filepath.Join(dir, "in.wav"), dir)
	if !errors.Is(err, apierr.ErrBadAudio) {
		t.Fatalf("expected bad_audio classification, got %v", err)
	}
}

func TestPackCreatesArchiveWithRequestedNames(t *testing.T) {
	if _, err := os.Stat("/usr/bin/zip"); err != nil {
		t.Skip("zip binary not available in test environment")
	}
	dir := t.TempDir()
	srcA := filepath.Join(dir, "a.txt")
	srcB := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(srcA, []byte("alpha"), 0o644); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(srcB, []byte("beta"), 0o644); err != nil {
		t.Fatalf("write b: %v", err)
	}

	packer := adapters.NewPacker("zip")
	zipPath := filepath.Join(dir, "out.zip")
	err := packer.Pack(context.Background(), zipPath, []adapters.PackEntry{
		{SourcePath: srcA, ArchiveName: "output.srt"},
		{SourcePath: srcB, ArchiveName: "vocals.mp3"},
	})
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if _, err := os.Stat(zipPath); err != nil {
		t.Fatalf("expected archive to exist: %v", err)
	}
}
