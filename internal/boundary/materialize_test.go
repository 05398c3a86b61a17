package boundary_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"transom/internal/apierr"
	"transom/internal/boundary"
)

func TestMaterializeUploadMovesFile(t *testing.T) {
	dir := t.TempDir()
	spooled := filepath.Join(dir, "spool", "upload-1")
	if err := os.MkdirAll(filepath.Dir(spooled), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(spooled, []byte("audio-bytes"), 0o644); err != nil {
		t.Fatalf("write spooled: %v", err)
	}

	dest := filepath.Join(dir, "job-1", "input.wav")
	result, err := boundary.MaterializeUpload(spooled, dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Owned {
		t.Fatal("expected upload to be owned")
	}
	if _, err := os.Stat(spooled); !os.IsNotExist(err) {
		t.Fatal("expected spooled file to be gone after move")
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected dest to exist: %v", err)
	}
}

func TestMaterializeLocalPathIsUnowned(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "existing.wav")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	result, err := boundary.MaterializeLocalPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Owned {
		t.Fatal("expected local path to be unowned")
	}
	if result.Path != path {
		t.Fatalf("unexpected path: %s", result.Path)
	}
}

func TestMaterializeLocalPathMissingIsBadRequest(t *testing.T) {
	_, err := boundary.MaterializeLocalPath("/no/such/file")
	if !errors.Is(err, apierr.ErrBadRequest) {
		t.Fatalf("expected bad_request, got %v", err)
	}
}

func TestMaterializeURLDownloadsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote-audio-bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "input.wav")
	result, err := boundary.MaterializeURL(context.Background(), nil, srv.URL, dest, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Owned {
		t.Fatal("expected url download to be owned")
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(data) != "remote-audio-bytes" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestMaterializeURLEnforcesMaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "input.wav")
	_, err := boundary.MaterializeURL(context.Background(), nil, srv.URL, dest, 10)
	if !errors.Is(err, apierr.ErrBadRequest) {
		t.Fatalf("expected bad_request for oversized download, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatal("expected partial download to be removed")
	}
}

func TestMaterializeURLNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "input.wav")
	_, err := boundary.MaterializeURL(context.Background(), nil, srv.URL, dest, 0)
	if !errors.Is(err, apierr.ErrBadRequest) {
		t.Fatalf("expected bad_request for non-2xx status, got %v", err)
	}
}
