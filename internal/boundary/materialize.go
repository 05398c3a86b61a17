package boundary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"transom/internal/apierr"
	"transom/internal/fileutil"
	"transom/internal/store"
)

// Materialized describes an input that now lives at a stable absolute path.
type Materialized struct {
	Path   string
	Source store.Source
	Owned  bool
}

// MaterializeUpload moves a multipart-spooled file into destPath. It owns the
// result. Rename is attempted first; a cross-device rename falls back to
// copy-then-delete.
func MaterializeUpload(spooledPath, destPath string) (Materialized, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return Materialized{}, apierr.Wrap(apierr.ErrInternal, "", "materialize-upload", "create destination dir", err)
	}

	if err := os.Rename(spooledPath, destPath); err != nil {
		if copyErr := fileutil.CopyFile(spooledPath, destPath); copyErr != nil {
			return Materialized{}, apierr.Wrap(apierr.ErrInternal, "", "materialize-upload", "copy spooled upload", copyErr)
		}
		if rmErr := os.Remove(spooledPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return Materialized{}, apierr.Wrap(apierr.ErrInternal, "", "materialize-upload", "remove spooled original", rmErr)
		}
	}

	return Materialized{Path: destPath, Source: store.SourceUpload, Owned: true}, nil
}

// MaterializeLocalPath references an existing file in place. The returned
// input is unowned: the core must never delete it. The path is not
// restricted to any configured root directory; any existing regular file is
// accepted.
func MaterializeLocalPath(path string) (Materialized, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Materialized{}, apierr.Wrap(apierr.ErrBadRequest, "", "materialize-path", fmt.Sprintf("audio path %q not found", path), err)
	}
	if !info.Mode().IsRegular() {
		return Materialized{}, apierr.New(apierr.CodeBadRequest, fmt.Sprintf("audio path %q is not a regular file", path))
	}
	return Materialized{Path: path, Source: store.SourceAudioPath, Owned: false}, nil
}

// MaterializeURL downloads url to destPath, owned by the core. If maxBytes is
// positive and the body exceeds it, the partial file is removed and the
// error classifies as bad_request. client may be nil to use http.DefaultClient.
func MaterializeURL(ctx context.Context, client *http.Client, url, destPath string, maxBytes int64) (Materialized, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Materialized{}, apierr.New(apierr.CodeBadRequest, fmt.Sprintf("invalid audio url: %v", err))
	}

	resp, err := client.Do(req)
	if err != nil {
		return Materialized{}, apierr.Wrap(apierr.ErrBadRequest, "", "materialize-url", "fetch audio url", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Materialized{}, apierr.New(apierr.CodeBadRequest, fmt.Sprintf("audio url returned status %d", resp.StatusCode))
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return Materialized{}, apierr.Wrap(apierr.ErrInternal, "", "materialize-url", "create destination dir", err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return Materialized{}, apierr.Wrap(apierr.ErrInternal, "", "materialize-url", "create destination file", err)
	}

	var reader io.Reader = resp.Body
	limited := maxBytes > 0
	if limited {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}

	written, copyErr := io.Copy(out, reader)
	closeErr := out.Close()

	if copyErr != nil {
		os.Remove(destPath)
		return Materialized{}, apierr.Wrap(apierr.ErrInternal, "", "materialize-url", "stream audio url", copyErr)
	}
	if closeErr != nil {
		os.Remove(destPath)
		return Materialized{}, apierr.Wrap(apierr.ErrInternal, "", "materialize-url", "close destination file", closeErr)
	}
	if limited && written > maxBytes {
		os.Remove(destPath)
		return Materialized{}, apierr.New(apierr.CodeBadRequest, fmt.Sprintf("audio download exceeded %d byte limit", maxBytes))
	}

	return Materialized{Path: destPath, Source: store.SourceAudioURL, Owned: true}, nil
}
