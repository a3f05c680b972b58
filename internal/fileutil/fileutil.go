package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrDestinationExists is returned by MoveNoClobber when the target is a
// different file that already exists.
var ErrDestinationExists = errors.New("destination already exists")

// WriteFileAtomic streams r into a temporary file next to path and renames it
// into place, so readers never observe a partial file. Parent directories are
// created as needed. The returned digest is the hex SHA-256 of the content.
func WriteFileAtomic(path string, r io.Reader, mode os.FileMode) (int64, string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, "", fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if err != nil {
		_ = tmp.Close()
		return 0, "", fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, "", fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return 0, "", fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, "", fmt.Errorf("rename into %s: %w", path, err)
	}
	return written, hex.EncodeToString(hasher.Sum(nil)), nil
}

// MoveNoClobber renames src to dst unless dst already exists as a different
// file. Renaming a file onto itself (including case-only changes on
// case-insensitive filesystems) is allowed.
//
// The destination is claimed with a hard link, which fails atomically when
// dst exists, and src is unlinked afterwards. Filesystems without hard links
// fall back to stat then rename.
func MoveNoClobber(src, dst string) error {
	if src == dst {
		return nil
	}
	err := os.Link(src, dst)
	switch {
	case err == nil:
		if rmErr := os.Remove(src); rmErr != nil {
			_ = os.Remove(dst)
			return fmt.Errorf("remove %s after link: %w", src, rmErr)
		}
		return nil
	case errors.Is(err, fs.ErrExist):
		same, sameErr := sameFile(src, dst)
		if sameErr != nil {
			return sameErr
		}
		if !same {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		return os.Rename(src, dst)
	case errors.Is(err, fs.ErrNotExist):
		return err
	}
	return renameIfAbsent(src, dst)
}

func sameFile(a, b string) (bool, error) {
	aInfo, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	bInfo, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	return os.SameFile(aInfo, bInfo), nil
}

func renameIfAbsent(src, dst string) error {
	if dstInfo, err := os.Stat(dst); err == nil {
		srcInfo, srcErr := os.Stat(src)
		if srcErr != nil {
			return srcErr
		}
		if !os.SameFile(srcInfo, dstInfo) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.Rename(src, dst)
}
