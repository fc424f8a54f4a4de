// Package fs provides the filesystem primitives the trash core is built on:
// exclusive creation, rename-first moves and atomic file replacement.
package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	cp "github.com/otiai10/copy"
)

// CreateExclusive creates a new file with O_EXCL so that creation is atomic.
// Returns an error satisfying os.IsExist if the file already exists.
func CreateExclusive(path string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
}

// Move moves a file or directory from src to dst using rename(2).
// If the rename fails with EXDEV and fallbackCopy is true, it falls back to
// copy and delete; otherwise the rename error is returned as is.
func Move(src, dst string, fallbackCopy bool) error {
	if err := os.Rename(src, dst); err != nil {
		if !fallbackCopy {
			return err
		}

		if err := cp.Copy(src, dst); err != nil {
			return fmt.Errorf("failed to copy %s: %w", src, err)
		}
		if err := os.RemoveAll(src); err != nil {
			// Keep the filesystem consistent: without the source gone the
			// move did not happen, so take the copy back out.
			_ = os.RemoveAll(dst)
			return fmt.Errorf("failed to remove source after copy: %w", err)
		}
	}
	return nil
}

// WriteFileAtomic writes data to path by writing a temporary file in the
// same directory and renaming it into place. Readers never observe a
// partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	temp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempName := temp.Name()

	cleanup := func() {
		_ = temp.Close()
		_ = os.Remove(tempName)
	}

	if _, err := temp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := temp.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("failed to chmod temporary file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempName)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		_ = os.Remove(tempName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// EntrySize returns the size of the item at path in bytes. Regular files
// report their own size. Directories report the recursive sum of the sizes
// of everything they contain; symlinks count by their own size and are
// never followed.
func EntrySize(path string) (int64, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}

	var total int64
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		// DirEntry.Info has lstat semantics here since WalkDir does not
		// follow symlinks.
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
