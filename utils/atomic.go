package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// AtomicFile is a temp file that becomes visible at its final path only on
// Commit. Abort (or a failed Commit) removes the temp file.
type AtomicFile struct {
	*os.File
	path string
	done bool
}

// CreateAtomic opens a temp file next to path.
func CreateAtomic(path string) (*AtomicFile, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &AtomicFile{File: tmp, path: path}, nil
}

// Commit fsyncs, applies perm and renames the temp file onto the final path.
func (f *AtomicFile) Commit(perm os.FileMode) (err error) {
	if f.done {
		return fmt.Errorf("commit %s: already finished", f.path)
	}
	f.done = true
	tmpPath := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if err = f.Sync(); err != nil {
		f.File.Close() //nolint:errcheck,gosec
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = f.Chmod(perm); err != nil {
		f.File.Close() //nolint:errcheck,gosec
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = f.File.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("rename temp to target: %w", err)
	}
	if err = SyncParentDir(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("sync parent dir: %w", err)
	}
	return nil
}

// Abort discards the temp file. Safe to call after Commit.
func (f *AtomicFile) Abort() {
	if f.done {
		return
	}
	f.done = true
	f.File.Close()         //nolint:errcheck,gosec
	_ = os.Remove(f.Name()) //nolint:gosec
}

// AtomicWriteFile writes data to path via an AtomicFile.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	f, err := CreateAtomic(path)
	if err != nil {
		return err
	}
	defer f.Abort()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	return f.Commit(perm)
}

// AtomicWriteJSON marshals v to JSON and writes it atomically.
func AtomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	data = append(data, '\n')
	return AtomicWriteFile(path, data, 0o644)
}

// SyncParentDir fsyncs dir so a rename inside it is persisted.
func SyncParentDir(dir string) error {
	parent, err := os.Open(dir) //nolint:gosec // directory is derived from a win2go-managed path
	if err != nil {
		return err
	}
	defer parent.Close() //nolint:errcheck

	if err := parent.Sync(); err != nil &&
		!errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTSUP) && !errors.Is(err, syscall.EBADF) {
		return err
	}
	return nil
}
