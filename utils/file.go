package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/projecteru2/core/log"
)

// StaleTempAge is the age after which a leftover scratch directory is
// considered abandoned.
const StaleTempAge = time.Hour

// EnsureDirs creates all directories with 0o750 permissions.
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ValidFile returns true if path is a regular file with size > 0.
func ValidFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// IsDir returns true if path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FindFold resolves a slash-separated relative path under root, matching each
// element case-insensitively. Windows media mixes "EFI"/"efi" and
// "Sources"/"sources" depending on how the ISO was authored.
func FindFold(root, rel string) (string, bool) {
	cur := root
	for _, elem := range strings.Split(filepath.ToSlash(rel), "/") {
		if elem == "" {
			continue
		}
		if _, err := os.Lstat(filepath.Join(cur, elem)); err == nil {
			cur = filepath.Join(cur, elem)
			continue
		}
		entries, err := os.ReadDir(cur)
		if err != nil {
			return "", false
		}
		found := false
		for _, e := range entries {
			if strings.EqualFold(e.Name(), elem) {
				cur = filepath.Join(cur, e.Name())
				found = true
				break
			}
		}
		if !found {
			return "", false
		}
	}
	return cur, true
}

// CopyFile copies src to dst, creating parent directories as needed.
func CopyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // paths come from the mounted image
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("create directory for %s: %w", dst, err)
	}
	out, err := os.Create(dst) //nolint:gosec
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck,gosec
		return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}
	return out.Close()
}

// RemoveMatching scans dir and removes entries where match returns true.
// Returns a slice of errors for entries that could not be removed.
func RemoveMatching(ctx context.Context, dir string, match func(os.DirEntry) bool) ([]string, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []error{fmt.Errorf("read %s: %w", dir, err)}
	}

	var (
		removed []string
		errs    []error
	)
	for _, e := range entries {
		if !match(e) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		} else {
			log.WithFunc("utils.RemoveMatching").Infof(ctx, "removed: %s", path)
			removed = append(removed, path)
		}
	}
	return removed, errs
}

// OlderThan returns a RemoveMatching predicate selecting entries whose name
// starts with prefix and whose mtime is older than age.
func OlderThan(prefix string, age time.Duration) func(os.DirEntry) bool {
	cutoff := time.Now().Add(-age)
	return func(e os.DirEntry) bool {
		if !strings.HasPrefix(e.Name(), prefix) {
			return false
		}
		info, err := e.Info()
		return err == nil && info.ModTime().Before(cutoff)
	}
}
