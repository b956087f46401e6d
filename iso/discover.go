// Package iso finds, downloads, inspects and mounts Windows installation ISOs.
package iso

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	units "github.com/docker/go-units"
	"github.com/projecteru2/core/log"
)

// Candidate is a local ISO file offered for selection.
type Candidate struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// String renders the selection line.
func (c Candidate) String() string {
	return fmt.Sprintf("%s (%s, %s)", c.Path, units.HumanSize(float64(c.Size)), c.ModTime.Format("2006-01-02"))
}

// Discover lists *.iso files (any case) directly inside dirs, newest first.
// Missing or unreadable directories are skipped.
func Discover(ctx context.Context, dirs ...string) []Candidate {
	logger := log.WithFunc("iso.Discover")
	seen := map[string]bool{}
	var out []Candidate
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		entries, err := os.ReadDir(abs)
		if err != nil {
			logger.Debugf(ctx, "skip %s: %v", abs, err)
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".iso") {
				continue
			}
			p := filepath.Join(abs, e.Name())
			if seen[p] {
				continue
			}
			info, err := e.Info()
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			seen[p] = true
			out = append(out, Candidate{Path: p, Size: info.Size(), ModTime: info.ModTime()})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out
}

// IsURL reports whether s is an HTTP(S) URL rather than a local path.
func IsURL(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
