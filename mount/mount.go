// Package mount attaches and detaches filesystems at win2go's fixed mount
// points.
package mount

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/projecteru2/core/log"
	"golang.org/x/sys/unix"

	"github.com/circuitsable/win2go/runner"
	"github.com/circuitsable/win2go/utils"
)

const (
	busyTimeout  = 5 * time.Second
	busyInterval = 500 * time.Millisecond
)

// Mounter mounts and unmounts filesystems.
type Mounter interface {
	Mount(ctx context.Context, source, target string, options ...string) error
	Unmount(ctx context.Context, target string) error
	IsMounted(target string) (bool, error)
}

// System mounts through the mount binary and unmounts with umount(2).
type System struct {
	runner    runner.Runner
	mountinfo string
}

// NewSystem returns a System that runs mount(8) through r.
func NewSystem(r runner.Runner) *System {
	return &System{runner: r, mountinfo: "/proc/self/mountinfo"}
}

// Mount creates target if needed and mounts source on it.
func (s *System) Mount(ctx context.Context, source, target string, options ...string) error {
	if err := os.MkdirAll(target, 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("create mount point %s: %w", target, err)
	}
	var args []string
	if len(options) > 0 {
		args = append(args, "-o", strings.Join(options, ","))
	}
	args = append(args, source, target)
	if err := s.runner.Run(ctx, runner.Command("mount", args...)); err != nil {
		return fmt.Errorf("mount %s on %s: %w", source, target, err)
	}
	log.WithFunc("mount.Mount").Debugf(ctx, "mounted %s on %s", source, target)
	return nil
}

// Unmount detaches target, retrying briefly while it is busy.
func (s *System) Unmount(ctx context.Context, target string) error {
	logger := log.WithFunc("mount.Unmount")
	err := utils.WaitFor(ctx, busyTimeout, busyInterval, func() (bool, error) {
		err := unix.Unmount(target, 0)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, unix.EBUSY):
			logger.Debugf(ctx, "%s busy, retrying", target)
			unix.Sync()
			return false, nil
		default:
			return false, err
		}
	})
	if err != nil {
		return fmt.Errorf("unmount %s: %w", target, err)
	}
	logger.Debugf(ctx, "unmounted %s", target)
	return nil
}

// IsMounted reports whether target is a mount point.
func (s *System) IsMounted(target string) (bool, error) {
	entries, err := s.Mounts()
	if err != nil {
		return false, err
	}
	target = filepath.Clean(target)
	for _, e := range entries {
		if e.Target == target {
			return true, nil
		}
	}
	return false, nil
}

// Mounts returns the current mount table.
func (s *System) Mounts() ([]Entry, error) {
	f, err := os.Open(s.mountinfo)
	if err != nil {
		return nil, fmt.Errorf("read mount table: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return ParseMountinfo(f)
}

// UnmountAll unmounts every mounted target, skipping the rest. Failures are
// joined.
func UnmountAll(ctx context.Context, m Mounter, targets ...string) error {
	var errs []error
	for _, t := range targets {
		mounted, err := m.IsMounted(t)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !mounted {
			continue
		}
		if err := m.Unmount(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
