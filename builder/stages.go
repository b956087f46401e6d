package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/projecteru2/core/log"

	"github.com/circuitsable/win2go/boot"
	"github.com/circuitsable/win2go/cleanup"
	"github.com/circuitsable/win2go/config"
	"github.com/circuitsable/win2go/iso"
	"github.com/circuitsable/win2go/mount"
	"github.com/circuitsable/win2go/partition"
	"github.com/circuitsable/win2go/runner"
	"github.com/circuitsable/win2go/utils"
	"github.com/circuitsable/win2go/wim"
)

// driversDirName is the folder inside the Windows partition that receives
// the driver directory.
const driversDirName = "Drivers"

// state carries what earlier stages produced.
type state struct {
	opts     Options
	result   *Result
	teardown *cleanup.Handler

	espPath, winPath string
	imageDir         string
	bootDir          string
}

// prepareSource mounts the ISO and resolves the edition before anything
// touches the drive.
func (b *Builder) prepareSource(ctx context.Context, s *state) error {
	s.teardown.Add("unmount", cleanup.Unmount(b.mounter, b.conf.MountPoints()...))
	if err := mount.UnmountAll(ctx, b.mounter, b.conf.MountPoints()...); err != nil {
		return fmt.Errorf("free mount points: %w", err)
	}
	if err := iso.Mount(ctx, b.mounter, s.opts.ISO.Path, b.conf.ISOMount); err != nil {
		return err
	}
	img, err := wim.FindInstallImage(b.conf.ISOMount)
	if err != nil {
		return err
	}
	editions, err := wim.Info(ctx, b.runner, img)
	if err != nil {
		return err
	}
	edition, err := wim.Select(editions, s.opts.ImageIndex)
	if err != nil {
		return err
	}
	s.result.Image, s.result.Edition = img, edition
	log.WithFunc("builder.prepareSource").Infof(ctx, "using %s index %d (%s)", img.Path, edition.Index, edition.Name)
	return nil
}

// unmountTarget releases every mounted partition of the drive.
func (b *Builder) unmountTarget(ctx context.Context, s *state) error {
	logger := log.WithFunc("builder.unmountTarget")
	for _, mp := range s.opts.Drive.MountedPaths() {
		if mp == "[SWAP]" {
			return fmt.Errorf("%s has active swap, run swapoff first", s.opts.Drive.Path)
		}
		mounted, err := b.mounter.IsMounted(mp)
		if err != nil {
			return err
		}
		if !mounted {
			continue
		}
		logger.Infof(ctx, "unmounting %s", mp)
		if err := b.mounter.Unmount(ctx, mp); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) partition(ctx context.Context, s *state) error {
	espSize, err := b.conf.ESPBytes()
	if err != nil {
		return err
	}
	dev := s.opts.Drive.Path
	layout, err := partition.Plan(dev, s.opts.Drive.Size, b.sectorSize(dev), espSize)
	if err != nil {
		return err
	}
	if err := b.partitioner.Partition(ctx, layout); err != nil {
		return err
	}
	s.espPath, s.winPath = layout.Paths()
	s.result.Layout = layout
	return b.waitPartitions(ctx, s.espPath, s.winPath)
}

func (b *Builder) format(ctx context.Context, s *state) error {
	return partition.Format(ctx, b.runner, s.espPath, s.winPath)
}

func (b *Builder) mountTarget(ctx context.Context, s *state) error {
	if err := b.mounter.Mount(ctx, s.espPath, b.conf.BootMount); err != nil {
		return err
	}
	return b.mounter.Mount(ctx, s.winPath, b.conf.WinMount)
}

// extract expands the edition into a scratch directory.
func (b *Builder) extract(ctx context.Context, s *state) error {
	var err error
	if s.imageDir, err = b.scratchDir(s, "image"); err != nil {
		return err
	}
	return wim.Apply(ctx, b.runner, s.result.Image, s.result.Edition, s.imageDir)
}

func (b *Builder) stageBoot(ctx context.Context, s *state) error {
	var err error
	if s.bootDir, err = b.scratchDir(s, "boot"); err != nil {
		return err
	}
	return boot.Stage(ctx, b.runner, b.conf.ISOMount, s.imageDir, s.bootDir)
}

func (b *Builder) copyFiles(ctx context.Context, s *state) error {
	win := runner.Command("rsync", "-aH", "--no-owner", "--no-group", s.imageDir+"/", b.conf.WinMount+"/").
		WithLabel("Copying Windows files")
	if err := b.runner.Run(ctx, win); err != nil {
		return fmt.Errorf("copy Windows files: %w", err)
	}
	if err := b.runner.Run(ctx, runner.Command("rsync", "-r", s.bootDir+"/", b.conf.BootMount+"/")); err != nil {
		return fmt.Errorf("copy boot files: %w", err)
	}
	return nil
}

func (b *Builder) injectDrivers(ctx context.Context, s *state) error {
	src := s.opts.DriversDir
	if !utils.IsDir(src) {
		return fmt.Errorf("driver directory %s: not a directory", src)
	}
	dst := filepath.Join(b.conf.WinMount, driversDirName)
	if err := os.MkdirAll(dst, 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("create %s: %w", dst, err)
	}
	cmd := runner.Command("rsync", "-r", src+"/", dst+"/").WithLabel("Copying drivers")
	if err := b.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("copy drivers: %w", err)
	}
	return nil
}

// finish flushes writes and unmounts the ISO, ESP and Windows partition.
func (b *Builder) finish(ctx context.Context, _ *state) error {
	if err := b.runner.Run(ctx, runner.Command("sync").WithLabel("Flushing writes to disk")); err != nil {
		return err
	}
	return mount.UnmountAll(ctx, b.mounter, b.conf.MountPoints()...)
}

// scratchDir creates a scratch directory and registers its removal.
func (b *Builder) scratchDir(s *state, kind string) (string, error) {
	dir, err := os.MkdirTemp(b.conf.TempDir, config.ScratchPattern(kind))
	if err != nil {
		return "", fmt.Errorf("create %s scratch dir: %w", kind, err)
	}
	s.teardown.Add("remove "+dir, cleanup.RemoveDir(dir))
	return dir, nil
}
