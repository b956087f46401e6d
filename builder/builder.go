// Package builder runs the Windows To Go build sequence against one drive.
package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/circuitsable/win2go/cleanup"
	"github.com/circuitsable/win2go/config"
	"github.com/circuitsable/win2go/lock"
	"github.com/circuitsable/win2go/lock/flock"
	"github.com/circuitsable/win2go/mount"
	"github.com/circuitsable/win2go/partition"
	"github.com/circuitsable/win2go/progress"
	buildProgress "github.com/circuitsable/win2go/progress/build"
	"github.com/circuitsable/win2go/runner"
	"github.com/circuitsable/win2go/types"
)

// Options selects what to build.
type Options struct {
	ISO   types.SourceImage
	Drive types.Drive
	// ImageIndex selects the edition inside install.wim/esd.
	ImageIndex int
	// DriversDir, when set, is copied into <Windows>/Drivers.
	DriversDir string
}

// Result summarizes a finished build.
type Result struct {
	Image    types.InstallImage
	Edition  types.Edition
	Layout   *partition.Layout
	Duration time.Duration
}

// Builder owns the collaborators a build needs.
type Builder struct {
	conf        *config.Config
	runner      runner.Runner
	mounter     mount.Mounter
	partitioner partition.Partitioner
	tracker     progress.Tracker

	waitPartitions func(ctx context.Context, paths ...string) error
	sectorSize     func(dev string) int64
	now            func() time.Time
}

// New returns a Builder.
func New(conf *config.Config, r runner.Runner, m mount.Mounter, p partition.Partitioner, tracker progress.Tracker) *Builder {
	return &Builder{
		conf:           conf,
		runner:         r,
		mounter:        m,
		partitioner:    p,
		tracker:        progress.OrNop(tracker),
		waitPartitions: partition.WaitForPartitions,
		sectorSize:     partition.SectorSize,
		now:            time.Now,
	}
}

// Build runs every stage in order. It holds the build lock (the mount
// points are shared) and the device lock for the whole run, including the
// teardown of its mounts and scratch directories, which happens before
// Build returns, on success or failure.
func (b *Builder) Build(ctx context.Context, opts Options) (*Result, error) {
	logger := log.WithFunc("builder.Build")
	if opts.ImageIndex < 1 {
		return nil, fmt.Errorf("invalid image index %d", opts.ImageIndex)
	}

	buildLock := flock.New(b.conf.BuildLock())
	if err := lock.Acquire(ctx, buildLock, "another build"); err != nil {
		return nil, err
	}
	defer buildLock.Unlock(ctx) //nolint:errcheck

	devLock := flock.New(b.conf.DeviceLock(opts.Drive.Path))
	if err := lock.Acquire(ctx, devLock, opts.Drive.Path); err != nil {
		return nil, err
	}
	defer devLock.Unlock(ctx) //nolint:errcheck

	s := &state{opts: opts, result: &Result{}, teardown: cleanup.New()}
	// Deferred after the locks, so it runs while they are still held.
	defer s.teardown.Run(ctx) //nolint:errcheck

	stages := b.stages(opts)
	start := b.now()
	for i, st := range stages {
		ev := buildProgress.Event{Index: i + 1, Total: len(stages), Stage: st.name}
		b.tracker.OnEvent(ev)
		logger.Debugf(ctx, "%s", ev)
		if err := st.run(ctx, s); err != nil {
			return nil, fmt.Errorf("%s: %w", st.name, err)
		}
	}
	s.result.Duration = b.now().Sub(start)
	logger.Infof(ctx, "%s ready in %s", opts.Drive.Path, s.result.Duration.Round(time.Second))
	return s.result, nil
}

type stage struct {
	name string
	run  func(ctx context.Context, s *state) error
}

func (b *Builder) stages(opts Options) []stage {
	stages := []stage{
		{buildProgress.StageSource, b.prepareSource},
		{buildProgress.StageUnmount, b.unmountTarget},
		{buildProgress.StagePartition, b.partition},
		{buildProgress.StageFormat, b.format},
		{buildProgress.StageMount, b.mountTarget},
		{buildProgress.StageExtract, b.extract},
		{buildProgress.StageBoot, b.stageBoot},
		{buildProgress.StageCopy, b.copyFiles},
	}
	if opts.DriversDir != "" {
		stages = append(stages, stage{buildProgress.StageDrivers, b.injectDrivers})
	}
	return append(stages, stage{buildProgress.StageFinish, b.finish})
}
