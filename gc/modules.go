package gc

import (
	"context"
	"errors"
	"os"
	"slices"
	"time"

	"github.com/circuitsable/win2go/config"
	"github.com/circuitsable/win2go/mount"
	"github.com/circuitsable/win2go/utils"
)

// ScratchModule collects win2go scratch directories in dir older than age.
func ScratchModule(dir string, age time.Duration) Module[[]string] {
	return Module[[]string]{
		Name: "scratch",
		Snapshot: func(context.Context) ([]string, error) {
			entries, err := os.ReadDir(dir)
			if err != nil {
				if os.IsNotExist(err) {
					return nil, nil
				}
				return nil, err
			}
			stale := utils.OlderThan(config.ScratchPrefix, age)
			var names []string
			for _, e := range entries {
				if e.IsDir() && stale(e) {
					names = append(names, e.Name())
				}
			}
			return names, nil
		},
		Resolve: func(names []string) []string { return names },
		Collect: func(ctx context.Context, ids []string) error {
			_, errs := utils.RemoveMatching(ctx, dir, func(e os.DirEntry) bool {
				return slices.Contains(ids, e.Name())
			})
			return errors.Join(errs...)
		},
	}
}

// MountModule collects mounts left on the fixed mount points.
func MountModule(m mount.Mounter, targets ...string) Module[[]string] {
	return Module[[]string]{
		Name: "mounts",
		Snapshot: func(context.Context) ([]string, error) {
			var mounted []string
			for _, t := range targets {
				ok, err := m.IsMounted(t)
				if err != nil {
					return nil, err
				}
				if ok {
					mounted = append(mounted, t)
				}
			}
			return mounted, nil
		},
		Resolve: func(mounted []string) []string { return mounted },
		Collect: func(ctx context.Context, ids []string) error {
			return mount.UnmountAll(ctx, m, ids...)
		},
	}
}
