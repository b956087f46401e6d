// Package gc removes leftovers of interrupted builds: stale scratch
// directories, mounts still attached to the fixed mount points and history
// records stuck in the running state.
package gc

import "context"

// Module is one kind of leftover. S is the module's snapshot type.
type Module[S any] struct {
	Name string

	// Snapshot reads the module's current state.
	// Called while the orchestrator lock is held.
	Snapshot func(ctx context.Context) (S, error)

	// Resolve returns the IDs to collect from the snapshot.
	Resolve func(snap S) []string

	// Collect removes the given IDs.
	Collect func(ctx context.Context, ids []string) error
}

// runner is the internal interface Orchestrator uses to hold heterogeneous
// Module[S] values.
type runner interface {
	getName() string
	collectAll(ctx context.Context) (int, error)
}

func (m Module[S]) getName() string { return m.Name }

func (m Module[S]) collectAll(ctx context.Context) (int, error) {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	ids := m.Resolve(snap)
	if len(ids) == 0 {
		return 0, nil
	}
	return len(ids), m.Collect(ctx, ids)
}
