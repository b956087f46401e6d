package gc

import (
	"context"
	"fmt"
	"strings"

	"github.com/projecteru2/core/log"

	"github.com/circuitsable/win2go/lock"
)

// Orchestrator runs every registered module under one lock.
type Orchestrator struct {
	locker  lock.Locker
	modules []runner
}

// New creates an Orchestrator guarded by locker, normally the build lock:
// nothing a running build owns may be collected.
func New(locker lock.Locker) *Orchestrator { return &Orchestrator{locker: locker} }

// Register adds a typed Module to the Orchestrator.
// This is a package-level function (not a method) because Go methods cannot
// have type parameters.
func Register[S any](o *Orchestrator, m Module[S]) {
	o.modules = append(o.modules, m)
}

// Run executes one collection cycle. It fails with lock.ErrBusy while a
// build holds the lock. A failing module does not stop the others.
func (o *Orchestrator) Run(ctx context.Context) error {
	logger := log.WithFunc("gc.Run")
	if err := lock.Acquire(ctx, o.locker, "a build is running"); err != nil {
		return err
	}
	defer o.locker.Unlock(ctx) //nolint:errcheck

	var errs []string
	for _, m := range o.modules {
		n, err := m.collectAll(ctx)
		if err != nil {
			logger.Warnf(ctx, "%s: %v", m.getName(), err)
			errs = append(errs, fmt.Sprintf("%s: %v", m.getName(), err))
			continue
		}
		logger.Infof(ctx, "%s: collected %d", m.getName(), n)
	}
	if len(errs) > 0 {
		return fmt.Errorf("gc errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
