// Package cleanup runs best-effort teardown steps on exit.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/projecteru2/core/log"

	"github.com/circuitsable/win2go/mount"
	"github.com/circuitsable/win2go/prompt"
)

// Step is one named teardown action.
type Step struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Handler collects steps and runs them once, newest first.
type Handler struct {
	mu    sync.Mutex
	steps []Step
	ran   bool
}

// New returns an empty Handler.
func New() *Handler { return &Handler{} }

// Add registers a step. Steps added after Run are ignored.
func (h *Handler) Add(name string, fn func(ctx context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ran {
		return
	}
	h.steps = append(h.steps, Step{Name: name, Fn: fn})
}

// Run executes the registered steps in reverse order. Failures are logged
// and do not stop later steps; the joined error is returned for callers that
// want it. Run ignores ctx cancellation so it still works after SIGINT.
func (h *Handler) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.ran {
		h.mu.Unlock()
		return nil
	}
	h.ran = true
	steps := h.steps
	h.steps = nil
	h.mu.Unlock()

	logger := log.WithFunc("cleanup.Run")
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		logger.Debugf(ctx, "cleanup: %s", s.Name)
		if err := s.Fn(ctx); err != nil {
			logger.Warnf(ctx, "cleanup %s: %v", s.Name, err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Unmount returns a step unmounting each target that is mounted.
func Unmount(m mount.Mounter, targets ...string) func(context.Context) error {
	return func(ctx context.Context) error {
		return mount.UnmountAll(ctx, m, targets...)
	}
}

// RemoveDir returns a step deleting dir and everything below it.
func RemoveDir(dir string) func(context.Context) error {
	return func(context.Context) error {
		return os.RemoveAll(dir)
	}
}

// DeleteDownload returns a step that offers to delete a downloaded ISO.
func DeleteDownload(p prompt.Prompter, path string) func(context.Context) error {
	return func(ctx context.Context) error {
		ok, err := p.Confirm(fmt.Sprintf("Delete downloaded ISO %s?", path), false)
		if err != nil || !ok {
			if errors.Is(err, prompt.ErrNoInput) {
				return nil
			}
			return err
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		log.WithFunc("cleanup.DeleteDownload").Infof(ctx, "deleted %s", path)
		return nil
	}
}
