package flock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/circuitsable/win2go/lock"
)

const retryDelay = 100 * time.Millisecond

var _ lock.Locker = (*Lock)(nil)

// Lock is a cross-process lock on a file. The size-1 channel gives
// in-process exclusion with context-aware blocking; flock(2) on a fresh fd
// per acquisition gives exclusion against other win2go processes.
type Lock struct {
	path string
	ch   chan struct{}
	fl   *flock.Flock // non-nil while held
}

// New creates a Lock for path. The parent directory is created on first use.
func New(path string) *Lock {
	return &Lock{path: path, ch: make(chan struct{}, 1)}
}

// Lock blocks until the lock is acquired or ctx is done.
func (l *Lock) Lock(ctx context.Context) error {
	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("acquire lock %s: %w", l.path, ctx.Err())
	}
	ok, err := l.acquire(func(fl *flock.Flock) (bool, error) {
		return fl.TryLockContext(ctx, retryDelay)
	})
	if err != nil {
		return fmt.Errorf("acquire flock %s: %w", l.path, err)
	}
	if !ok {
		return fmt.Errorf("acquire flock %s: %w", l.path, ctx.Err())
	}
	return nil
}

// TryLock returns (false, nil) if the lock is held by anyone else.
func (l *Lock) TryLock(_ context.Context) (bool, error) {
	select {
	case l.ch <- struct{}{}:
	default:
		return false, nil
	}
	return l.acquire(func(fl *flock.Flock) (bool, error) {
		return fl.TryLock()
	})
}

// Unlock releases the lock.
func (l *Lock) Unlock(_ context.Context) error {
	var err error
	if l.fl != nil {
		err = l.fl.Unlock()
		l.fl = nil
	}
	select {
	case <-l.ch:
	default:
	}
	if err != nil {
		return fmt.Errorf("release flock %s: %w", l.path, err)
	}
	return nil
}

// acquire opens a fresh flock fd and runs try. On failure the channel token
// is returned so Lock/TryLock and Unlock stay balanced.
func (l *Lock) acquire(try func(*flock.Flock) (bool, error)) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		<-l.ch
		return false, err
	}
	fl := flock.New(l.path)
	locked, err := try(fl)
	if err != nil || !locked {
		<-l.ch
		return false, err
	}
	l.fl = fl
	return true, nil
}
