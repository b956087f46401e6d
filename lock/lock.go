package lock

import (
	"context"
	"errors"
	"fmt"
)

// ErrBusy is returned by Acquire when another holder has the lock.
var ErrBusy = errors.New("lock busy")

// Locker provides mutual exclusion with context support.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
	TryLock(ctx context.Context) (bool, error)
}

// WithLock runs fn while holding l.
func WithLock(ctx context.Context, l Locker, fn func() error) error {
	if err := l.Lock(ctx); err != nil {
		return err
	}
	defer l.Unlock(ctx) //nolint:errcheck
	return fn()
}

// Acquire takes l without blocking. It fails with ErrBusy when l is held
// elsewhere; on success the caller must Unlock.
func Acquire(ctx context.Context, l Locker, what string) error {
	ok, err := l.TryLock(ctx)
	if err != nil {
		return fmt.Errorf("lock %s: %w", what, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", what, ErrBusy)
	}
	return nil
}
