// Package storage defines lock-guarded access to a small persistent document,
// such as the run history.
package storage

import "context"

// Initer is optionally implemented by T to fill zero-value fields after a
// load, including when nothing has been stored yet.
type Initer interface {
	Init()
}

// Store guards one document of type T.
type Store[T any] interface {
	// With loads the document under lock and passes it to fn.
	With(ctx context.Context, fn func(*T) error) error
	// Update is a read-modify-write under lock; the document is persisted
	// only when fn returns nil.
	Update(ctx context.Context, fn func(*T) error) error
}

// Read returns fn's view of the document, taken under the store lock.
func Read[T, R any](ctx context.Context, s Store[T], fn func(*T) R) (R, error) {
	var out R
	err := s.With(ctx, func(data *T) error {
		out = fn(data)
		return nil
	})
	return out, err
}
