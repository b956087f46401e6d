package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/circuitsable/win2go/lock"
	"github.com/circuitsable/win2go/storage"
	"github.com/circuitsable/win2go/utils"
)

var _ storage.Store[struct{}] = (*Store[struct{}])(nil)

// Store provides lock-protected read/modify/write access to a JSON file.
// If *T implements storage.Initer, Init() is called after every load.
type Store[T any] struct {
	locker   lock.Locker
	filePath string
}

// New creates a Store guarded by locker.
func New[T any](locker lock.Locker, filePath string) *Store[T] {
	return &Store[T]{locker: locker, filePath: filePath}
}

// With loads the JSON file under lock and passes the data to fn.
// A missing file yields a zero-value T.
func (s *Store[T]) With(ctx context.Context, fn func(*T) error) error {
	return lock.WithLock(ctx, s.locker, func() error {
		data, err := s.load()
		if err != nil {
			return err
		}
		return fn(data)
	})
}

// Update performs a read-modify-write under lock.
// If fn returns nil the data is atomically written back.
func (s *Store[T]) Update(ctx context.Context, fn func(*T) error) error {
	return s.With(ctx, func(data *T) error {
		if err := fn(data); err != nil {
			return err
		}
		return utils.AtomicWriteJSON(s.filePath, data)
	})
}

func (s *Store[T]) load() (*T, error) {
	var data T
	raw, err := os.ReadFile(s.filePath) //nolint:gosec // internal state file
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", s.filePath, err)
	default:
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("parse %s: %w", s.filePath, err)
		}
	}
	if initer, ok := any(&data).(storage.Initer); ok {
		initer.Init()
	}
	return &data, nil
}
