// Package history persists a record of every build run.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/projecteru2/core/log"

	"github.com/circuitsable/win2go/config"
	"github.com/circuitsable/win2go/lock/flock"
	"github.com/circuitsable/win2go/storage"
	storejson "github.com/circuitsable/win2go/storage/json"
	"github.com/circuitsable/win2go/types"
)

// MaxRuns is how many records are kept; older ones are dropped.
const MaxRuns = 50

// Interrupted is the error text recorded for runs whose process died.
const Interrupted = "interrupted"

type index struct {
	Runs []*types.Run `json:"runs"`
}

func (i *index) Init() {
	if i.Runs == nil {
		i.Runs = []*types.Run{}
	}
}

func (i *index) find(id string) *types.Run {
	for _, r := range i.Runs {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// History records runs in a JSON file.
type History struct {
	store storage.Store[index]
	now   func() time.Time
}

// New opens the history file configured in conf.
func New(conf *config.Config) *History {
	return &History{
		store: storejson.New[index](flock.New(conf.HistoryLock()), conf.HistoryFile()),
		now:   time.Now,
	}
}

// Start records a new running run and returns it.
func (h *History) Start(ctx context.Context, iso, drive string, imageIndex int) (*types.Run, error) {
	run := &types.Run{
		ID:        uuid.NewString(),
		ISO:       iso,
		Drive:     drive,
		Index:     imageIndex,
		Status:    types.RunStatusRunning,
		StartedAt: h.now().UTC(),
	}
	if err := h.store.Update(ctx, func(idx *index) error {
		idx.Runs = append(idx.Runs, run)
		if over := len(idx.Runs) - MaxRuns; over > 0 {
			idx.Runs = idx.Runs[over:]
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	log.WithFunc("history.Start").Debugf(ctx, "run %s started", run.ID)
	return run, nil
}

// Finish marks run id succeeded, or failed with runErr.
func (h *History) Finish(ctx context.Context, id string, runErr error) error {
	return h.store.Update(ctx, func(idx *index) error {
		r := idx.find(id)
		if r == nil {
			return fmt.Errorf("run %s not found", id)
		}
		now := h.now().UTC()
		r.FinishedAt = &now
		r.Status = types.RunStatusSucceeded
		r.Error = ""
		if runErr != nil {
			r.Status = types.RunStatusFailed
			r.Error = runErr.Error()
		}
		return nil
	})
}

// List returns all runs, newest first.
func (h *History) List(ctx context.Context) ([]types.Run, error) {
	return storage.Read(ctx, h.store, func(idx *index) []types.Run {
		out := make([]types.Run, 0, len(idx.Runs))
		for i := len(idx.Runs) - 1; i >= 0; i-- {
			out = append(out, *idx.Runs[i])
		}
		return out
	})
}

// MarkInterrupted fails the given running runs. Runs that finished in the
// meantime are left alone.
func (h *History) MarkInterrupted(ctx context.Context, ids []string) error {
	return h.store.Update(ctx, func(idx *index) error {
		now := h.now().UTC()
		for _, id := range ids {
			r := idx.find(id)
			if r == nil || r.Status != types.RunStatusRunning {
				continue
			}
			r.Status = types.RunStatusFailed
			r.Error = Interrupted
			r.FinishedAt = &now
		}
		return nil
	})
}
