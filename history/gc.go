package history

import (
	"github.com/circuitsable/win2go/gc"
	"github.com/circuitsable/win2go/types"
)

// GCModule marks runs left in the running state as interrupted. It is only
// safe under the build lock, when no build can be in progress.
func (h *History) GCModule() gc.Module[[]types.Run] {
	return gc.Module[[]types.Run]{
		Name:     "history",
		Snapshot: h.List,
		Resolve: func(runs []types.Run) []string {
			var ids []string
			for _, r := range runs {
				if r.Status == types.RunStatusRunning {
					ids = append(ids, r.ID)
				}
			}
			return ids
		},
		Collect: h.MarkInterrupted,
	}
}
