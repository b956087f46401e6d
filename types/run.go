package types

import "time"

// RunStatus is the outcome of a build run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"   // build in progress, or the process died mid-run
	RunStatusSucceeded RunStatus = "succeeded" // drive written and unmounted
	RunStatusFailed    RunStatus = "failed"    // a stage returned an error
)

// Run is the persisted record of one build.
type Run struct {
	ID     string    `json:"id"`
	ISO    string    `json:"iso"`
	Drive  string    `json:"drive"`
	Index  int       `json:"index"`
	Status RunStatus `json:"status"`
	Error  string    `json:"error,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Duration returns how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
