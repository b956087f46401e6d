package runner

import (
	"context"
	"strings"
	"sync"
)

// Fake records commands instead of running them. Responses are matched by
// the longest registered prefix of the rendered command line.
type Fake struct {
	mu        sync.Mutex
	calls     []Cmd
	responses map[string]fakeResponse
	// Hook, if set, runs for every command before the scripted response.
	Hook func(Cmd) error
}

type fakeResponse struct {
	out []byte
	err error
}

// NewFake returns an empty Fake; unmatched commands succeed with no output.
func NewFake() *Fake {
	return &Fake{responses: map[string]fakeResponse{}}
}

// On scripts the response for commands whose line starts with prefix.
func (f *Fake) On(prefix string, out []byte, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[prefix] = fakeResponse{out: out, err: err}
	return f
}

// Run implements Runner.
func (f *Fake) Run(ctx context.Context, c Cmd) error {
	_, err := f.Output(ctx, c)
	return err
}

// Output implements Runner.
func (f *Fake) Output(_ context.Context, c Cmd) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	hook := f.Hook
	line := c.String()
	var best string
	resp, found := fakeResponse{}, false
	for prefix, r := range f.responses {
		if strings.HasPrefix(line, prefix) && len(prefix) >= len(best) {
			best, resp, found = prefix, r, true
		}
	}
	f.mu.Unlock()

	if hook != nil {
		if err := hook(c); err != nil {
			return nil, err
		}
	}
	if !found {
		return nil, nil
	}
	return resp.out, resp.err
}

// Calls returns the recorded commands in order.
func (f *Fake) Calls() []Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Cmd(nil), f.calls...)
}

// Lines returns the recorded command lines in order.
func (f *Fake) Lines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}
