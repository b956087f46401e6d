package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/projecteru2/core/log"

	"github.com/circuitsable/win2go/spinner"
)

// Exec runs commands on the host.
type Exec struct {
	spin *spinner.Spinner
}

// NewExec returns an Exec. Labeled commands are rendered through spin;
// a nil spin runs them like any other command.
func NewExec(spin *spinner.Spinner) *Exec {
	return &Exec{spin: spin}
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, c Cmd) error {
	log.WithFunc("runner.Run").Debugf(ctx, "+ %s", c)
	if c.Label != "" && e.spin != nil {
		// Not bound to ctx: the tool handles SIGINT itself.
		return e.spin.Run(ctx, c.Label, exec.Command(c.Name, c.Args...)) //nolint:gosec
	}
	out, err := exec.CommandContext(ctx, c.Name, c.Args...).CombinedOutput() //nolint:gosec
	if err != nil {
		return toolError(c, out, err)
	}
	return nil
}

// Output implements Runner.
func (e *Exec) Output(ctx context.Context, c Cmd) ([]byte, error) {
	log.WithFunc("runner.Output").Debugf(ctx, "+ %s", c)
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Name, c.Args...) //nolint:gosec
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, toolError(c, stderr.Bytes(), err)
	}
	return out, nil
}

func toolError(c Cmd, out []byte, err error) error {
	if msg := strings.TrimSpace(string(out)); msg != "" {
		return fmt.Errorf("%s: %s: %w", c.Name, msg, err)
	}
	return fmt.Errorf("%s: %w", c.Name, err)
}
