// Package runner executes the external tools win2go drives.
package runner

import (
	"context"
	"strings"
)

// Cmd is one external tool invocation.
type Cmd struct {
	Name string
	Args []string
	// Label, when set, runs the command under the spinner.
	Label string
}

// Command is a shorthand for Cmd{Name: name, Args: args}.
func Command(name string, args ...string) Cmd {
	return Cmd{Name: name, Args: args}
}

// WithLabel returns a copy of c that runs under the spinner.
func (c Cmd) WithLabel(label string) Cmd {
	c.Label = label
	return c
}

// String renders the command line for logs.
func (c Cmd) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t'\"") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Runner runs external commands.
type Runner interface {
	// Run executes c and discards its output.
	Run(ctx context.Context, c Cmd) error
	// Output executes c and returns its stdout.
	Output(ctx context.Context, c Cmd) ([]byte, error)
}
