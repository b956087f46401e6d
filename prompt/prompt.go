// Package prompt asks the user questions on a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

var (
	// ErrNoInput is returned when stdin is closed before an answer is read.
	ErrNoInput = errors.New("no input")
	// ErrDeclined is returned by Require when the user answers no.
	ErrDeclined = errors.New("declined by user")
)

const maxAttempts = 3

// Prompter asks questions and returns the answers.
type Prompter interface {
	Confirm(question string, def bool) (bool, error)
	Ask(question, def string) (string, error)
	Select(title string, options []string) (int, error)
}

// Terminal is a line-based Prompter.
type Terminal struct {
	in          *bufio.Reader
	out         io.Writer
	autoYes     bool
	interactive bool
}

// New returns a Terminal reading from in and writing to out. With autoYes
// every Confirm returns true without reading.
func New(in io.Reader, out io.Writer, autoYes bool) *Terminal {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd())) //nolint:gosec
	}
	return &Terminal{
		in:          bufio.NewReader(in),
		out:         out,
		autoYes:     autoYes,
		interactive: interactive,
	}
}

// Stdio returns a Terminal on stdin/stdout.
func Stdio(autoYes bool) *Terminal {
	return New(os.Stdin, os.Stdout, autoYes)
}

// Interactive reports whether input comes from a terminal.
func (t *Terminal) Interactive() bool { return t.interactive }

// Confirm asks a yes/no question. An empty answer picks def.
func (t *Terminal) Confirm(question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	if t.autoYes {
		fmt.Fprintf(t.out, "%s %s y\n", question, hint) //nolint:errcheck
		return true, nil
	}
	for range maxAttempts {
		fmt.Fprintf(t.out, "%s %s ", question, hint) //nolint:errcheck
		line, err := t.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(t.out, "Please answer yes or no.") //nolint:errcheck
	}
	return false, fmt.Errorf("%s: %w", question, ErrNoInput)
}

// Ask reads a free-form answer. An empty answer picks def.
func (t *Terminal) Ask(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(t.out, "%s [%s]: ", question, def) //nolint:errcheck
	} else {
		fmt.Fprintf(t.out, "%s: ", question) //nolint:errcheck
	}
	line, err := t.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// Select shows a numbered list and returns the chosen 0-based index.
// A single option is chosen without asking.
func (t *Terminal) Select(title string, options []string) (int, error) {
	switch len(options) {
	case 0:
		return -1, fmt.Errorf("%s: nothing to choose from", title)
	case 1:
		fmt.Fprintf(t.out, "%s: %s\n", title, options[0]) //nolint:errcheck
		return 0, nil
	}
	fmt.Fprintf(t.out, "%s:\n", title) //nolint:errcheck
	for i, o := range options {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, o) //nolint:errcheck
	}
	for range maxAttempts {
		fmt.Fprintf(t.out, "Choice [1-%d]: ", len(options)) //nolint:errcheck
		line, err := t.readLine()
		if err != nil {
			return -1, err
		}
		n, convErr := strconv.Atoi(line)
		if convErr == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(t.out, "Invalid choice %q.\n", line) //nolint:errcheck
	}
	return -1, fmt.Errorf("%s: %w", title, ErrNoInput)
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(t.out) //nolint:errcheck
			return "", ErrNoInput
		}
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Require asks question and returns ErrDeclined unless the answer is yes.
func Require(p Prompter, question string) error {
	ok, err := p.Confirm(question, false)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDeclined
	}
	return nil
}
