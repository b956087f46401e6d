// Package spinner runs a blocking command in the background and renders a
// rotating glyph with the elapsed time until it exits.
package spinner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/gosuri/uilive"
	"github.com/projecteru2/core/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/circuitsable/win2go/utils"
)

const (
	defaultInterval   = 200 * time.Millisecond
	defaultPlainEvery = 30 * time.Second
	tailBytes         = 4096
)

var glyphs = []rune{'|', '/', '-', '\\'}

// Spinner renders progress for one command at a time.
type Spinner struct {
	out         io.Writer
	interactive bool

	// Interval is the liveness poll / redraw period.
	Interval time.Duration
	// PlainEvery is the progress line period on non-terminals.
	PlainEvery time.Duration

	now func() time.Time
}

// New returns a Spinner writing to out. A live-updating line is used only
// when out is a terminal.
func New(out io.Writer) *Spinner {
	interactive := false
	if f, ok := out.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd())) //nolint:gosec
	}
	return &Spinner{
		out:         out,
		interactive: interactive,
		Interval:    defaultInterval,
		PlainEvery:  defaultPlainEvery,
		now:         time.Now,
	}
}

// Interactive reports whether the spinner draws a live line.
func (s *Spinner) Interactive() bool { return s.interactive }

// Run starts cmd and blocks until it exits. cmd must not have been started
// and must not be bound to a context; Ctrl-C reaches it through the shared
// process group. The returned error carries the tail of the command output.
func (s *Spinner) Run(ctx context.Context, label string, cmd *exec.Cmd) error {
	logger := log.WithFunc("spinner.Run")

	tail := &tailBuffer{max: tailBytes}
	if cmd.Stdout == nil {
		cmd.Stdout = tail
	}
	if cmd.Stderr == nil {
		cmd.Stderr = tail
	}

	start := s.now()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	logger.Debugf(ctx, "%s: pid %d", label, cmd.Process.Pid)

	done := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		defer close(done)
		return cmd.Wait()
	})
	g.Go(func() error {
		s.render(label, start, done)
		return nil
	})

	err := g.Wait()
	elapsed := s.now().Sub(start).Round(time.Second)
	if err != nil {
		fmt.Fprintf(s.out, "%s failed after %s\n", label, elapsed) //nolint:errcheck
		if t := tail.String(); t != "" {
			return fmt.Errorf("%s: %s: %w", label, t, err)
		}
		return fmt.Errorf("%s: %w", label, err)
	}
	fmt.Fprintf(s.out, "%s done in %s\n", label, elapsed) //nolint:errcheck
	return nil
}

// render polls done at Interval until the command exits.
func (s *Spinner) render(label string, start time.Time, done <-chan struct{}) {
	alive := func() bool {
		select {
		case <-done:
			return false
		default:
			return true
		}
	}

	var live *uilive.Writer
	if s.interactive {
		live = uilive.New()
		live.Out = s.out
	}

	frame := 0
	lastPlain := start
	// WaitFor with no timeout only ends when alive reports false.
	_ = utils.WaitFor(context.Background(), 0, s.Interval, func() (bool, error) {
		if !alive() {
			return true, nil
		}
		elapsed := s.now().Sub(start).Round(time.Second)
		switch {
		case live != nil:
			fmt.Fprintf(live, "%c %s %s\n", glyphs[frame%len(glyphs)], label, elapsed) //nolint:errcheck
			_ = live.Flush()
		case s.now().Sub(lastPlain) >= s.PlainEvery:
			lastPlain = s.now()
			fmt.Fprintf(s.out, "%s ... %s\n", label, elapsed) //nolint:errcheck
		}
		frame++
		return false, nil
	})
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return trimOutput(t.buf)
}
