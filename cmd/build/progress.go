package build

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gosuri/uilive"
	"github.com/projecteru2/core/log"
	"golang.org/x/term"

	cmdcore "github.com/circuitsable/win2go/cmd/core"
	"github.com/circuitsable/win2go/progress"
	buildProgress "github.com/circuitsable/win2go/progress/build"
	downloadProgress "github.com/circuitsable/win2go/progress/download"
)

// plainStep is the percentage step between progress lines on non-terminals.
const plainStep = 10

// buildTracker prints one line per stage.
func buildTracker(out io.Writer) progress.Tracker {
	return progress.NewTracker(func(e buildProgress.Event) {
		fmt.Fprintln(out, e.String()) //nolint:errcheck
	})
}

// downloadTracker renders download progress on out. On a terminal the byte
// count is redrawn in place, elsewhere a line is printed every plainStep
// percent.
func downloadTracker(ctx context.Context, out io.Writer) progress.Tracker {
	logger := log.WithFunc("cmd.download")
	var live *uilive.Writer
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec
		live = uilive.New()
		live.Out = out
	}
	lastStep := int64(-1)
	return progress.NewTracker(func(e downloadProgress.Event) {
		switch e.Phase {
		case downloadProgress.PhaseStart:
			if e.BytesTotal > 0 {
				logger.Infof(ctx, "downloading %s (%s)", e.Path, cmdcore.FormatSize(e.BytesTotal))
			} else {
				logger.Infof(ctx, "downloading %s", e.Path)
			}
		case downloadProgress.PhaseDecompress:
			logger.Info(ctx, "decompressing while downloading")
		case downloadProgress.PhaseProgress:
			if live != nil {
				fmt.Fprintln(live, progressLine(e)) //nolint:errcheck
				_ = live.Flush()
				return
			}
			if e.BytesTotal <= 0 {
				return
			}
			if step := e.BytesDone * 100 / e.BytesTotal / plainStep; step != lastStep {
				lastStep = step
				fmt.Fprintln(out, progressLine(e)) //nolint:errcheck
			}
		case downloadProgress.PhaseDone:
			logger.Infof(ctx, "saved %s (%s)", e.Path, cmdcore.FormatSize(e.BytesDone))
		}
	})
}

func progressLine(e downloadProgress.Event) string {
	if e.BytesTotal > 0 {
		pct := float64(e.BytesDone) / float64(e.BytesTotal) * 100 //nolint:mnd
		return fmt.Sprintf("  %s / %s (%.1f%%)", cmdcore.FormatSize(e.BytesDone), cmdcore.FormatSize(e.BytesTotal), pct)
	}
	return fmt.Sprintf("  %s downloaded", cmdcore.FormatSize(e.BytesDone))
}
