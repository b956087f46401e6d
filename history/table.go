package history

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/circuitsable/win2go/types"
)

// PrintTable writes runs as an aligned table.
func PrintTable(w io.Writer, runs []types.Run) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0) //nolint:mnd
	fmt.Fprintln(tw, "ID\tSTARTED\tDURATION\tDRIVE\tINDEX\tSTATUS\tISO") //nolint:errcheck
	for _, r := range runs {
		dur := "-"
		if d := r.Duration(); d > 0 {
			dur = d.Round(time.Second).String()
		}
		status := string(r.Status)
		if r.Error != "" {
			status += ": " + r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n", //nolint:errcheck
			r.ID[:min(8, len(r.ID))], r.StartedAt.Local().Format(time.DateTime), dur, r.Drive, r.Index, status, r.ISO)
	}
	return tw.Flush()
}
