package drive

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	units "github.com/docker/go-units"

	"github.com/circuitsable/win2go/types"
)

// Label renders one selection line: "/dev/sdb  57.3GB  SanDisk Extreme (usb)".
func Label(d types.Drive) string {
	return fmt.Sprintf("%-14s %9s  %s", d.Path, units.HumanSize(float64(d.Size)), d.Describe())
}

// PrintTable writes drives as an aligned table.
func PrintTable(w io.Writer, drives []types.Drive) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0) //nolint:mnd
	fmt.Fprintln(tw, "DEVICE\tSIZE\tMODEL\tTRANSPORT\tREMOVABLE\tMOUNTED") //nolint:errcheck
	for _, d := range drives {
		mounted := strings.Join(d.MountedPaths(), ",")
		if mounted == "" {
			mounted = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n", //nolint:errcheck
			d.Path, units.HumanSize(float64(d.Size)), orDash(strings.TrimSpace(d.Vendor+" "+d.Model)),
			orDash(d.Transport), d.Removable, mounted)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
