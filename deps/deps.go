// Package deps verifies that the external tools win2go drives are installed.
package deps

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/projecteru2/core/log"

	"github.com/circuitsable/win2go/config"
)

// ErrMissingDependencies is returned when required binaries are not on PATH.
var ErrMissingDependencies = errors.New("missing dependencies")

// Requirement is one binary and the package providing it per OS family.
type Requirement struct {
	Binary   string
	Packages map[Family]string
}

// Package returns the package name for fam, falling back to the binary name.
func (r Requirement) Package(fam Family) string {
	if p, ok := r.Packages[fam]; ok {
		return p
	}
	return r.Binary
}

func same(pkg string) map[Family]string {
	return map[Family]string{Debian: pkg, Fedora: pkg, Arch: pkg, Suse: pkg}
}

var (
	lsblk = Requirement{Binary: "lsblk", Packages: same("util-linux")}
	mount = Requirement{Binary: "mount", Packages: map[Family]string{
		Debian: "mount", Fedora: "util-linux", Arch: "util-linux", Suse: "util-linux",
	}}
	mkfsVfat = Requirement{Binary: "mkfs.vfat", Packages: same("dosfstools")}
	mkfsNTFS = Requirement{Binary: "mkfs.ntfs", Packages: map[Family]string{
		Debian: "ntfs-3g", Fedora: "ntfsprogs", Arch: "ntfs-3g", Suse: "ntfs-3g",
	}}
	wimlib = Requirement{Binary: "wimlib-imagex", Packages: map[Family]string{
		Debian: "wimtools", Fedora: "wimlib-utils", Arch: "wimlib", Suse: "wimtools",
	}}
	rsync  = Requirement{Binary: "rsync", Packages: same("rsync")}
	parted = Requirement{Binary: "parted", Packages: same("parted")}
)

// Required lists the binaries needed with the given partitioner.
func Required(partitioner string) []Requirement {
	reqs := []Requirement{lsblk, mount, mkfsVfat, mkfsNTFS, wimlib, rsync}
	if partitioner != config.PartitionerDiskfs {
		reqs = append(reqs, parted)
	}
	return reqs
}

// Check returns the requirements lookPath cannot find.
func Check(reqs []Requirement, lookPath func(string) (string, error)) []Requirement {
	var missing []Requirement
	for _, r := range reqs {
		if _, err := lookPath(r.Binary); err != nil {
			missing = append(missing, r)
		}
	}
	return missing
}

// Help renders install instructions for missing on fam. For Unknown every
// family is listed.
func Help(missing []Requirement, fam Family) string {
	var b strings.Builder
	names := make([]string, len(missing))
	for i, r := range missing {
		names[i] = r.Binary
	}
	fmt.Fprintf(&b, "Missing required tools: %s\n", strings.Join(names, ", "))

	families := []Family{fam}
	if fam == Unknown {
		families = knownFamilies
		b.WriteString("Could not detect your distribution. Install with one of:\n")
	} else {
		b.WriteString("Install them with:\n")
	}
	for _, f := range families {
		fmt.Fprintf(&b, "  %s\n", InstallCommand(f, missing))
	}
	return b.String()
}

// InstallCommand returns the package manager invocation for fam.
func InstallCommand(fam Family, missing []Requirement) string {
	seen := map[string]bool{}
	var pkgs []string
	for _, r := range missing {
		p := r.Package(fam)
		if !seen[p] {
			seen[p] = true
			pkgs = append(pkgs, p)
		}
	}
	sort.Strings(pkgs)
	return installers[fam] + " " + strings.Join(pkgs, " ")
}

// Verify checks the host for the partitioner's requirements. On failure the
// error wraps ErrMissingDependencies and carries the install help.
func Verify(ctx context.Context, partitioner string) error {
	logger := log.WithFunc("deps.Verify")
	missing := Check(Required(partitioner), exec.LookPath)
	if len(missing) == 0 {
		logger.Debugf(ctx, "all dependencies present")
		return nil
	}
	fam := DetectFamily(osReleasePath)
	logger.Debugf(ctx, "os family: %s", fam)
	return fmt.Errorf("%w\n%s", ErrMissingDependencies, strings.TrimRight(Help(missing, fam), "\n"))
}
