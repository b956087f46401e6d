// Package drive enumerates block devices and decides which are safe targets.
package drive

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/circuitsable/win2go/types"
)

var (
	ErrLoopDevice   = errors.New("loop devices cannot be used")
	ErrOpticalDrive = errors.New("optical drives cannot be used")
	ErrReadOnly     = errors.New("device is read-only")
	ErrNotDisk      = errors.New("not a whole disk")
	ErrNotFound     = errors.New("device not found")
	ErrSystemDisk   = errors.New("device holds a mounted system filesystem")
)

// systemMounts are mountpoints that mark the disk the host runs from.
var systemMounts = map[string]bool{
	"/":         true,
	"/boot":     true,
	"/boot/efi": true,
	"/efi":      true,
	"/usr":      true,
	"/var":      true,
	"/home":     true,
	"[SWAP]":    true,
}

// Validate returns nil when d may be erased.
func Validate(d types.Drive) error {
	name := filepath.Base(d.Path)
	if name == "." || name == "/" {
		name = d.Name
	}
	switch {
	case d.Type == "loop" || strings.HasPrefix(name, "loop"):
		return fmt.Errorf("%s: %w", d.Path, ErrLoopDevice)
	case d.Type == "rom" || strings.HasPrefix(name, "sr"):
		return fmt.Errorf("%s: %w", d.Path, ErrOpticalDrive)
	case d.Type != "disk":
		return fmt.Errorf("%s (%s): %w", d.Path, d.Type, ErrNotDisk)
	case d.ReadOnly:
		return fmt.Errorf("%s: %w", d.Path, ErrReadOnly)
	}
	for _, mp := range d.MountedPaths() {
		if systemMounts[mp] {
			return fmt.Errorf("%s mounted at %s: %w", d.Path, mp, ErrSystemDisk)
		}
	}
	return nil
}

// Candidates returns the drives Validate accepts, in input order.
func Candidates(drives []types.Drive) []types.Drive {
	var out []types.Drive
	for _, d := range drives {
		if Validate(d) == nil {
			out = append(out, d)
		}
	}
	return out
}

// IsLarge reports whether d is bigger than threshold bytes.
func IsLarge(d types.Drive, threshold int64) bool {
	return threshold > 0 && d.Size > threshold
}

// Lookup finds arg ("sdb" or "/dev/sdb") among drives.
func Lookup(drives []types.Drive, arg string) (types.Drive, error) {
	want := arg
	if !strings.HasPrefix(want, "/") {
		want = "/dev/" + want
	}
	want = filepath.Clean(want)
	for _, d := range drives {
		if d.Path == want {
			return d, nil
		}
	}
	return types.Drive{}, fmt.Errorf("%s: %w", arg, ErrNotFound)
}

// PartitionPath returns the node of partition n on dev. Devices whose name
// ends in a digit (nvme0n1, mmcblk0, loop0) use a "p" separator.
func PartitionPath(dev string, n int) string {
	if dev == "" {
		return ""
	}
	last := dev[len(dev)-1]
	if last >= '0' && last <= '9' {
		return fmt.Sprintf("%sp%d", dev, n)
	}
	return fmt.Sprintf("%s%d", dev, n)
}
