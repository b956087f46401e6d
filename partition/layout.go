// Package partition lays out and writes the GPT of a Windows To Go drive.
package partition

import (
	"errors"
	"fmt"

	units "github.com/docker/go-units"
)

const (
	// Alignment of every partition boundary.
	Alignment int64 = 1 << 20
	// MinWindowsSize is the smallest Windows partition accepted.
	MinWindowsSize int64 = 8 << 30

	ESPLabel     = "ESP"
	WindowsLabel = "Windows"
)

// ErrDiskTooSmall is returned when the Windows partition would not fit.
var ErrDiskTooSmall = errors.New("disk too small")

// Part is one partition; Start and End are byte offsets, End exclusive.
type Part struct {
	Number int
	Label  string
	Start  int64
	End    int64
}

// Size returns the partition length in bytes.
func (p Part) Size() int64 { return p.End - p.Start }

// StartSector returns the first sector of p.
func (p Part) StartSector(sectorSize int64) uint64 { return uint64(p.Start / sectorSize) } //nolint:gosec

// EndSector returns the last sector of p (inclusive).
func (p Part) EndSector(sectorSize int64) uint64 { return uint64(p.End/sectorSize) - 1 } //nolint:gosec

// Layout is the planned partition table.
type Layout struct {
	Device     string
	DiskSize   int64
	SectorSize int64
	ESP        Part
	Windows    Part
}

// Plan computes a 1MiB-aligned GPT layout: an EFI system partition of
// espSize followed by a Windows partition filling the rest of the disk
// minus a trailing 1MiB for the backup GPT.
func Plan(device string, diskSize, sectorSize, espSize int64) (*Layout, error) {
	if sectorSize <= 0 || Alignment%sectorSize != 0 {
		return nil, fmt.Errorf("unsupported sector size %d", sectorSize)
	}
	if espSize <= 0 {
		return nil, fmt.Errorf("invalid ESP size %d", espSize)
	}
	espStart := Alignment
	espEnd := alignUp(espStart + espSize)
	winStart := espEnd
	winEnd := alignDown(diskSize - Alignment)
	if winEnd-winStart < MinWindowsSize {
		return nil, fmt.Errorf("%s: %s leaves less than %s for Windows: %w",
			device, units.BytesSize(float64(diskSize)), units.BytesSize(float64(MinWindowsSize)), ErrDiskTooSmall)
	}
	return &Layout{
		Device:     device,
		DiskSize:   diskSize,
		SectorSize: sectorSize,
		ESP:        Part{Number: 1, Label: ESPLabel, Start: espStart, End: espEnd},
		Windows:    Part{Number: 2, Label: WindowsLabel, Start: winStart, End: winEnd}, //nolint:mnd
	}, nil
}

func alignUp(n int64) int64 {
	return (n + Alignment - 1) / Alignment * Alignment
}

func alignDown(n int64) int64 {
	return n / Alignment * Alignment
}

// MiB renders a byte offset as a parted unit string.
func MiB(n int64) string {
	return fmt.Sprintf("%dMiB", n/Alignment)
}
