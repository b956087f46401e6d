package partition

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/circuitsable/win2go/drive"
	"github.com/circuitsable/win2go/runner"
	"github.com/circuitsable/win2go/utils"
)

const (
	partitionTimeout  = 10 * time.Second
	partitionInterval = 200 * time.Millisecond

	defaultSectorSize int64 = 512
)

// Paths returns the ESP and Windows partition nodes of l.
func (l *Layout) Paths() (esp, windows string) {
	return drive.PartitionPath(l.Device, l.ESP.Number), drive.PartitionPath(l.Device, l.Windows.Number)
}

// WaitForPartitions polls until every path exists.
func WaitForPartitions(ctx context.Context, paths ...string) error {
	err := utils.WaitFor(ctx, partitionTimeout, partitionInterval, func() (bool, error) {
		for _, p := range paths {
			if _, err := os.Stat(p); err != nil {
				return false, nil
			}
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("wait for partitions %s: %w", strings.Join(paths, ", "), err)
	}
	return nil
}

// Format creates FAT32 on the ESP and NTFS on the Windows partition.
func Format(ctx context.Context, r runner.Runner, esp, windows string) error {
	logger := log.WithFunc("partition.Format")
	if err := r.Run(ctx, runner.Command("mkfs.vfat", "-F", "32", "-n", ESPLabel, esp)); err != nil {
		return fmt.Errorf("format %s: %w", esp, err)
	}
	logger.Debugf(ctx, "formatted %s as FAT32", esp)
	cmd := runner.Command("mkfs.ntfs", "--quick", "--label", WindowsLabel, windows).
		WithLabel("Formatting " + windows + " as NTFS")
	if err := r.Run(ctx, cmd); err != nil {
		return fmt.Errorf("format %s: %w", windows, err)
	}
	logger.Debugf(ctx, "formatted %s as NTFS", windows)
	return nil
}

// SectorSize reads the logical block size of dev from sysfs, defaulting to
// 512 bytes.
func SectorSize(dev string) int64 {
	return sectorSizeFrom("/sys/class/block", dev)
}

func sectorSizeFrom(sysfs, dev string) int64 {
	data, err := os.ReadFile(filepath.Join(sysfs, filepath.Base(dev), "queue", "logical_block_size")) //nolint:gosec
	if err != nil {
		return defaultSectorSize
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || n <= 0 {
		return defaultSectorSize
	}
	return n
}
