package partition

import (
	"context"
	"fmt"
	"os"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/partition/gpt"
	"github.com/projecteru2/core/log"

	"github.com/circuitsable/win2go/config"
)

// Diskfs writes the GPT in-process with go-diskfs.
type Diskfs struct{}

// Name implements Partitioner.
func (Diskfs) Name() string { return config.PartitionerDiskfs }

// Partition implements Partitioner. On block devices the kernel is asked to
// re-read the table afterwards.
func (Diskfs) Partition(ctx context.Context, l *Layout) error {
	logger := log.WithFunc("partition.Diskfs")
	d, err := diskfs.Open(l.Device,
		diskfs.WithOpenMode(diskfs.ReadWriteExclusive),
		diskfs.WithSectorSize(diskfs.SectorSize(l.SectorSize)))
	if err != nil {
		return fmt.Errorf("open %s: %w", l.Device, err)
	}
	ss := l.SectorSize
	table := &gpt.Table{
		LogicalSectorSize:  int(ss),
		PhysicalSectorSize: int(ss),
		ProtectiveMBR:      true,
		Partitions: []*gpt.Partition{
			{
				Start: l.ESP.StartSector(ss),
				End:   l.ESP.EndSector(ss),
				Size:  uint64(l.ESP.Size()), //nolint:gosec
				Type:  gpt.EFISystemPartition,
				Name:  l.ESP.Label,
			},
			{
				Start: l.Windows.StartSector(ss),
				End:   l.Windows.EndSector(ss),
				Size:  uint64(l.Windows.Size()), //nolint:gosec
				Type:  gpt.MicrosoftBasicData,
				Name:  l.Windows.Label,
			},
		},
	}
	err = d.Partition(table)
	if cerr := d.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write GPT to %s: %w", l.Device, err)
	}

	fi, err := os.Stat(l.Device)
	if err != nil {
		return err
	}
	if fi.Mode()&os.ModeDevice == 0 {
		logger.Debugf(ctx, "%s is not a block device, skip table re-read", l.Device)
		return nil
	}
	if err := rereadPartitions(l.Device); err != nil {
		return fmt.Errorf("re-read partition table of %s: %w", l.Device, err)
	}
	return nil
}
