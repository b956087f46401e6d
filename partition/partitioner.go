package partition

import (
	"context"
	"fmt"

	"github.com/circuitsable/win2go/config"
	"github.com/circuitsable/win2go/runner"
)

// Partitioner writes a Layout to its device, destroying the old table.
type Partitioner interface {
	Name() string
	Partition(ctx context.Context, l *Layout) error
}

// New returns the partitioner selected by name.
func New(name string, r runner.Runner) (Partitioner, error) {
	switch name {
	case config.PartitionerParted, "":
		return &Parted{runner: r}, nil
	case config.PartitionerDiskfs:
		return &Diskfs{}, nil
	default:
		return nil, fmt.Errorf("unknown partitioner %q", name)
	}
}

// Parted drives parted(8) in script mode.
type Parted struct {
	runner runner.Runner
}

// NewParted returns a Parted running through r.
func NewParted(r runner.Runner) *Parted { return &Parted{runner: r} }

// Name implements Partitioner.
func (p *Parted) Name() string { return config.PartitionerParted }

// Partition implements Partitioner with a single parted invocation.
func (p *Parted) Partition(ctx context.Context, l *Layout) error {
	cmd := runner.Command("parted", "--script", l.Device,
		"mklabel", "gpt",
		"mkpart", l.ESP.Label, "fat32", MiB(l.ESP.Start), MiB(l.ESP.End),
		"set", "1", "esp", "on",
		"mkpart", l.Windows.Label, "ntfs", MiB(l.Windows.Start), "100%",
	)
	if err := p.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("partition %s: %w", l.Device, err)
	}
	return nil
}
