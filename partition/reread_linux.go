package partition

import (
	"os"

	"golang.org/x/sys/unix"
)

// rereadPartitions issues BLKRRPART so the kernel creates the new nodes.
func rereadPartitions(dev string) error {
	f, err := os.OpenFile(dev, os.O_RDONLY, 0) //nolint:gosec
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck
	return unix.IoctlSetInt(int(f.Fd()), unix.BLKRRPART, 0) //nolint:gosec
}
