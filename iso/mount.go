package iso

import (
	"context"

	"github.com/circuitsable/win2go/mount"
)

// Mount attaches path read-only at target through a loop device.
func Mount(ctx context.Context, m mount.Mounter, path, target string) error {
	return m.Mount(ctx, path, target, "loop", "ro")
}
