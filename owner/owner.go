// Package owner resolves the user win2go acts on behalf of when run via sudo.
package owner

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
)

// Owner is the invoking user.
type Owner struct {
	Name string
	UID  int
	GID  int
	Home string
}

// Lookup resolves name. An empty name falls back to $SUDO_USER, then to the
// current user.
func Lookup(name string) (*Owner, error) {
	if name == "" {
		name = os.Getenv("SUDO_USER")
	}
	var (
		u   *user.User
		err error
	)
	if name == "" {
		u, err = user.Current()
	} else {
		u, err = user.Lookup(name)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user %q: %w", name, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return nil, fmt.Errorf("user %s: uid %q: %w", u.Username, u.Uid, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return nil, fmt.Errorf("user %s: gid %q: %w", u.Username, u.Gid, err)
	}
	return &Owner{Name: u.Username, UID: uid, GID: gid, Home: u.HomeDir}, nil
}

// Downloads returns the user's ~/Downloads.
func (o *Owner) Downloads() string {
	if o.Home == "" {
		return ""
	}
	return filepath.Join(o.Home, "Downloads")
}

// Chown hands path to the owner. It is a no-op when the process already
// runs as that user.
func (o *Owner) Chown(path string) error {
	if o.UID == os.Geteuid() {
		return nil
	}
	if err := os.Chown(path, o.UID, o.GID); err != nil {
		return fmt.Errorf("chown %s to %s: %w", path, o.Name, err)
	}
	return nil
}
