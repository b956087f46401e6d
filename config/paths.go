package config

import (
	"path/filepath"
	"strings"

	"github.com/circuitsable/win2go/utils"
)

// EnsureDirs creates the state and runtime directories.
func (c *Config) EnsureDirs() error {
	return utils.EnsureDirs(c.StateDir, c.RunDir)
}

// Derived path helpers.

func (c *Config) HistoryFile() string { return filepath.Join(c.StateDir, "history.json") }
func (c *Config) HistoryLock() string { return filepath.Join(c.StateDir, "history.lock") }

// DeviceLock returns the lock file guarding writes to device,
// e.g. /dev/sdb -> {RunDir}/sdb.lock.
func (c *Config) DeviceLock(device string) string {
	name := strings.TrimPrefix(device, "/dev/")
	name = strings.ReplaceAll(name, "/", "_")
	return filepath.Join(c.RunDir, name+".lock")
}

// ScratchPattern returns the os.MkdirTemp pattern for a scratch directory.
func ScratchPattern(kind string) string { return ScratchPrefix + kind + "-*" }

// ScratchPrefix is shared by every scratch directory so stale ones can be found.
const ScratchPrefix = "win2go-"

// BuildLock serializes builds, which share the fixed mount points.
func (c *Config) BuildLock() string { return filepath.Join(c.RunDir, "build.lock") }
