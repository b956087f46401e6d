package config

import (
	"fmt"
	"os"
	"strings"

	units "github.com/docker/go-units"
	coretypes "github.com/projecteru2/core/types"
)

const (
	PartitionerParted = "parted"
	PartitionerDiskfs = "diskfs"
)

// Config holds global win2go configuration.
type Config struct {
	// WinMount, BootMount and ISOMount are the fixed mount points for the
	// Windows partition, the EFI system partition and the source ISO.
	WinMount  string `json:"win_mount" mapstructure:"win_mount"`
	BootMount string `json:"boot_mount" mapstructure:"boot_mount"`
	ISOMount  string `json:"iso_mount" mapstructure:"iso_mount"`

	// TempDir is the parent of the per-run scratch directories.
	TempDir string `json:"temp_dir" mapstructure:"temp_dir"`
	// StateDir holds the run history.
	StateDir string `json:"state_dir" mapstructure:"state_dir"`
	// RunDir holds per-device lock files.
	RunDir string `json:"run_dir" mapstructure:"run_dir"`
	// DownloadDir is where downloaded ISOs are saved.
	// Empty means the invoking user's ~/Downloads.
	DownloadDir string `json:"download_dir" mapstructure:"download_dir"`
	// ISOURL is offered as the default answer when asking for a download URL.
	ISOURL string `json:"iso_url" mapstructure:"iso_url"`
	// KeepDownloads skips the delete-downloaded-ISO prompt on cleanup.
	KeepDownloads bool `json:"keep_downloads" mapstructure:"keep_downloads"`

	// ESPSize is the EFI system partition size, e.g. "512MiB".
	ESPSize string `json:"esp_size" mapstructure:"esp_size"`
	// LargeDriveThreshold triggers the oversized-drive confirmation.
	LargeDriveThreshold string `json:"large_drive_threshold" mapstructure:"large_drive_threshold"`
	// Partitioner selects the partition table writer: parted or diskfs.
	Partitioner string `json:"partitioner" mapstructure:"partitioner"`
	// ImageIndex is the default image index inside install.wim/esd.
	ImageIndex int `json:"image_index" mapstructure:"image_index"`

	// Log configuration, uses eru core's ServerLogConfig.
	Log coretypes.ServerLogConfig `json:"log" mapstructure:"log"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		WinMount:            "/mnt/win",
		BootMount:           "/mnt/boot",
		ISOMount:            "/mnt/iso",
		TempDir:             os.TempDir(),
		StateDir:            "/var/lib/win2go",
		RunDir:              "/run/win2go",
		ESPSize:             "512MiB",
		LargeDriveThreshold: "64GiB",
		Partitioner:         PartitionerParted,
		ImageIndex:          1,
		Log: coretypes.ServerLogConfig{
			Level:      "info",
			MaxSize:    500,
			MaxAge:     28,
			MaxBackups: 3,
		},
	}
}

// Validate checks the fields that cannot be defaulted silently.
func (c *Config) Validate() error {
	if _, err := c.ESPBytes(); err != nil {
		return err
	}
	if _, err := c.LargeDriveBytes(); err != nil {
		return err
	}
	switch c.Partitioner {
	case PartitionerParted, PartitionerDiskfs:
	default:
		return fmt.Errorf("unknown partitioner %q (expected %s or %s)", c.Partitioner, PartitionerParted, PartitionerDiskfs)
	}
	if c.ImageIndex < 1 {
		return fmt.Errorf("image_index must be >= 1, got %d", c.ImageIndex)
	}
	for name, p := range map[string]string{"win_mount": c.WinMount, "boot_mount": c.BootMount, "iso_mount": c.ISOMount} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s must be an absolute path, got %q", name, p)
		}
	}
	return nil
}

// ESPBytes parses ESPSize.
func (c *Config) ESPBytes() (int64, error) {
	n, err := units.RAMInBytes(c.ESPSize)
	if err != nil {
		return 0, fmt.Errorf("invalid esp_size %q: %w", c.ESPSize, err)
	}
	return n, nil
}

// LargeDriveBytes parses LargeDriveThreshold.
func (c *Config) LargeDriveBytes() (int64, error) {
	n, err := units.RAMInBytes(c.LargeDriveThreshold)
	if err != nil {
		return 0, fmt.Errorf("invalid large_drive_threshold %q: %w", c.LargeDriveThreshold, err)
	}
	return n, nil
}

// MountPoints returns the fixed mount points in unmount order.
func (c *Config) MountPoints() []string {
	return []string{c.ISOMount, c.BootMount, c.WinMount}
}
