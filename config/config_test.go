package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestSizes(t *testing.T) {
	c := DefaultConfig()
	esp, err := c.ESPBytes()
	if err != nil {
		t.Fatal(err)
	}
	if esp != 512<<20 {
		t.Errorf("esp = %d, want %d", esp, 512<<20)
	}
	large, err := c.LargeDriveBytes()
	if err != nil {
		t.Fatal(err)
	}
	if large != 64<<30 {
		t.Errorf("threshold = %d, want %d", large, int64(64<<30))
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad esp", func(c *Config) { c.ESPSize = "lots" }},
		{"bad threshold", func(c *Config) { c.LargeDriveThreshold = "-" }},
		{"bad partitioner", func(c *Config) { c.Partitioner = "fdisk" }},
		{"bad index", func(c *Config) { c.ImageIndex = 0 }},
		{"relative mount", func(c *Config) { c.WinMount = "mnt/win" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDeviceLock(t *testing.T) {
	c := DefaultConfig()
	c.RunDir = "/run/x"
	tests := map[string]string{
		"/dev/sdb":          "/run/x/sdb.lock",
		"/dev/nvme0n1":      "/run/x/nvme0n1.lock",
		"/dev/disk/by-id/a": "/run/x/disk_by-id_a.lock",
	}
	for dev, want := range tests {
		if got := c.DeviceLock(dev); got != want {
			t.Errorf("DeviceLock(%q) = %q, want %q", dev, got, want)
		}
	}
	if got := c.HistoryFile(); got != filepath.Join(c.StateDir, "history.json") {
		t.Errorf("HistoryFile = %q", got)
	}
}
