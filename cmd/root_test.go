package cmd

import (
	"context"
	"testing"
)

func TestInitConfigEnv(t *testing.T) {
	t.Setenv("WIN2GO_PARTITIONER", "diskfs")
	t.Setenv("WIN2GO_ESP_SIZE", "1GiB")
	if err := initConfig(context.Background()); err != nil {
		t.Fatal(err)
	}
	if conf.Partitioner != "diskfs" {
		t.Errorf("partitioner = %q", conf.Partitioner)
	}
	if n, _ := conf.ESPBytes(); n != 1<<30 {
		t.Errorf("esp = %d", n)
	}
	if conf.WinMount != "/mnt/win" || conf.ImageIndex != 1 {
		t.Errorf("defaults lost: %+v", conf)
	}
}

func TestInitConfigInvalid(t *testing.T) {
	t.Setenv("WIN2GO_PARTITIONER", "fdisk")
	if err := initConfig(context.Background()); err == nil {
		t.Error("expected error for unknown partitioner")
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"check", "drives", "history", "clean", "version", "completion"}
	for _, name := range want {
		if c, _, err := rootCmd.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("command %s not registered", name)
		}
	}
	for _, flag := range []string{"iso", "drive", "drivers", "user", "yes", "index", "partitioner"} {
		if rootCmd.Flags().Lookup(flag) == nil {
			t.Errorf("flag --%s missing", flag)
		}
	}
	for short, long := range map[string]string{"i": "iso", "d": "drive", "r": "drivers", "u": "user", "y": "yes"} {
		if f := rootCmd.Flags().ShorthandLookup(short); f == nil || f.Name != long {
			t.Errorf("-%s should map to --%s", short, long)
		}
	}
	if f := rootCmd.PersistentFlags().ShorthandLookup("v"); f == nil || f.Name != "verbose" {
		t.Error("-v should map to --verbose")
	}
}
