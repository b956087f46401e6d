package others

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	cmdcore "github.com/circuitsable/win2go/cmd/core"
	"github.com/circuitsable/win2go/config"
	"github.com/circuitsable/win2go/history"
	"github.com/circuitsable/win2go/lock"
	"github.com/circuitsable/win2go/lock/flock"
	"github.com/circuitsable/win2go/mount"
	"github.com/circuitsable/win2go/types"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	conf := config.DefaultConfig()
	root := t.TempDir()
	conf.RunDir = filepath.Join(root, "run")
	conf.StateDir = filepath.Join(root, "state")
	conf.TempDir = filepath.Join(root, "tmp")
	conf.ISOMount = filepath.Join(root, "iso")
	conf.BootMount = filepath.Join(root, "boot")
	conf.WinMount = filepath.Join(root, "win")
	for _, dir := range []string{conf.RunDir, conf.StateDir, conf.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return conf
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	return cmd, &out
}

func scratch(t *testing.T, conf *config.Config, name string, age time.Duration) string {
	t.Helper()
	dir := filepath.Join(conf.TempDir, config.ScratchPrefix+name)
	if err := os.Mkdir(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-age)
	if err := os.Chtimes(dir, old, old); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestCleanerCollectsLeftovers(t *testing.T) {
	ctx := context.Background()
	conf := newTestConfig(t)

	m := mount.NewFake()
	_ = m.Mount(ctx, "/downloads/win.iso", conf.ISOMount, "loop", "ro")
	_ = m.Mount(ctx, "/dev/sdb3", conf.WinMount)

	stale := scratch(t, conf, "image-1234", 2*time.Hour)
	fresh := scratch(t, conf, "image-5678", 0)

	hist := history.New(conf)
	run, err := hist.Start(ctx, "/downloads/win.iso", "/dev/sdb", 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := newCleaner(conf, m).Run(ctx); err != nil {
		t.Fatal(err)
	}

	if got := m.Mounted(); len(got) != 0 {
		t.Errorf("still mounted: %v", got)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale scratch dir kept: %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh scratch dir removed: %v", err)
	}
	runs, err := hist.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID {
		t.Fatalf("runs = %+v", runs)
	}
	if runs[0].Status != types.RunStatusFailed || runs[0].Error != history.Interrupted {
		t.Errorf("run = %+v", runs[0])
	}
}

func TestCleanerWaitsForBuild(t *testing.T) {
	ctx := context.Background()
	conf := newTestConfig(t)

	m := mount.NewFake()
	_ = m.Mount(ctx, "/dev/sdb3", conf.WinMount)

	held := flock.New(conf.BuildLock())
	if err := lock.Acquire(ctx, held, "build"); err != nil {
		t.Fatal(err)
	}
	defer held.Unlock(ctx) //nolint:errcheck

	if err := newCleaner(conf, m).Run(ctx); !errors.Is(err, lock.ErrBusy) {
		t.Fatalf("err = %v", err)
	}
	if got := m.Mounted(); len(got) != 1 {
		t.Errorf("mounts of a running build touched: %v", got)
	}
}

func TestHistoryCommand(t *testing.T) {
	conf := newTestConfig(t)
	h := Handler{cmdcore.BaseHandler{ConfProvider: func() *config.Config { return conf }}}

	cmd, out := newTestCommand()
	if err := h.History(cmd, nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != "No runs recorded." {
		t.Errorf("empty history printed %q", got)
	}

	hist := history.New(conf)
	run, err := hist.Start(context.Background(), "/downloads/win.iso", "/dev/sdb", 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := hist.Finish(context.Background(), run.ID, nil); err != nil {
		t.Fatal(err)
	}

	cmd, out = newTestCommand()
	if err := h.History(cmd, nil); err != nil {
		t.Fatal(err)
	}
	if s := out.String(); !strings.Contains(s, "/dev/sdb") || !strings.Contains(s, string(types.RunStatusSucceeded)) {
		t.Errorf("history table:\n%s", s)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd, out := newTestCommand()
	if err := (Handler{}).Version(cmd, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "Version:") {
		t.Errorf("version printed %q", out.String())
	}
}

func TestNilConfigProvider(t *testing.T) {
	cmd, _ := newTestCommand()
	if err := (Handler{}).History(cmd, nil); err == nil {
		t.Error("expected error without a config provider")
	}
}
