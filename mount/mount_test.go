package mount

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/circuitsable/win2go/runner"
)

const sampleMountinfo = `22 28 0:21 / /sys rw,nosuid,nodev,noexec,relatime shared:7 - sysfs sysfs rw
28 1 259:2 / / rw,relatime shared:1 - ext4 /dev/nvme0n1p2 rw
95 28 8:17 / /mnt/win rw,relatime shared:50 - fuseblk /dev/sdb2 rw,user_id=0,group_id=0
96 28 7:0 / /mnt/iso ro,relatime shared:51 - udf /dev/loop0 ro
97 28 8:33 / /media/me/My\040Stick rw,relatime - vfat /dev/sdc1 rw
`

func TestParseMountinfo(t *testing.T) {
	entries, err := ParseMountinfo(strings.NewReader(sampleMountinfo))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 5 {
		t.Fatalf("got %d entries", len(entries))
	}
	win := entries[2]
	if win.Target != "/mnt/win" || win.Source != "/dev/sdb2" || win.FSType != "fuseblk" {
		t.Errorf("win = %+v", win)
	}
	if entries[4].Target != "/media/me/My Stick" {
		t.Errorf("escaped target = %q", entries[4].Target)
	}
}

func TestParseMountinfoMalformed(t *testing.T) {
	if _, err := ParseMountinfo(strings.NewReader("garbage line\n")); err == nil {
		t.Fatal("expected error")
	}
}

func TestUnescape(t *testing.T) {
	for in, want := range map[string]string{
		`/plain`:       "/plain",
		`/a\040b`:      "/a b",
		`/tab\011x`:    "/tab\tx",
		`/end\040`:     "/end ",
		`/bad\04`:      `/bad\04`,
		`/back\134sla`: `/back\sla`,
	} {
		if got := unescape(in); got != want {
			t.Errorf("unescape(%q) = %q, want %q", in, got, want)
		}
	}
}

func newTestSystem(t *testing.T, r runner.Runner) *System {
	t.Helper()
	p := filepath.Join(t.TempDir(), "mountinfo")
	if err := os.WriteFile(p, []byte(sampleMountinfo), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewSystem(r)
	s.mountinfo = p
	return s
}

func TestSystemIsMounted(t *testing.T) {
	s := newTestSystem(t, runner.NewFake())
	for target, want := range map[string]bool{
		"/mnt/win":  true,
		"/mnt/iso/": true,
		"/mnt/boot": false,
	} {
		got, err := s.IsMounted(target)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("IsMounted(%s) = %v", target, got)
		}
	}
}

func TestSystemMountRunsMount(t *testing.T) {
	f := runner.NewFake()
	s := newTestSystem(t, f)
	target := filepath.Join(t.TempDir(), "iso")
	if err := s.Mount(context.Background(), "/tmp/win.iso", target, "loop", "ro"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(f.Lines()[0], "mount -o loop,ro /tmp/win.iso "+target) {
		t.Errorf("calls = %v", f.Lines())
	}
	if fi, err := os.Stat(target); err != nil || !fi.IsDir() {
		t.Errorf("mount point not created: %v", err)
	}
}

func TestSystemMountError(t *testing.T) {
	f := runner.NewFake().On("mount", nil, errors.New("wrong fs type"))
	s := newTestSystem(t, f)
	err := s.Mount(context.Background(), "/dev/sdb1", filepath.Join(t.TempDir(), "boot"))
	if err == nil || !strings.Contains(err.Error(), "wrong fs type") {
		t.Fatalf("err = %v", err)
	}
}

func TestUnmountAll(t *testing.T) {
	ctx := context.Background()
	m := NewFake()
	_ = m.Mount(ctx, "/dev/sdb2", "/mnt/win")
	_ = m.Mount(ctx, "/win.iso", "/mnt/iso", "loop", "ro")
	m.FailUnmount = map[string]error{"/mnt/iso": errors.New("busy")}

	err := UnmountAll(ctx, m, "/mnt/iso", "/mnt/boot", "/mnt/win")
	if err == nil || !strings.Contains(err.Error(), "busy") {
		t.Fatalf("err = %v", err)
	}
	mounted := m.Mounted()
	if _, ok := mounted["/mnt/win"]; ok {
		t.Error("/mnt/win should be unmounted despite earlier failure")
	}
	for _, l := range m.Log {
		if l == "umount /mnt/boot" {
			t.Error("unmounted a target that was not mounted")
		}
	}
}
