package partition

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/partition/gpt"

	"github.com/circuitsable/win2go/config"
	"github.com/circuitsable/win2go/runner"
)

const (
	mib = int64(1) << 20
	gib = int64(1) << 30
)

func TestPlan(t *testing.T) {
	l, err := Plan("/dev/sdb", 64*gib+123, 512, 512*mib)
	if err != nil {
		t.Fatal(err)
	}
	if l.ESP.Start != mib || l.ESP.End != 513*mib {
		t.Errorf("ESP = %+v", l.ESP)
	}
	if l.Windows.Start != 513*mib || l.Windows.End != 64*gib-mib {
		t.Errorf("Windows = %+v", l.Windows)
	}
	for _, p := range []Part{l.ESP, l.Windows} {
		if p.Start%Alignment != 0 || p.End%Alignment != 0 {
			t.Errorf("%s not aligned: %+v", p.Label, p)
		}
	}
	if l.ESP.StartSector(512) != 2048 || l.ESP.EndSector(512) != 513*2048-1 {
		t.Errorf("sectors = %d..%d", l.ESP.StartSector(512), l.ESP.EndSector(512))
	}
}

func TestPlanUnalignedESP(t *testing.T) {
	l, err := Plan("/dev/sdb", 32*gib, 4096, 300*mib+1)
	if err != nil {
		t.Fatal(err)
	}
	if l.ESP.End != 302*mib || l.Windows.Start != l.ESP.End {
		t.Errorf("layout = %+v", l)
	}
}

func TestPlanErrors(t *testing.T) {
	if _, err := Plan("/dev/sdb", 8*gib, 512, 512*mib); !errors.Is(err, ErrDiskTooSmall) {
		t.Errorf("8GiB disk: err = %v", err)
	}
	if _, err := Plan("/dev/sdb", 64*gib, 3000, 512*mib); err == nil {
		t.Error("odd sector size accepted")
	}
	if _, err := Plan("/dev/sdb", 64*gib, 512, 0); err == nil {
		t.Error("zero ESP accepted")
	}
}

func TestLayoutPaths(t *testing.T) {
	l, _ := Plan("/dev/nvme0n1", 64*gib, 512, 512*mib)
	esp, win := l.Paths()
	if esp != "/dev/nvme0n1p1" || win != "/dev/nvme0n1p2" {
		t.Errorf("paths = %s %s", esp, win)
	}
}

func TestPartedCommand(t *testing.T) {
	f := runner.NewFake()
	p, err := New(config.PartitionerParted, f)
	if err != nil {
		t.Fatal(err)
	}
	l, _ := Plan("/dev/sdb", 64*gib, 512, 512*mib)
	if err := p.Partition(context.Background(), l); err != nil {
		t.Fatal(err)
	}
	want := "parted --script /dev/sdb mklabel gpt mkpart ESP fat32 1MiB 513MiB set 1 esp on mkpart Windows ntfs 513MiB 100%"
	if got := f.Lines(); len(got) != 1 || got[0] != want {
		t.Errorf("got %v", got)
	}
}

func TestPartedError(t *testing.T) {
	f := runner.NewFake().On("parted", nil, errors.New("device busy"))
	l, _ := Plan("/dev/sdb", 64*gib, 512, 512*mib)
	err := NewParted(f).Partition(context.Background(), l)
	if err == nil || !strings.Contains(err.Error(), "device busy") {
		t.Fatalf("err = %v", err)
	}
}

func TestNewUnknown(t *testing.T) {
	if _, err := New("fdisk", runner.NewFake()); err == nil {
		t.Fatal("expected error")
	}
}

func TestDiskfsOnImage(t *testing.T) {
	img := filepath.Join(t.TempDir(), "disk.img")
	f, err := os.Create(img)
	if err != nil {
		t.Fatal(err)
	}
	size := 10 * gib
	if err := f.Truncate(size); err != nil {
		t.Skipf("sparse file unsupported: %v", err)
	}
	_ = f.Close()

	l, err := Plan(img, size, 512, 512*mib)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := New(config.PartitionerDiskfs, nil)
	if err := p.Partition(context.Background(), l); err != nil {
		t.Fatalf("Partition: %v", err)
	}

	d, err := diskfs.Open(img, diskfs.WithOpenMode(diskfs.ReadOnly))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close() //nolint:errcheck
	pt, err := d.GetPartitionTable()
	if err != nil {
		t.Fatal(err)
	}
	table, ok := pt.(*gpt.Table)
	if !ok {
		t.Fatalf("table type %T", pt)
	}
	var parts []*gpt.Partition
	for _, part := range table.Partitions {
		if part.Type != gpt.Unused {
			parts = append(parts, part)
		}
	}
	if len(parts) != 2 {
		t.Fatalf("got %d partitions", len(parts))
	}
	if parts[0].Type != gpt.EFISystemPartition || parts[0].Start != 2048 || parts[0].Name != ESPLabel {
		t.Errorf("ESP = %+v", parts[0])
	}
	if parts[1].Type != gpt.MicrosoftBasicData || parts[1].End != uint64(size/512-2048-1) {
		t.Errorf("Windows = %+v", parts[1])
	}
}

func TestWaitForPartitions(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "sdb1")
	p2 := filepath.Join(dir, "sdb2")
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(p1, nil, 0o600)
		_ = os.WriteFile(p2, nil, 0o600)
	}()
	if err := WaitForPartitions(context.Background(), p1, p2); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := WaitForPartitions(ctx, filepath.Join(dir, "never")); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestFormat(t *testing.T) {
	f := runner.NewFake()
	if err := Format(context.Background(), f, "/dev/sdb1", "/dev/sdb2"); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"mkfs.vfat -F 32 -n ESP /dev/sdb1",
		"mkfs.ntfs --quick --label Windows /dev/sdb2",
	}
	got := f.Lines()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("got %v", got)
	}
	if f.Calls()[1].Label == "" {
		t.Error("NTFS format should run under the spinner")
	}
}

func TestSectorSizeFrom(t *testing.T) {
	sysfs := t.TempDir()
	q := filepath.Join(sysfs, "sdb", "queue")
	if err := os.MkdirAll(q, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(q, "logical_block_size"), []byte("4096\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := sectorSizeFrom(sysfs, "/dev/sdb"); got != 4096 {
		t.Errorf("got %d", got)
	}
	if got := sectorSizeFrom(sysfs, "/dev/sdz"); got != defaultSectorSize {
		t.Errorf("got %d", got)
	}
}
