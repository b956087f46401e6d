package wim

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/circuitsable/win2go/runner"
	"github.com/circuitsable/win2go/types"
)

const sampleInfo = `WIM Information:
----------------
Path:           /mnt/iso/sources/install.wim
GUID:           0x3b7c1d2e4f5a6b7c8d9e0f1a2b3c4d5e
Version:        68864
Image Count:    2
Compression:    LZX
Chunk Size:     32768 bytes
Part Number:    1/1
Boot Index:     0
Size:           5012345678 bytes
Attributes:     Relative path junction

Available Images:
-----------------
Index:                  1
Name:                   Windows 11 Home
Description:            Windows 11 Home
Display Name:           Windows 11 Home
Display Description:    Windows 11 Home
Directory Count:        24789
File Count:             101456
Total Bytes:            17891234567
Hard Link Bytes:        7012345678
Creation Time:          Wed Sep 27 03:12:45 2023 UTC
Last Modification Time: Wed Sep 27 03:40:01 2023 UTC
Architecture:           x86_64
Product Name:           Microsoft® Windows® Operating System
Edition ID:             Core
Installation Type:      Client
Languages:              en-US
WIMBoot compatible:     no

Index:                  6
Name:                   Windows 11 Pro
Description:            Windows 11 Pro
Edition ID:             Professional

`

func TestParseInfo(t *testing.T) {
	eds, err := ParseInfo([]byte(sampleInfo))
	if err != nil {
		t.Fatal(err)
	}
	if len(eds) != 2 {
		t.Fatalf("got %d editions", len(eds))
	}
	want := types.Edition{Index: 6, Name: "Windows 11 Pro", Description: "Windows 11 Pro", EditionID: "Professional"}
	if eds[1] != want {
		t.Errorf("eds[1] = %+v", eds[1])
	}
	if eds[0].EditionID != "Core" {
		t.Errorf("eds[0] = %+v", eds[0])
	}
}

func TestParseInfoErrors(t *testing.T) {
	if _, err := ParseInfo([]byte("WIM Information:\nPath: x\n")); err == nil {
		t.Error("expected error for no images")
	}
	if _, err := ParseInfo([]byte("Index: one\n")); err == nil {
		t.Error("expected error for bad index")
	}
}

func TestSelect(t *testing.T) {
	eds, _ := ParseInfo([]byte(sampleInfo))
	e, err := Select(eds, 6)
	if err != nil || e.Name != "Windows 11 Pro" {
		t.Fatalf("e=%+v err=%v", e, err)
	}
	if _, err := Select(eds, 3); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("err = %v", err)
	}
}

func mkfile(t *testing.T, root, rel string) string {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestFindInstallImage(t *testing.T) {
	root := t.TempDir()
	if _, err := FindInstallImage(root); !errors.Is(err, ErrNoInstallImage) {
		t.Fatalf("empty root: %v", err)
	}

	esd := mkfile(t, root, "SOURCES/INSTALL.ESD")
	img, err := FindInstallImage(root)
	if err != nil {
		t.Fatal(err)
	}
	if img.Path != esd || img.Format != types.ImageFormatESD {
		t.Errorf("img = %+v", img)
	}

	wim := mkfile(t, root, "SOURCES/install.wim")
	img, err = FindInstallImage(root)
	if err != nil {
		t.Fatal(err)
	}
	if img.Path != wim || img.Format != types.ImageFormatWIM {
		t.Errorf("wim should win: %+v", img)
	}
}

func TestInfoAndApply(t *testing.T) {
	f := runner.NewFake().On("wimlib-imagex info", []byte(sampleInfo), nil)
	ctx := context.Background()
	img := types.InstallImage{Path: "/mnt/iso/sources/install.wim", Format: types.ImageFormatWIM}

	eds, err := Info(ctx, f, img)
	if err != nil {
		t.Fatal(err)
	}
	if err := Apply(ctx, f, img, eds[1], "/tmp/win2go-image-1"); err != nil {
		t.Fatal(err)
	}
	calls := f.Calls()
	if got := calls[1].String(); got != "wimlib-imagex apply /mnt/iso/sources/install.wim 6 /tmp/win2go-image-1" {
		t.Errorf("apply = %s", got)
	}
	if !strings.Contains(calls[1].Label, "Windows 11 Pro") {
		t.Errorf("label = %q", calls[1].Label)
	}
}

func TestApplyError(t *testing.T) {
	f := runner.NewFake().On("wimlib-imagex apply", nil, errors.New("not enough space"))
	err := Apply(context.Background(), f, types.InstallImage{Path: "x.wim"}, types.Edition{Index: 1}, "/tmp/d")
	if err == nil || !strings.Contains(err.Error(), "not enough space") {
		t.Fatalf("err = %v", err)
	}
}
