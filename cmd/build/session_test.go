package build

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/circuitsable/win2go/config"
	"github.com/circuitsable/win2go/drive"
	"github.com/circuitsable/win2go/iso"
	"github.com/circuitsable/win2go/owner"
	"github.com/circuitsable/win2go/progress"
	downloadProgress "github.com/circuitsable/win2go/progress/download"
	"github.com/circuitsable/win2go/prompt"
	"github.com/circuitsable/win2go/runner"
	"github.com/circuitsable/win2go/types"
)

const lsblkJSON = `{
  "blockdevices": [
    {"name":"loop0","path":"/dev/loop0","type":"loop","size":4096,"rm":false,"ro":true,"mountpoints":["/snap/core/1"]},
    {"name":"sda","path":"/dev/sda","type":"disk","size":512110190592,"model":"Samsung SSD 860","tran":"sata","rm":false,"ro":false,"mountpoints":[null],
      "children":[{"name":"sda1","path":"/dev/sda1","type":"part","size":511571132416,"rm":false,"ro":false,"mountpoints":["/"]}]},
    {"name":"sdb","path":"/dev/sdb","type":"disk","size":61530439680,"model":"Extreme","vendor":"SanDisk","tran":"usb","rm":true,"ro":false,"mountpoints":[null]},
    {"name":"nvme0n1","path":"/dev/nvme0n1","type":"disk","size":2000398934016,"model":"WD_BLACK","tran":"nvme","rm":false,"ro":false,"mountpoints":[null]}
  ]
}`

// scripted answers prompts from fixed values and records the questions.
type scripted struct {
	confirms []bool
	choice   int
	answer   string

	questions []string
	options   []string
}

func (s *scripted) Confirm(q string, _ bool) (bool, error) {
	s.questions = append(s.questions, q)
	if len(s.confirms) == 0 {
		return false, prompt.ErrNoInput
	}
	ok := s.confirms[0]
	s.confirms = s.confirms[1:]
	return ok, nil
}

func (s *scripted) Ask(q, _ string) (string, error) {
	s.questions = append(s.questions, q)
	return s.answer, nil
}

func (s *scripted) Select(title string, options []string) (int, error) {
	s.questions = append(s.questions, title)
	s.options = options
	return s.choice, nil
}

func newTestSession(t *testing.T, p prompt.Prompter) (*session, *owner.Owner) {
	t.Helper()
	home := t.TempDir()
	who := &owner.Owner{Name: "tester", UID: os.Geteuid(), GID: os.Getegid(), Home: home}
	r := runner.NewFake().On("lsblk", []byte(lsblkJSON), nil)
	s := newSession(config.DefaultConfig(), r, p, who, &bytes.Buffer{})
	wd := t.TempDir()
	s.workDir = func() (string, error) { return wd, nil }
	return s, who
}

func TestSelectDriveFlag(t *testing.T) {
	s, _ := newTestSession(t, &scripted{})
	ctx := context.Background()

	d, err := s.selectDrive(ctx, "sdb")
	if err != nil || d.Path != "/dev/sdb" {
		t.Fatalf("sdb: %+v, %v", d, err)
	}
	if _, err := s.selectDrive(ctx, "/dev/sda"); !errors.Is(err, drive.ErrSystemDisk) {
		t.Errorf("sda: %v", err)
	}
	if _, err := s.selectDrive(ctx, "/dev/loop0"); !errors.Is(err, drive.ErrLoopDevice) {
		t.Errorf("loop0: %v", err)
	}
	if _, err := s.selectDrive(ctx, "sdz"); !errors.Is(err, drive.ErrNotFound) {
		t.Errorf("sdz: %v", err)
	}
}

func TestSelectDrivePrompt(t *testing.T) {
	p := &scripted{choice: 1}
	s, _ := newTestSession(t, p)
	d, err := s.selectDrive(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if d.Path != "/dev/nvme0n1" {
		t.Errorf("picked %s", d.Path)
	}
	if len(p.options) != 2 {
		t.Errorf("options = %v", p.options)
	}
}

func TestSelectDriveNone(t *testing.T) {
	p := &scripted{}
	s, _ := newTestSession(t, p)
	s.runner = runner.NewFake().On("lsblk", []byte(`{"blockdevices":[]}`), nil)
	if _, err := s.selectDrive(context.Background(), ""); !errors.Is(err, drive.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestConfirmErase(t *testing.T) {
	small := types.Drive{Path: "/dev/sdb", Type: "disk", Size: 32 << 30}
	large := types.Drive{Path: "/dev/sdc", Type: "disk", Size: 1 << 40}

	tests := []struct {
		name      string
		d         types.Drive
		confirms  []bool
		wantErr   error
		questions int
	}{
		{"small accepted", small, []bool{true}, nil, 1},
		{"small declined", small, []bool{false}, prompt.ErrDeclined, 1},
		{"large accepted", large, []bool{true, true}, nil, 2},
		{"large rejected", large, []bool{false}, prompt.ErrDeclined, 1},
		{"no input", small, nil, prompt.ErrNoInput, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &scripted{confirms: tt.confirms}
			s, _ := newTestSession(t, p)
			err := s.confirmErase(tt.d)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(p.questions) != tt.questions {
				t.Errorf("questions = %q", p.questions)
			}
		})
	}
}

func TestSelectISOPath(t *testing.T) {
	s, _ := newTestSession(t, &scripted{})
	path := filepath.Join(t.TempDir(), "win.iso")
	if err := os.WriteFile(path, []byte("iso"), 0o600); err != nil {
		t.Fatal(err)
	}
	src, err := s.selectISO(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if src.Path != path || src.Downloaded {
		t.Errorf("src = %+v", src)
	}
	if _, err := s.selectISO(context.Background(), filepath.Join(t.TempDir(), "missing.iso")); err == nil {
		t.Error("expected error for missing ISO")
	}
}

func TestSelectISODiscovered(t *testing.T) {
	p := &scripted{choice: 0}
	s, who := newTestSession(t, p)
	dl := who.Downloads()
	if err := os.MkdirAll(dl, 0o750); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dl, "Win11_English_x64.ISO")
	if err := os.WriteFile(path, []byte("iso"), 0o600); err != nil {
		t.Fatal(err)
	}

	src, err := s.selectISO(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if src.Path != path {
		t.Errorf("path = %s", src.Path)
	}
	if len(p.options) != 2 || p.options[1] != downloadOption {
		t.Errorf("options = %q", p.options)
	}
}

func TestSelectISODownload(t *testing.T) {
	p := &scripted{choice: 0, answer: "https://example.com/win.iso"}
	s, who := newTestSession(t, p)

	var gotURL, gotDir string
	s.download = func(_ context.Context, url, dir string, tracker progress.Tracker) (*iso.Result, error) {
		gotURL, gotDir = url, dir
		if tracker == nil {
			t.Error("nil tracker")
		}
		path := filepath.Join(dir, "win.iso")
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
		return &iso.Result{Path: path, Size: 3}, os.WriteFile(path, []byte("iso"), 0o600)
	}

	// Nothing discovered: the only option is the download entry.
	src, err := s.selectISO(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if gotURL != p.answer || gotDir != who.Downloads() {
		t.Errorf("download(%q, %q)", gotURL, gotDir)
	}
	if !src.Downloaded || src.Path != filepath.Join(who.Downloads(), "win.iso") {
		t.Errorf("src = %+v", src)
	}
}

func TestSelectISOFlagURLReused(t *testing.T) {
	s, _ := newTestSession(t, &scripted{})
	s.conf.DownloadDir = t.TempDir()
	s.download = func(_ context.Context, _, dir string, _ progress.Tracker) (*iso.Result, error) {
		return &iso.Result{Path: filepath.Join(dir, "win.iso"), Reused: true}, nil
	}
	src, err := s.selectISO(context.Background(), "https://example.com/win.iso")
	if err != nil {
		t.Fatal(err)
	}
	if src.Downloaded {
		t.Error("a reused file must not be offered for deletion")
	}
}

func TestSelectISOBadURL(t *testing.T) {
	p := &scripted{choice: 0, answer: "ftp://example.com/win.iso"}
	s, _ := newTestSession(t, p)
	if _, err := s.selectISO(context.Background(), ""); err == nil {
		t.Error("expected error for non-HTTP URL")
	}
}

func TestDownloadTrackerPlain(t *testing.T) {
	var buf bytes.Buffer
	tr := downloadTracker(context.Background(), &buf)
	for done := int64(0); done <= 100; done += 5 {
		tr.OnEvent(downloadProgress.Event{Phase: downloadProgress.PhaseProgress, BytesDone: done, BytesTotal: 100})
	}
	// 0..100 in steps of 5 crosses eleven 10% boundaries.
	if got := bytes.Count(buf.Bytes(), []byte("\n")); got != 11 {
		t.Errorf("printed %d lines:\n%s", got, buf.String())
	}
}
