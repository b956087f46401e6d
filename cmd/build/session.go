package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/projecteru2/core/log"

	"github.com/circuitsable/win2go/config"
	"github.com/circuitsable/win2go/drive"
	"github.com/circuitsable/win2go/iso"
	"github.com/circuitsable/win2go/owner"
	"github.com/circuitsable/win2go/progress"
	"github.com/circuitsable/win2go/prompt"
	"github.com/circuitsable/win2go/runner"
	"github.com/circuitsable/win2go/types"
	"github.com/circuitsable/win2go/utils"
)

const downloadOption = "Download an ISO from a URL"

// session holds what the interactive selection steps share.
type session struct {
	conf   *config.Config
	runner runner.Runner
	prompt prompt.Prompter
	owner  *owner.Owner
	out    io.Writer

	download func(ctx context.Context, url, dir string, tracker progress.Tracker) (*iso.Result, error)
	workDir  func() (string, error)
}

func newSession(conf *config.Config, r runner.Runner, p prompt.Prompter, who *owner.Owner, out io.Writer) *session {
	return &session{
		conf:     conf,
		runner:   r,
		prompt:   p,
		owner:    who,
		out:      out,
		download: iso.Download,
		workDir:  os.Getwd,
	}
}

// selectISO resolves --iso, or lets the user pick a local ISO or a URL.
func (s *session) selectISO(ctx context.Context, arg string) (types.SourceImage, error) {
	logger := log.WithFunc("cmd.selectISO")
	if arg != "" {
		if iso.IsURL(arg) {
			return s.fetch(ctx, arg)
		}
		path, err := filepath.Abs(arg)
		if err != nil {
			return types.SourceImage{}, err
		}
		if !utils.ValidFile(path) {
			return types.SourceImage{}, fmt.Errorf("ISO %s not found or empty", arg)
		}
		return types.SourceImage{Path: path}, nil
	}

	dirs := []string{s.owner.Downloads()}
	if wd, err := s.workDir(); err == nil {
		dirs = append(dirs, wd)
	}
	candidates := iso.Discover(ctx, dirs...)
	if len(candidates) == 0 {
		logger.Infof(ctx, "no ISO found in %s", strings.Join(dirs, ", "))
	}
	options := make([]string, 0, len(candidates)+1)
	for _, c := range candidates {
		options = append(options, c.String())
	}
	options = append(options, downloadOption)

	idx, err := s.prompt.Select("Select a Windows ISO:", options)
	if err != nil {
		return types.SourceImage{}, err
	}
	if idx < len(candidates) {
		return types.SourceImage{Path: candidates[idx].Path}, nil
	}

	url, err := s.prompt.Ask("ISO URL", s.conf.ISOURL)
	if err != nil {
		return types.SourceImage{}, err
	}
	if !iso.IsURL(url) {
		return types.SourceImage{}, fmt.Errorf("not an HTTP(S) URL: %q", url)
	}
	return s.fetch(ctx, url)
}

// fetch downloads url into the download directory and hands the file to
// the invoking user.
func (s *session) fetch(ctx context.Context, url string) (types.SourceImage, error) {
	dir := s.conf.DownloadDir
	if dir == "" {
		dir = s.owner.Downloads()
	}
	if dir == "" {
		dir = s.conf.TempDir
	}
	res, err := s.download(ctx, url, dir, downloadTracker(ctx, s.out))
	if err != nil {
		return types.SourceImage{}, err
	}
	if err := s.owner.Chown(res.Path); err != nil {
		log.WithFunc("cmd.fetch").Warnf(ctx, "%v", err)
	}
	return types.SourceImage{Path: res.Path, Downloaded: !res.Reused}, nil
}

// selectDrive resolves --drive, or lets the user pick among the usable drives.
func (s *session) selectDrive(ctx context.Context, arg string) (types.Drive, error) {
	drives, err := drive.List(ctx, s.runner)
	if err != nil {
		return types.Drive{}, err
	}
	if arg != "" {
		d, err := drive.Lookup(drives, arg)
		if err != nil {
			return types.Drive{}, err
		}
		return d, drive.Validate(d)
	}

	candidates := drive.Candidates(drives)
	if len(candidates) == 0 {
		return types.Drive{}, fmt.Errorf("no usable drive, plug in a USB drive: %w", drive.ErrNotFound)
	}
	options := make([]string, len(candidates))
	for i, d := range candidates {
		options[i] = drive.Label(d)
	}
	idx, err := s.prompt.Select("Select the target drive:", options)
	if err != nil {
		return types.Drive{}, err
	}
	return candidates[idx], nil
}

// confirmErase asks before a large drive is used and before anything is
// erased. Either refusal aborts the run.
func (s *session) confirmErase(d types.Drive) error {
	threshold, err := s.conf.LargeDriveBytes()
	if err != nil {
		return err
	}
	if drive.IsLarge(d, threshold) {
		q := fmt.Sprintf("%s is larger than %s, unusual for a USB stick. Use it anyway?", drive.Label(d), s.conf.LargeDriveThreshold)
		if err := prompt.Require(s.prompt, q); err != nil {
			return fmt.Errorf("large drive %s: %w", d.Path, err)
		}
	}
	q := fmt.Sprintf("ALL DATA ON %s WILL BE ERASED. Continue?", drive.Label(d))
	if err := prompt.Require(s.prompt, q); err != nil {
		if errors.Is(err, prompt.ErrNoInput) {
			return fmt.Errorf("erase %s needs confirmation, rerun with --yes: %w", d.Path, err)
		}
		return fmt.Errorf("erase %s: %w", d.Path, err)
	}
	return nil
}
