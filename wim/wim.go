// Package wim locates and applies the Windows install image with
// wimlib-imagex.
package wim

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/projecteru2/core/log"

	"github.com/circuitsable/win2go/runner"
	"github.com/circuitsable/win2go/types"
	"github.com/circuitsable/win2go/utils"
)

var (
	// ErrNoInstallImage is returned when the ISO has neither install.wim
	// nor install.esd.
	ErrNoInstallImage = errors.New("no sources/install.wim or sources/install.esd")
	// ErrInvalidIndex is returned for an index not present in the image.
	ErrInvalidIndex = errors.New("image index not found")
)

const wimlib = "wimlib-imagex"

// FindInstallImage looks for sources/install.wim, then sources/install.esd,
// under isoRoot. Path components match case-insensitively.
func FindInstallImage(isoRoot string) (types.InstallImage, error) {
	candidates := []struct {
		rel    string
		format types.ImageFormat
	}{
		{"sources/install.wim", types.ImageFormatWIM},
		{"sources/install.esd", types.ImageFormatESD},
	}
	for _, c := range candidates {
		if p, ok := utils.FindFold(isoRoot, c.rel); ok && utils.ValidFile(p) {
			return types.InstallImage{Path: p, Format: c.format}, nil
		}
	}
	return types.InstallImage{}, fmt.Errorf("%s: %w", isoRoot, ErrNoInstallImage)
}

// Info lists the editions inside image.
func Info(ctx context.Context, r runner.Runner, image types.InstallImage) ([]types.Edition, error) {
	out, err := r.Output(ctx, runner.Command(wimlib, "info", image.Path))
	if err != nil {
		return nil, fmt.Errorf("read image info: %w", err)
	}
	editions, err := ParseInfo(out)
	if err != nil {
		return nil, err
	}
	log.WithFunc("wim.Info").Debugf(ctx, "%s: %d editions", image.Path, len(editions))
	return editions, nil
}

// ParseInfo decodes the "Available Images" section of `wimlib-imagex info`.
func ParseInfo(data []byte) ([]types.Edition, error) {
	var (
		editions []types.Edition
		cur      *types.Edition
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if key == "Index" {
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("parse image index %q: %w", val, err)
			}
			editions = append(editions, types.Edition{Index: n})
			cur = &editions[len(editions)-1]
			continue
		}
		if cur == nil {
			continue
		}
		switch key {
		case "Name":
			cur.Name = val
		case "Description":
			cur.Description = val
		case "Edition ID":
			cur.EditionID = val
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read image info: %w", err)
	}
	if len(editions) == 0 {
		return nil, errors.New("image info lists no images")
	}
	return editions, nil
}

// Select returns the edition with the given index.
func Select(editions []types.Edition, index int) (types.Edition, error) {
	for _, e := range editions {
		if e.Index == index {
			return e, nil
		}
	}
	return types.Edition{}, fmt.Errorf("index %d (have %d images): %w", index, len(editions), ErrInvalidIndex)
}

// Apply expands edition index of image into dir under the spinner.
func Apply(ctx context.Context, r runner.Runner, image types.InstallImage, edition types.Edition, dir string) error {
	label := fmt.Sprintf("Extracting %s", edition.Name)
	if edition.Name == "" {
		label = fmt.Sprintf("Extracting image %d", edition.Index)
	}
	cmd := runner.Command(wimlib, "apply", image.Path, strconv.Itoa(edition.Index), dir).WithLabel(label)
	if err := r.Run(ctx, cmd); err != nil {
		return fmt.Errorf("apply %s index %d: %w", image.Path, edition.Index, err)
	}
	return nil
}
