// Package boot assembles the EFI system partition contents.
package boot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/projecteru2/core/log"

	"github.com/circuitsable/win2go/runner"
	"github.com/circuitsable/win2go/utils"
)

// ErrNoBootloader is returned when neither the ISO nor the applied image
// provides an EFI boot manager.
var ErrNoBootloader = errors.New("no EFI boot files found")

// bootmgfw is the Windows boot manager inside an applied image.
const bootmgfw = "Windows/Boot/EFI/bootmgfw.efi"

// Targets inside the ESP the boot manager is copied to.
var bootmgrTargets = []string{
	"EFI/Boot/bootx64.efi",
	"EFI/Microsoft/Boot/bootmgfw.efi",
}

// Stage fills stageDir with the ESP tree: the ISO's efi directory under
// EFI/, then the applied image's boot manager as the removable-media
// fallback loader and as the Microsoft entry.
func Stage(ctx context.Context, r runner.Runner, isoRoot, imageRoot, stageDir string) error {
	logger := log.WithFunc("boot.Stage")
	found := false

	if efi, ok := utils.FindFold(isoRoot, "efi"); ok && utils.IsDir(efi) {
		dst := filepath.Join(stageDir, "EFI")
		if err := os.MkdirAll(dst, 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("create %s: %w", dst, err)
		}
		if err := r.Run(ctx, runner.Command("rsync", "-r", efi+"/", dst+"/")); err != nil {
			return fmt.Errorf("copy EFI tree: %w", err)
		}
		found = true
	} else {
		logger.Warnf(ctx, "no efi directory on %s", isoRoot)
	}

	if src, ok := utils.FindFold(imageRoot, bootmgfw); ok && utils.ValidFile(src) {
		for _, rel := range bootmgrTargets {
			dst, ok := utils.FindFold(stageDir, rel)
			if !ok {
				dst = filepath.Join(stageDir, filepath.FromSlash(rel))
			}
			if err := utils.CopyFile(src, dst); err != nil {
				return fmt.Errorf("install boot manager to %s: %w", rel, err)
			}
			logger.Debugf(ctx, "copied %s -> %s", src, dst)
		}
		found = true
	} else {
		logger.Warnf(ctx, "applied image has no %s", bootmgfw)
	}

	if !found {
		return ErrNoBootloader
	}
	return nil
}
