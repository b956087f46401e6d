package build

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	"github.com/circuitsable/win2go/builder"
	"github.com/circuitsable/win2go/cleanup"
	cmdcore "github.com/circuitsable/win2go/cmd/core"
	"github.com/circuitsable/win2go/deps"
	"github.com/circuitsable/win2go/history"
	"github.com/circuitsable/win2go/iso"
	"github.com/circuitsable/win2go/owner"
	"github.com/circuitsable/win2go/partition"
	"github.com/circuitsable/win2go/prompt"
	"github.com/circuitsable/win2go/utils"
)

type Handler struct {
	cmdcore.BaseHandler
}

func (h Handler) Build(cmd *cobra.Command, _ []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	logger := log.WithFunc("cmd.build")

	flags := cmd.Flags()
	isoArg, _ := flags.GetString("iso")
	driveArg, _ := flags.GetString("drive")
	driversDir, _ := flags.GetString("drivers")
	userName, _ := flags.GetString("user")
	yes, _ := flags.GetBool("yes")

	if err := deps.Verify(ctx, conf.Partitioner); err != nil {
		return err
	}
	if err := cmdcore.RequireRoot("writing a drive"); err != nil {
		return err
	}
	if driversDir != "" && !utils.IsDir(driversDir) {
		return fmt.Errorf("drivers directory %s does not exist", driversDir)
	}
	if err := conf.EnsureDirs(); err != nil {
		return err
	}
	who, err := owner.Lookup(userName)
	if err != nil {
		return err
	}

	r, m := cmdcore.InitSystem()
	term := prompt.Stdio(yes)
	s := newSession(conf, r, term, who, os.Stderr)

	c := cleanup.New()
	defer c.Run(ctx) //nolint:errcheck

	src, err := s.selectISO(ctx, isoArg)
	if err != nil {
		return err
	}
	if src.Downloaded && !conf.KeepDownloads {
		c.Add("delete downloaded ISO", cleanup.DeleteDownload(term, src.Path))
	}
	info, err := iso.Inspect(src.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", src.Path, err)
	}
	src.Label = info.Label
	logger.Infof(ctx, "source %s (volume %q)", src.Path, info.Label)
	if info.UDFOnly {
		logger.Debugf(ctx, "install image is only visible through UDF, it is located after mounting")
	}

	target, err := s.selectDrive(ctx, driveArg)
	if err != nil {
		return err
	}
	if err := s.confirmErase(target); err != nil {
		return err
	}

	part, err := partition.New(conf.Partitioner, r)
	if err != nil {
		return err
	}

	hist := history.New(conf)
	run, err := hist.Start(ctx, src.Path, target.Path, conf.ImageIndex)
	if err != nil {
		logger.Warnf(ctx, "history: %v", err)
	}

	b := builder.New(conf, r, m, part, buildTracker(os.Stdout))
	res, buildErr := b.Build(ctx, builder.Options{
		ISO:        src,
		Drive:      target,
		ImageIndex: conf.ImageIndex,
		DriversDir: driversDir,
	})
	if run != nil {
		if err := hist.Finish(context.WithoutCancel(ctx), run.ID, buildErr); err != nil {
			logger.Warnf(ctx, "history: %v", err)
		}
	}
	if buildErr != nil {
		return buildErr
	}
	fmt.Printf("Windows To Go drive ready on %s: %s (index %d), took %s\n",
		target.Path, res.Edition.Name, res.Edition.Index, res.Duration.Round(time.Second))
	return nil
}
