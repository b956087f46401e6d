package others

import (
	"fmt"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/circuitsable/win2go/cmd/core"
	"github.com/circuitsable/win2go/config"
	"github.com/circuitsable/win2go/deps"
	"github.com/circuitsable/win2go/drive"
	"github.com/circuitsable/win2go/gc"
	"github.com/circuitsable/win2go/history"
	"github.com/circuitsable/win2go/lock/flock"
	"github.com/circuitsable/win2go/mount"
	"github.com/circuitsable/win2go/utils"
	"github.com/circuitsable/win2go/version"
)

type Handler struct {
	cmdcore.BaseHandler
}

func (h Handler) Check(cmd *cobra.Command, _ []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	if err := deps.Verify(ctx, conf.Partitioner); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "All dependencies are installed.") //nolint:errcheck
	return nil
}

func (h Handler) Drives(cmd *cobra.Command, _ []string) error {
	ctx, _, err := h.Init(cmd)
	if err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")

	r, _ := cmdcore.InitSystem()
	drives, err := drive.List(ctx, r)
	if err != nil {
		return err
	}
	if !all {
		drives = drive.Candidates(drives)
	}
	if len(drives) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No usable drives found.") //nolint:errcheck
		return nil
	}
	return drive.PrintTable(cmd.OutOrStdout(), drives)
}

func (h Handler) History(cmd *cobra.Command, _ []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	runs, err := history.New(conf).List(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.") //nolint:errcheck
		return nil
	}
	return history.PrintTable(out, runs)
}

func (h Handler) Clean(cmd *cobra.Command, _ []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	if err := cmdcore.RequireRoot("clean"); err != nil {
		return err
	}
	_, m := cmdcore.InitSystem()
	if err := newCleaner(conf, m).Run(ctx); err != nil {
		return err
	}
	log.WithFunc("cmd.clean").Infof(ctx, "clean completed")
	return nil
}

// newCleaner collects leftover mounts, stale scratch directories and runs
// stuck in the running state, under the build lock.
func newCleaner(conf *config.Config, m mount.Mounter) *gc.Orchestrator {
	o := gc.New(flock.New(conf.BuildLock()))
	gc.Register(o, gc.MountModule(m, conf.MountPoints()...))
	gc.Register(o, gc.ScratchModule(conf.TempDir, utils.StaleTempAge))
	gc.Register(o, history.New(conf).GCModule())
	return o
}

func (h Handler) Version(cmd *cobra.Command, _ []string) error {
	fmt.Fprint(cmd.OutOrStdout(), version.String()) //nolint:errcheck
	return nil
}
