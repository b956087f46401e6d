package core

import (
	"context"
	"fmt"
	"os"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/circuitsable/win2go/config"
	"github.com/circuitsable/win2go/mount"
	"github.com/circuitsable/win2go/runner"
	"github.com/circuitsable/win2go/spinner"
)

// BaseHandler provides shared config access for all command handlers.
type BaseHandler struct {
	ConfProvider func() *config.Config
}

// Init returns the command context and validated config in one call.
func (h BaseHandler) Init(cmd *cobra.Command) (context.Context, *config.Config, error) {
	conf, err := h.Conf()
	if err != nil {
		return nil, nil, err
	}
	return CommandContext(cmd), conf, nil
}

// Conf validates and returns the config. All handlers call this first.
func (h BaseHandler) Conf() (*config.Config, error) {
	if h.ConfProvider == nil {
		return nil, fmt.Errorf("config provider is nil")
	}
	conf := h.ConfProvider()
	if conf == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	return conf, nil
}

// CommandContext returns command context, falling back to Background.
func CommandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// InitSystem wires the real command runner and mounter. Spinner output goes
// to stderr so stdout stays clean for tables.
func InitSystem() (*runner.Exec, *mount.System) {
	r := runner.NewExec(spinner.New(os.Stderr))
	return r, mount.NewSystem(r)
}

// RequireRoot fails unless the process runs with euid 0.
func RequireRoot(what string) error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("%s needs root privileges, try: sudo win2go", what)
	}
	return nil
}

func FormatSize(bytes int64) string {
	return units.HumanSize(float64(bytes))
}
