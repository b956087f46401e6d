package others

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Actions defines the auxiliary operations around a build.
type Actions interface {
	Check(cmd *cobra.Command, args []string) error
	Drives(cmd *cobra.Command, args []string) error
	History(cmd *cobra.Command, args []string) error
	Clean(cmd *cobra.Command, args []string) error
	Version(cmd *cobra.Command, args []string) error
}

// Commands builds the auxiliary command set.
func Commands(h Actions) []*cobra.Command {
	drives := &cobra.Command{
		Use:   "drives",
		Short: "List drives that can be written",
		Args:  cobra.NoArgs,
		RunE:  h.Drives,
	}
	drives.Flags().BoolP("all", "a", false, "list every block device, including rejected ones")

	return []*cobra.Command{
		{
			Use:   "check",
			Short: "Check that the required external tools are installed",
			Args:  cobra.NoArgs,
			RunE:  h.Check,
		},
		drives,
		{
			Use:   "history",
			Short: "List past build runs",
			Args:  cobra.NoArgs,
			RunE:  h.History,
		},
		{
			Use:   "clean",
			Short: "Remove stale scratch directories and leftover mounts",
			Args:  cobra.NoArgs,
			RunE:  h.Clean,
		},
		{
			Use:   "version",
			Short: "Show version, git revision, and build timestamp",
			Args:  cobra.NoArgs,
			RunE:  h.Version,
		},
		{
			Use:       "completion [bash|zsh|fish|powershell]",
			Short:     "Generate shell completion script",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
			RunE: func(cmd *cobra.Command, args []string) error {
				root := cmd.Root()
				switch args[0] {
				case "bash":
					return root.GenBashCompletion(os.Stdout)
				case "zsh":
					return root.GenZshCompletion(os.Stdout)
				case "fish":
					return root.GenFishCompletion(os.Stdout, true)
				case "powershell":
					return root.GenPowerShellCompletionWithDesc(os.Stdout)
				default:
					return fmt.Errorf("unsupported shell: %s", args[0])
				}
			},
		},
	}
}
