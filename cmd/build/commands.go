package build

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/circuitsable/win2go/config"
)

// Actions defines the drive build operation.
type Actions interface {
	Build(cmd *cobra.Command, args []string) error
}

// Setup turns cmd into the build command: it registers the build flags and
// runs h.Build.
func Setup(cmd *cobra.Command, h Actions) {
	defaults := config.DefaultConfig()
	fl := cmd.Flags()
	fl.StringP("iso", "i", "", "Windows ISO path or HTTP(S) URL")
	fl.StringP("drive", "d", "", "target block device, e.g. /dev/sdb")
	fl.StringP("drivers", "r", "", "driver directory copied into Windows/Drivers")
	fl.StringP("user", "u", "", "invoking user, for ~/Downloads and file ownership (default $SUDO_USER)")
	fl.BoolP("yes", "y", false, "answer yes to every confirmation")
	fl.Int("index", defaults.ImageIndex, "image index inside install.wim/esd")
	fl.String("partitioner", defaults.Partitioner, "partition table writer: parted or diskfs")

	_ = viper.BindPFlag("image_index", fl.Lookup("index"))
	_ = viper.BindPFlag("partitioner", fl.Lookup("partitioner"))

	cmd.Args = cobra.NoArgs
	cmd.RunE = h.Build
}
