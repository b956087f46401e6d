package cmd

import (
	"context"
	"fmt"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdbuild "github.com/circuitsable/win2go/cmd/build"
	cmdcore "github.com/circuitsable/win2go/cmd/core"
	cmdothers "github.com/circuitsable/win2go/cmd/others"
	"github.com/circuitsable/win2go/config"
)

// envKeys are bound explicitly so WIN2GO_* variables apply even when no
// config file mentions the key.
var envKeys = []string{
	"win_mount", "boot_mount", "iso_mount", "temp_dir", "state_dir", "run_dir",
	"download_dir", "iso_url", "keep_downloads", "esp_size", "large_drive_threshold",
	"partitioner", "image_index",
}

var (
	cfgFile string
	verbose bool
	conf    *config.Config
)

var rootCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "win2go",
		Short: "win2go - create a Windows To Go USB drive from a Windows ISO",
		Long: `win2go partitions a USB drive (GPT: FAT32 EFI system partition + NTFS),
applies a Windows image from an installation ISO onto it and makes it
bootable on UEFI machines. Missing --iso and --drive are asked for.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(commandContext(cmd))
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging, echo every command")

	viper.SetEnvPrefix("WIN2GO")
	viper.AutomaticEnv()

	confProvider := func() *config.Config { return conf }
	base := cmdcore.BaseHandler{ConfProvider: confProvider}

	cmdbuild.Setup(cmd, cmdbuild.Handler{BaseHandler: base})
	for _, c := range cmdothers.Commands(cmdothers.Handler{BaseHandler: base}) {
		cmd.AddCommand(c)
	}

	return cmd
}()

func initConfig(ctx context.Context) error {
	conf = config.DefaultConfig()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("/etc/win2go")
		_ = viper.ReadInConfig() // optional; missing file is OK
	}

	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}
	if err := viper.Unmarshal(conf); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if verbose {
		conf.Log.Level = "debug"
	}
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	return log.SetupLog(ctx, &conf.Log, "")
}

// Execute is the main entry point called from main.go.
func Execute() error {
	ctx, cancel := newCommandContext()
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}
