package commands

import (
	"github.com/spf13/cobra"
)

var configPath string

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "latch",
		Short:        "Shared value with a background refresher and an editable lock",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (.yaml, .json or .toml)")

	root.AddCommand(runCmd())
	return root
}
