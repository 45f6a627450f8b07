package cmd

import (
	"github.com/spf13/cobra"

	"video-overlay/pkg/deps"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the external programs players need are installed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return deps.NewChecker(deps.Default(cfg.Engine.MPVPath)...).CheckAndPrint(cmd.OutOrStdout())
	},
}
