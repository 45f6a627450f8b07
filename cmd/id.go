package cmd

import (
	"github.com/spf13/cobra"

	"video-overlay/internal/player"
)

func init() {
	rootCmd.AddCommand(idCmd)
}

var idCmd = &cobra.Command{
	Use:   "id <url>...",
	Short: "Print the player id each url maps to",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, url := range args {
			cmd.Println(player.ID(url))
		}
	},
}
