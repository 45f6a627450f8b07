// Package cmd implements the video-overlay command line.
package cmd

import (
	"fmt"
	"os"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"video-overlay/internal/config"
	"video-overlay/internal/log"
)

var configDir string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "C", "", "Directory holding config.toml")

	rootCmd.PersistentFlags().String("log-level", "info", "Minimum log level")
	lo.Must0(viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level")))

	rootCmd.PersistentFlags().Bool("log-json", false, "Emit log records as JSON")
	lo.Must0(viper.BindPFlag(config.KeyLogJSON, rootCmd.PersistentFlags().Lookup("log-json")))

	rootCmd.PersistentFlags().String("engine", "mpv", "Media engine backend")
	lo.Must0(viper.BindPFlag(config.KeyEngineBackend, rootCmd.PersistentFlags().Lookup("engine")))

	rootCmd.PersistentFlags().StringP("toolkit", "t", "detached", "Window toolkit (detached, x11)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("toolkit", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return toolkits, cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(config.KeyWindowToolkit, rootCmd.PersistentFlags().Lookup("toolkit")))
}

var rootCmd = &cobra.Command{
	Use:           config.AppName,
	Short:         "Embed video players into native windows and drive them over a socket or HTTP",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()
		if err := config.Setup(viper.GetViper(), fs, configDir); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = config.FromViper(viper.GetViper())
		return log.Setup(fs, log.Options{
			Level: cfg.Log.Level,
			JSON:  cfg.Log.JSON,
			File:  cfg.Log.File,
		})
	},
}

// cfg is loaded before any subcommand runs.
var cfg *config.Config

// Execute runs the command line.
func Execute() {
	if os.Getenv("NO_COLOR") == "" {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
