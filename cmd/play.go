package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"video-overlay/internal/events"
	"video-overlay/internal/log"
	"video-overlay/pkg/deps"
)

func init() {
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play <url>",
	Short: "Open one player and block until it ends or is interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.WithComponent("play")

		if err := deps.NewChecker(deps.Default(cfg.Engine.MPVPath)...).CheckAndPrint(os.Stderr); err != nil {
			return err
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		a.run()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		openCtx, cancel := context.WithTimeout(ctx, cfg.Engine.StartTimeout)
		id, err := a.frontend.Open(openCtx, args[0])
		cancel()
		if err != nil {
			a.shutdown(context.Background())
			return err
		}
		if id == "" {
			a.shutdown(context.Background())
			return errors.New("nothing to play")
		}

		sub := a.frontend.Subscribe(id, cfg.Events.Buffer)
		defer sub.Cancel()
		fmt.Fprintln(cmd.OutOrStdout(), id)

	wait:
		for {
			select {
			case <-ctx.Done():
				logger.Info("interrupted")
				break wait
			case <-a.frontend.Done(id):
				break wait
			case msg, ok := <-sub.C:
				if !ok || msg.Event == events.Closed {
					logger.WithField("player", id).Info("playback finished")
					break wait
				}
			}
		}

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 2*cfg.Engine.StartTimeout)
		defer cancelShutdown()
		a.shutdown(shutdownCtx)
		return nil
	},
}
