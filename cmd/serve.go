package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"video-overlay/internal/config"
	"video-overlay/internal/log"
	"video-overlay/internal/server"
	"video-overlay/pkg/deps"
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8180", "HTTP control API listen address, empty to disable")
	lo.Must0(viper.BindPFlag(config.KeyHTTPAddr, serveCmd.Flags().Lookup("addr")))

	serveCmd.Flags().String("socket", server.DefaultSocketPath, "Control socket path, empty to disable")
	lo.Must0(viper.BindPFlag(config.KeySocketPath, serveCmd.Flags().Lookup("socket")))
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the player daemon with the socket and HTTP control surfaces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.WithComponent("serve")

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

		var sock *server.SocketServer
		if cfg.Socket.Path != "" {
			handler := server.NewHandler(a.frontend, cfg.Events.Buffer, cfg.Engine.StartTimeout)
			sock = server.NewSocketServer(cfg.Socket.Path, handler)
			if err := sock.Start(ctx); err != nil {
				a.shutdown(context.Background())
				return err
			}
		}

		var srv *http.Server
		if cfg.HTTP.Addr != "" {
			api := server.NewAPI(a.frontend, cfg.Events.Buffer, cfg.Engine.StartTimeout)
			srv = &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           server.SetupRouter(api),
				ReadHeaderTimeout: 10 * time.Second,
				// Event streams end with the signal context instead of holding Shutdown open.
				BaseContext: func(net.Listener) context.Context { return ctx },
			}
			go func() {
				logger.Infof("HTTP API listening on %s", cfg.HTTP.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.WithError(err).Error("HTTP server")
					stop()
				}
			}()
		}

		logger.Info("ready")
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.Engine.StartTimeout)
		defer cancel()

		if srv != nil {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Warn("HTTP shutdown")
			}
		}
		if sock != nil {
			sock.Stop()
		}
		a.shutdown(shutdownCtx)
		return nil
	},
}
