package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/tgienger/teamboard/internal/config"
	"github.com/tgienger/teamboard/internal/rest"
)

// serveCmd implements 'teamboard serve'.
func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		Run: func(_ *cobra.Command, _ []string) {
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			if cfg.Env != config.EnvLocal {
				gin.SetMode(gin.ReleaseMode)
			}

			svc, _, cleanup, err := openService()
			if err != nil {
				printError(err)
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.WithField("config", cfg).Info("Application start!")
			server := rest.NewServer(svc, log, rest.Options{Addr: cfg.HTTP.Addr, UserHeader: cfg.HTTP.UserHeader})
			if err := server.Run(ctx); err != nil {
				log.WithError(err).Error("http server stopped")
				cleanup()
				printError(err)
			}
			log.Info("Application stopped")
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides http.addr)")
	return cmd
}
