package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Digital-Shane/episode-roulette/internal/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serve the show search, show lookup and random episode routes over HTTP.
The static frontend is served too when server.static_dir exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := a.newCatalog(a)
			if err != nil {
				return err
			}

			cfg := a.cfg.Server
			srv := server.New(server.Config{
				Port:           cfg.Port,
				Env:            cfg.Env,
				StaticDir:      cfg.StaticDir,
				RateLimitRPS:   cfg.RateLimit.RPS,
				RateLimitBurst: cfg.RateLimit.Burst,
				ReadTimeout:    cfg.ReadTimeout,
				WriteTimeout:   cfg.WriteTimeout,
			}, catalog, a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				errc <- srv.Start()
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				return err
			}
			return <-errc
		},
	}
}
