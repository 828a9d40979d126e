package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/warp/journey-engine/api"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}

			store, err := openStore(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			handler, err := newHandler(cfg, store, nil)
			if err != nil {
				return err
			}

			if cfg.Scheduler.Enabled {
				scheduler := api.NewUnlockScheduler(handler, cfg.Scheduler.Spec)
				if err := scheduler.Start(); err != nil {
					return err
				}
				defer scheduler.Stop()
			}

			server := &http.Server{
				Addr:         cfg.Addr(),
				Handler:      api.NewRouter(handler, api.RouterOptions{AllowedOrigins: cfg.Server.AllowedOrigins}),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", server.Addr).Str("db", cfg.Database.Path).Msg("server starting")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			// Wait for interrupt signal
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			log.Info().Msg("shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return err
			}
			log.Info().Msg("server stopped")
			return nil
		},
	}
}
