package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"rank-decay-tracker/internal/config"
	"rank-decay-tracker/internal/constants"
	fxmodules "rank-decay-tracker/internal/fx"
	"rank-decay-tracker/internal/server"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	decayServer *server.DecayServer,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           decayServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// Searches may run the full upstream pipeline.
		WriteTimeout: constants.RequestTimeout + 5*time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Str("store_backend", cfg.StoreBackend).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
