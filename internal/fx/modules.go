package fx

import (
	"context"
	"database/sql"
	"rank-decay-tracker/internal/api"
	"rank-decay-tracker/internal/config"
	"rank-decay-tracker/internal/database"
	"rank-decay-tracker/internal/db"
	"rank-decay-tracker/internal/logger"
	"rank-decay-tracker/internal/ratelimit"
	"rank-decay-tracker/internal/repository"
	"rank-decay-tracker/internal/server"
	"rank-decay-tracker/internal/service"
	"rank-decay-tracker/internal/store"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

func ProvideMatchFetcher(provider service.MatchProvider, cfg *config.Config, logger zerolog.Logger) *service.MatchFetcher {
	return service.NewMatchFetcher(provider, cfg.MatchFetchConcurrency, logger)
}

// ProvideStore opens the configured backend and closes it on shutdown.
func ProvideStore(lc fx.Lifecycle, cfg *config.Config, sqlite *store.SQLiteStore, logger zerolog.Logger) (store.Store, error) {
	st, err := store.Open(cfg, sqlite, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := st.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing record store")
			}
			return nil
		},
	})
	return st, nil
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// storage
	fx.Provide(store.NewSQLiteStore),
	fx.Provide(ProvideStore),
	fx.Provide(fx.Annotate(
		repository.NewDecayHistoryRepository,
		fx.As(new(service.DecayHistory)),
	)),
	// rank provider
	fx.Provide(ratelimit.NewFromConfig),
	fx.Provide(fx.Annotate(
		api.NewRiotClient,
		fx.As(fx.Self()),
		fx.As(new(service.RankProvider)),
		fx.As(new(service.MatchProvider)),
	)),
	// svc
	fx.Provide(service.NewResolver),
	fx.Provide(ProvideMatchFetcher),
	fx.Provide(service.NewPlayerService),
	// server
	fx.Provide(server.NewDecayServer),
)
