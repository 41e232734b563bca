package server

import (
	"net/http"
	"rank-decay-tracker/internal/api"
	"rank-decay-tracker/internal/middleware"
	"rank-decay-tracker/internal/ratelimit"
	"rank-decay-tracker/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type DecayServer struct {
	players  *service.PlayerService
	governor *ratelimit.Governor
	riot     *api.RiotClient
	logger   zerolog.Logger
}

func NewDecayServer(players *service.PlayerService, governor *ratelimit.Governor, riot *api.RiotClient, logger zerolog.Logger) *DecayServer {
	return &DecayServer{players: players, governor: governor, riot: riot, logger: logger}
}

func (s *DecayServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/health", s.Health)

	r.Get("/players", s.ListPlayers)
	r.Get("/players/{key}", s.GetPlayer)
	r.Get("/players/{key}/decay-history", s.GetDecayHistory)
	r.Get("/search/{handle}/{tag}", s.Search)

	r.Post("/refresh", s.Refresh)
	r.Post("/update", s.Update)
	r.Post("/update-decay", s.UpdateDecay)
	r.Post("/update-favorite", s.UpdateFavorite)
	r.Post("/delete-player", s.DeletePlayer)

	return r
}
