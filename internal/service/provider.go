package service

import (
	"context"
	"rank-decay-tracker/internal/api"
	"rank-decay-tracker/internal/domain"
)

// RankProvider is the three-stage lookup chain behind the resolver.
type RankProvider interface {
	GetAccountByRiotID(ctx context.Context, handle, tag string) (*api.AccountResponse, error)
	GetSummonerByPUUID(ctx context.Context, puuid string) (*api.SummonerResponse, error)
	GetLeagueEntries(ctx context.Context, summonerID string) ([]api.LeagueEntry, error)
}

type MatchProvider interface {
	GetMatchIDs(ctx context.Context, puuid string, count int) ([]string, error)
	GetMatch(ctx context.Context, matchID string) (*api.MatchResponse, error)
}

type DecayHistory interface {
	Record(ctx context.Context, change domain.DecayChange) error
	GetByKey(ctx context.Context, key string, limit int) ([]domain.DecayChange, error)
	DeleteByKey(ctx context.Context, key string) error
}
