package service

import (
	"context"
	"fmt"
	"rank-decay-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type Resolution struct {
	Identity domain.Identity
	Profile  domain.Profile
	Leagues  []domain.RankStanding
	// Solo is the ranked-solo entry of Leagues, nil when unranked.
	Solo *domain.RankStanding
}

// Resolver walks handle/tag -> account -> summoner profile -> league entries.
// Any failing stage fails the whole resolution.
type Resolver struct {
	provider RankProvider
	logger   zerolog.Logger
}

func NewResolver(provider RankProvider, logger zerolog.Logger) *Resolver {
	return &Resolver{provider: provider, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, handle, tag string) (*Resolution, error) {
	r.logger.Debug().Str("handle", handle).Str("tag", tag).Msg("resolving account")

	acc, err := r.provider.GetAccountByRiotID(ctx, handle, tag)
	if err != nil {
		r.logger.Error().Err(err).Str("handle", handle).Str("tag", tag).Msg("failed to fetch account")
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	if acc.PUUID == "" {
		return nil, fmt.Errorf("%w: account response without puuid", domain.ErrUpstreamPermanent)
	}

	summoner, err := r.provider.GetSummonerByPUUID(ctx, acc.PUUID)
	if err != nil {
		r.logger.Error().Err(err).Str("puuid", acc.PUUID).Msg("failed to fetch summoner")
		return nil, fmt.Errorf("failed to fetch summoner: %w", err)
	}
	if summoner.ID == "" {
		return nil, fmt.Errorf("%w: summoner response without id", domain.ErrUpstreamPermanent)
	}

	entries, err := r.provider.GetLeagueEntries(ctx, summoner.ID)
	if err != nil {
		r.logger.Error().Err(err).Str("summoner_id", summoner.ID).Msg("failed to fetch league entries")
		return nil, fmt.Errorf("failed to fetch league entries: %w", err)
	}

	leagues := make([]domain.RankStanding, 0, len(entries))
	for _, e := range entries {
		leagues = append(leagues, domain.RankStanding{
			QueueType:    e.QueueType,
			Tier:         domain.ParseTier(e.Tier),
			Division:     e.Rank,
			LeaguePoints: e.LeaguePoints,
			Wins:         e.Wins,
			Losses:       e.Losses,
		})
	}

	res := &Resolution{
		Identity: canonicalIdentity(handle, tag, acc.GameName, acc.TagLine),
		Profile: domain.Profile{
			PUUID:         acc.PUUID,
			SummonerID:    summoner.ID,
			ProfileIconID: summoner.ProfileIconID,
			SummonerLevel: summoner.SummonerLevel,
		},
		Leagues: leagues,
		Solo:    domain.SoloStanding(leagues),
	}

	r.logger.Info().
		Str("key", res.Identity.Key()).
		Str("tier", tierOf(res.Solo).String()).
		Int("queues", len(leagues)).
		Msg("account resolved")
	return res, nil
}

// canonicalIdentity prefers the provider's spelling of the name, as long as
// it maps to the same record key as what was asked for.
func canonicalIdentity(handle, tag, gameName, tagLine string) domain.Identity {
	requested := domain.Identity{Handle: handle, Tag: tag}
	if gameName == "" || tagLine == "" {
		return requested
	}
	returned := domain.Identity{Handle: gameName, Tag: tagLine}
	if returned.Key() != requested.Key() {
		return requested
	}
	return returned
}

func tierOf(rs *domain.RankStanding) domain.Tier {
	if rs == nil {
		return domain.TierUnranked
	}
	return rs.Tier
}
