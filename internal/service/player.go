package service

import (
	"context"
	"fmt"
	"rank-decay-tracker/internal/constants"
	"rank-decay-tracker/internal/decay"
	"rank-decay-tracker/internal/domain"
	"rank-decay-tracker/internal/store"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type PlayerService struct {
	resolver *Resolver
	fetcher  *MatchFetcher
	store    store.Store
	history  DecayHistory
	logger   zerolog.Logger
	now      func() time.Time
	flights  singleflight.Group
}

func NewPlayerService(resolver *Resolver, fetcher *MatchFetcher, st store.Store, history DecayHistory, logger zerolog.Logger) *PlayerService {
	return &PlayerService{
		resolver: resolver,
		fetcher:  fetcher,
		store:    st,
		history:  history,
		logger:   logger,
		now:      time.Now,
	}
}

// Search resolves handle#tag, reconciles its recent matches and merges the
// result into the stored record, creating it on first sight.
//
// The refresh outlives the caller: it runs detached from ctx, bounded by
// RequestTimeout, and concurrent searches for one key share a single run.
func (s *PlayerService) Search(ctx context.Context, handle, tag string) (domain.PlayerRecord, error) {
	handle, tag = strings.TrimSpace(handle), strings.TrimSpace(tag)
	if !domain.ValidIdentity(handle, tag) {
		return domain.PlayerRecord{}, fmt.Errorf("%w: handle and tag are required", domain.ErrValidation)
	}

	key := domain.NormalizeKey(handle, tag)
	logger := s.logger.With().Str("key", key).Logger()
	logger.Info().Str("handle", handle).Str("tag", tag).Msg("searching player")

	ch := s.flights.DoChan(key, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.RequestTimeout)
		defer cancel()
		return s.refresh(runCtx, key, handle, tag)
	})

	select {
	case <-ctx.Done():
		logger.Warn().Err(ctx.Err()).Msg("caller left before refresh finished")
		return domain.PlayerRecord{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.PlayerRecord{}, res.Err
		}
		if res.Shared {
			logger.Debug().Msg("joined in-flight refresh")
		}
		return res.Val.(domain.PlayerRecord).Clone(), nil
	}
}

// Refresh re-runs Search for a stored record's identity.
func (s *PlayerService) Refresh(ctx context.Context, key string) (domain.PlayerRecord, error) {
	if key == "" {
		return domain.PlayerRecord{}, fmt.Errorf("%w: key is required", domain.ErrValidation)
	}
	rec, err := s.store.Get(ctx, key)
	if err != nil {
		return domain.PlayerRecord{}, err
	}
	if !domain.ValidIdentity(rec.Identity.Handle, rec.Identity.Tag) {
		return domain.PlayerRecord{}, fmt.Errorf("%w: player %q has no stored identity", domain.ErrValidation, key)
	}
	return s.Search(ctx, rec.Identity.Handle, rec.Identity.Tag)
}

func (s *PlayerService) refresh(ctx context.Context, key, handle, tag string) (domain.PlayerRecord, error) {
	res, err := s.resolver.Resolve(ctx, handle, tag)
	if err != nil {
		return domain.PlayerRecord{}, err
	}

	fetched, err := s.fetcher.Fetch(ctx, res.Profile.PUUID)
	if err != nil {
		return domain.PlayerRecord{}, err
	}

	now := s.now().UTC()
	tier := tierOf(res.Solo)

	// Reconcile against whatever is stored at commit time, so two refreshes
	// racing on one key never count the same match twice.
	var change domain.DecayChange
	rec, err := s.store.Update(ctx, key, func(current *domain.PlayerRecord) (domain.PlayerRecord, error) {
		var base domain.PlayerRecord
		if current != nil {
			base = *current
		}
		// Records created by a bare merge have no identity until resolved.
		if base.Identity == (domain.Identity{}) {
			base.Identity = res.Identity
		}

		history, newCount := Reconcile(base.MatchHistory, fetched)
		days := decay.Next(tier, base.DecayDaysLeft, newCount)

		patch := domain.PlayerPatch{
			Profile:       &res.Profile,
			RankStanding:  res.Solo,
			ClearRank:     res.Solo == nil,
			Leagues:       &res.Leagues,
			DecayDaysLeft: &days,
			LastCheckedAt: &now,
			MatchHistory:  &history,
		}
		change = domain.DecayChange{
			Key:        key,
			Tier:       tier,
			Previous:   base.DecayDaysLeft,
			Updated:    days,
			NewMatches: newCount,
			Source:     domain.DecaySourceRefresh,
			RecordedAt: now,
		}
		return patch.Apply(base), nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to merge refresh")
		return domain.PlayerRecord{}, err
	}

	if change.Previous != change.Updated || change.NewMatches > 0 {
		s.recordChange(ctx, change)
	}

	s.logger.Info().
		Str("key", key).
		Str("tier", tier.String()).
		Int("new_matches", change.NewMatches).
		Int("decay_days_left", rec.DecayDaysLeft).
		Msg("player refreshed")
	return rec, nil
}

func (s *PlayerService) ListPlayers(ctx context.Context) (map[string]domain.PlayerRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.store.GetAll(ctx)
}

func (s *PlayerService) GetPlayer(ctx context.Context, key string) (domain.PlayerRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.store.Get(ctx, key)
}

// UpdatePlayer merges patch into the record, creating it if needed. Decay and
// match history edits are checked against the resulting record.
func (s *PlayerService) UpdatePlayer(ctx context.Context, key string, patch domain.PlayerPatch) (domain.PlayerRecord, error) {
	if key == "" {
		return domain.PlayerRecord{}, fmt.Errorf("%w: key is required", domain.ErrValidation)
	}
	if patch.Empty() {
		return domain.PlayerRecord{}, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}
	if patch.MatchHistory != nil {
		if err := validateHistory(*patch.MatchHistory); err != nil {
			return domain.PlayerRecord{}, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if patch.DecayDaysLeft == nil && patch.RankStanding == nil {
		return s.store.UpsertMerge(ctx, key, patch)
	}

	merge := store.Merge(patch)
	return s.store.Update(ctx, key, func(current *domain.PlayerRecord) (domain.PlayerRecord, error) {
		next, err := merge(current)
		if err != nil {
			return domain.PlayerRecord{}, err
		}
		if err := decay.Validate(next.Tier(), next.DecayDaysLeft); err != nil {
			return domain.PlayerRecord{}, err
		}
		return next, nil
	})
}

// UpdateDecay is the manual override of an existing record's countdown.
func (s *PlayerService) UpdateDecay(ctx context.Context, key string, days int, lastCheckedAt *time.Time) (domain.PlayerRecord, error) {
	if key == "" {
		return domain.PlayerRecord{}, fmt.Errorf("%w: key is required", domain.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	var change domain.DecayChange
	rec, err := s.store.Update(ctx, key, func(current *domain.PlayerRecord) (domain.PlayerRecord, error) {
		if current == nil {
			return domain.PlayerRecord{}, fmt.Errorf("%w: player %q", domain.ErrNotFound, key)
		}
		if err := decay.Validate(current.Tier(), days); err != nil {
			return domain.PlayerRecord{}, err
		}
		change = domain.DecayChange{
			Key:        key,
			Tier:       current.Tier(),
			Previous:   current.DecayDaysLeft,
			Updated:    days,
			Source:     domain.DecaySourceManual,
			RecordedAt: s.now().UTC(),
		}
		return domain.PlayerPatch{DecayDaysLeft: &days, LastCheckedAt: lastCheckedAt}.Apply(*current), nil
	})
	if err != nil {
		return domain.PlayerRecord{}, err
	}

	if change.Previous != change.Updated {
		s.recordChange(ctx, change)
	}
	s.logger.Info().Str("key", key).Int("decay_days_left", days).Msg("decay updated manually")
	return rec, nil
}

func (s *PlayerService) UpdateFavorite(ctx context.Context, key string, favorite bool) (domain.PlayerRecord, error) {
	if key == "" {
		return domain.PlayerRecord{}, fmt.Errorf("%w: key is required", domain.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.store.Update(ctx, key, func(current *domain.PlayerRecord) (domain.PlayerRecord, error) {
		if current == nil {
			return domain.PlayerRecord{}, fmt.Errorf("%w: player %q", domain.ErrNotFound, key)
		}
		return domain.PlayerPatch{Favorite: &favorite}.Apply(*current), nil
	})
}

// DeletePlayer removes the record and then its decay history.
func (s *PlayerService) DeletePlayer(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: key is required", domain.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	if err := s.history.DeleteByKey(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to delete decay history")
	}
	s.logger.Info().Str("key", key).Msg("player deleted")
	return nil
}

func (s *PlayerService) DecayHistory(ctx context.Context, key string, limit int) ([]domain.DecayChange, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := s.store.Get(ctx, key); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > constants.DecayHistoryLimit {
		limit = constants.DecayHistoryLimit
	}
	return s.history.GetByKey(ctx, key, limit)
}

// Ping reports whether the record store is reachable.
func (s *PlayerService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.store.Ping(ctx)
}

func (s *PlayerService) recordChange(ctx context.Context, change domain.DecayChange) {
	if err := s.history.Record(ctx, change); err != nil {
		s.logger.Warn().Err(err).Str("key", change.Key).Msg("failed to record decay change")
	}
}

func validateHistory(history []domain.MatchRecord) error {
	if len(history) > constants.MatchWindow {
		return fmt.Errorf("%w: match history holds at most %d matches", domain.ErrValidation, constants.MatchWindow)
	}
	seen := make(map[string]struct{}, len(history))
	for _, m := range history {
		if m.MatchID == "" {
			return fmt.Errorf("%w: match id is required", domain.ErrValidation)
		}
		if _, ok := seen[m.MatchID]; ok {
			return fmt.Errorf("%w: duplicate match id %s", domain.ErrValidation, m.MatchID)
		}
		seen[m.MatchID] = struct{}{}
	}
	return nil
}
