package service

import (
	"context"
	"fmt"
	"rank-decay-tracker/internal/constants"
	"rank-decay-tracker/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// FetchResult is one listing of recent matches reduced to ranked-solo records.
type FetchResult struct {
	// IDs is the listed window, newest first, without duplicates.
	IDs []string
	// Matches holds the ranked-solo records in IDs order.
	Matches []domain.MatchRecord
	// Dropped lists ids whose detail could not be fetched or read.
	Dropped []string
}

type MatchFetcher struct {
	provider MatchProvider
	workers  int
	logger   zerolog.Logger
}

func NewMatchFetcher(provider MatchProvider, workers int, logger zerolog.Logger) *MatchFetcher {
	if workers <= 0 {
		workers = constants.DefaultFetchWorkers
	}
	return &MatchFetcher{provider: provider, workers: workers, logger: logger}
}

type detailResult struct {
	record *domain.MatchRecord
	err    error
}

// Fetch lists the latest MatchWindow matches for puuid and pulls every detail
// in parallel. The listing is required; a failed detail only drops that match.
func (f *MatchFetcher) Fetch(ctx context.Context, puuid string) (*FetchResult, error) {
	ids, err := f.provider.GetMatchIDs(ctx, puuid, constants.MatchWindow)
	if err != nil {
		f.logger.Error().Err(err).Str("puuid", puuid).Msg("failed to list matches")
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	ids = uniqueIDs(ids, constants.MatchWindow)

	results := make([]detailResult, len(ids))
	var g errgroup.Group
	g.SetLimit(f.workers)
	for i, id := range ids {
		g.Go(func() error {
			rec, err := f.fetchDetail(ctx, puuid, id)
			results[i] = detailResult{record: rec, err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := &FetchResult{IDs: ids}
	for i, r := range results {
		switch {
		case r.err != nil:
			f.logger.Warn().Err(r.err).Str("match_id", ids[i]).Msg("dropping match after detail failure")
			out.Dropped = append(out.Dropped, ids[i])
		case r.record != nil:
			out.Matches = append(out.Matches, *r.record)
		}
	}

	f.logger.Debug().
		Str("puuid", puuid).
		Int("listed", len(ids)).
		Int("ranked_solo", len(out.Matches)).
		Int("dropped", len(out.Dropped)).
		Msg("match details fetched")
	return out, nil
}

// fetchDetail returns nil without error for matches outside the solo queue.
func (f *MatchFetcher) fetchDetail(ctx context.Context, puuid, id string) (*domain.MatchRecord, error) {
	m, err := f.provider.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Info.QueueID != constants.RankedSoloQueueID {
		return nil, nil
	}
	for _, p := range m.Info.Participants {
		if p.PUUID != puuid {
			continue
		}
		matchID := m.Metadata.MatchID
		if matchID == "" {
			matchID = id
		}
		return &domain.MatchRecord{MatchID: matchID, Champion: p.ChampionName, Win: p.Win}, nil
	}
	return nil, fmt.Errorf("%w: match %s has no participant %s", domain.ErrUpstreamPermanent, id, puuid)
}

func uniqueIDs(ids []string, limit int) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, min(len(ids), limit))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Reconcile merges a fetch into the previously stored history and reports how
// many of the fetched matches were not known before.
//
// The result follows the listed order. A match whose detail was dropped keeps
// its previous record. Previously stored matches that fell out of the listing
// follow, and the whole history is capped at MatchWindow.
func Reconcile(previous []domain.MatchRecord, fetched *FetchResult) ([]domain.MatchRecord, int) {
	known := make(map[string]domain.MatchRecord, len(previous))
	for _, m := range previous {
		if _, ok := known[m.MatchID]; !ok {
			known[m.MatchID] = m
		}
	}
	fresh := make(map[string]domain.MatchRecord, len(fetched.Matches))
	for _, m := range fetched.Matches {
		fresh[m.MatchID] = m
	}

	history := make([]domain.MatchRecord, 0, constants.MatchWindow)
	seen := make(map[string]struct{}, constants.MatchWindow)
	add := func(m domain.MatchRecord) {
		if len(history) == constants.MatchWindow {
			return
		}
		if _, ok := seen[m.MatchID]; ok {
			return
		}
		seen[m.MatchID] = struct{}{}
		history = append(history, m)
	}

	newCount := 0
	for _, id := range fetched.IDs {
		if m, ok := fresh[id]; ok {
			if _, wasKnown := known[id]; !wasKnown {
				newCount++
			}
			add(m)
			continue
		}
		if m, ok := known[id]; ok {
			add(m)
		}
	}
	// Records keyed by a metadata id that differs from the listed id.
	for _, m := range fetched.Matches {
		if _, ok := seen[m.MatchID]; !ok {
			if _, wasKnown := known[m.MatchID]; !wasKnown {
				newCount++
			}
			add(m)
		}
	}
	for _, m := range previous {
		add(m)
	}
	return history, newCount
}
