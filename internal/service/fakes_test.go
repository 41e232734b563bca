package service

import (
	"context"
	"fmt"
	"path/filepath"
	"rank-decay-tracker/internal/api"
	"rank-decay-tracker/internal/constants"
	"rank-decay-tracker/internal/domain"
	"rank-decay-tracker/internal/store"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const testPUUID = "puuid-faker"

type fakeRiot struct {
	mu sync.Mutex

	accountErr  error
	summonerErr error
	leagues     []api.LeagueEntry
	ids         []string
	idsErr      error
	matches     map[string]*api.MatchResponse
	matchErr    map[string]error
	delays      map[string]time.Duration
	calls       map[string]int
}

func newFakeRiot(tier string, ids ...string) *fakeRiot {
	f := &fakeRiot{
		matches:  map[string]*api.MatchResponse{},
		matchErr: map[string]error{},
		delays:   map[string]time.Duration{},
		calls:    map[string]int{},
	}
	f.setTier(tier)
	f.setMatches(ids...)
	return f
}

func (f *fakeRiot) setTier(tier string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leagues = []api.LeagueEntry{{QueueType: "RANKED_FLEX_SR", Tier: "GOLD", Rank: "II"}}
	if tier != "" {
		f.leagues = append(f.leagues, api.LeagueEntry{QueueType: domain.RankedSoloQueue, Tier: tier, Rank: "I", LeaguePoints: 120})
	}
}

// setMatches lists ids newest first, each a ranked-solo game.
func (f *fakeRiot) setMatches(ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = ids
	for _, id := range ids {
		if _, ok := f.matches[id]; !ok {
			f.matches[id] = matchOf(id, constants.RankedSoloQueueID)
		}
	}
}

func matchOf(id string, queue int) *api.MatchResponse {
	m := &api.MatchResponse{}
	m.Metadata.MatchID = id
	m.Info.QueueID = queue
	m.Info.Participants = []api.MatchParticipant{
		{PUUID: "someone-else", ChampionName: "Zed"},
		{PUUID: testPUUID, ChampionName: "Ahri", Win: true},
	}
	return m
}

func (f *fakeRiot) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRiot) enter(ctx context.Context, name string) error {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
	return ctx.Err()
}

func (f *fakeRiot) GetAccountByRiotID(ctx context.Context, handle, tag string) (*api.AccountResponse, error) {
	if err := f.enter(ctx, "account"); err != nil {
		return nil, err
	}
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	return &api.AccountResponse{PUUID: testPUUID, GameName: handle, TagLine: tag}, nil
}

func (f *fakeRiot) GetSummonerByPUUID(ctx context.Context, puuid string) (*api.SummonerResponse, error) {
	if err := f.enter(ctx, "summoner"); err != nil {
		return nil, err
	}
	if f.summonerErr != nil {
		return nil, f.summonerErr
	}
	return &api.SummonerResponse{ID: "summoner-1", PUUID: puuid, ProfileIconID: 7, SummonerLevel: 500}, nil
}

func (f *fakeRiot) GetLeagueEntries(ctx context.Context, summonerID string) ([]api.LeagueEntry, error) {
	if err := f.enter(ctx, "leagues"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.LeagueEntry(nil), f.leagues...), nil
}

func (f *fakeRiot) GetMatchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	if err := f.enter(ctx, "ids"); err != nil {
		return nil, err
	}
	if f.idsErr != nil {
		return nil, f.idsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...), nil
}

func (f *fakeRiot) GetMatch(ctx context.Context, matchID string) (*api.MatchResponse, error) {
	if err := f.enter(ctx, "match"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	delay := f.delays[matchID]
	err := f.matchErr[matchID]
	m := f.matches[matchID]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: match %s", domain.ErrNotFound, matchID)
	}
	return m, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	changes []domain.DecayChange
	err     error
}

func (h *fakeHistory) Record(ctx context.Context, change domain.DecayChange) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.changes = append(h.changes, change)
	return nil
}

func (h *fakeHistory) GetByKey(ctx context.Context, key string, limit int) ([]domain.DecayChange, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []domain.DecayChange
	for i := len(h.changes) - 1; i >= 0 && len(out) < limit; i-- {
		if h.changes[i].Key == key {
			out = append(out, h.changes[i])
		}
	}
	return out, nil
}

func (h *fakeHistory) DeleteByKey(ctx context.Context, key string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := h.changes[:0]
	for _, c := range h.changes {
		if c.Key != key {
			kept = append(kept, c)
		}
	}
	h.changes = kept
	return nil
}

func (h *fakeHistory) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.changes)
}

type testEnv struct {
	svc     *PlayerService
	store   store.Store
	riot    *fakeRiot
	history *fakeHistory
}

func newTestEnv(t *testing.T, riot *fakeRiot) *testEnv {
	t.Helper()
	st, err := store.OpenDocumentStore(filepath.Join(t.TempDir(), "playerData.json"), zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenDocumentStore: %v", err)
	}
	history := &fakeHistory{}
	logger := zerolog.Nop()
	svc := NewPlayerService(
		NewResolver(riot, logger),
		NewMatchFetcher(riot, 4, logger),
		st,
		history,
		logger,
	)
	return &testEnv{svc: svc, store: st, riot: riot, history: history}
}

// seed stores a record as a previous refresh would have left it.
func (e *testEnv) seed(t *testing.T, tier domain.Tier, days int, history ...string) {
	t.Helper()
	rec := domain.PlayerRecord{
		Identity:      domain.Identity{Handle: "Faker", Tag: "KR1"},
		DecayDaysLeft: days,
		Favorite:      true,
		Credentials:   []byte(`{"note":"main"}`),
	}
	if tier != domain.TierUnranked {
		rec.RankStanding = &domain.RankStanding{QueueType: domain.RankedSoloQueue, Tier: tier}
	}
	for _, id := range history {
		rec.MatchHistory = append(rec.MatchHistory, domain.MatchRecord{MatchID: id, Champion: "Ahri", Win: true})
	}
	_, err := e.store.Update(context.Background(), "faker-kr1", func(*domain.PlayerRecord) (domain.PlayerRecord, error) {
		return rec, nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func matchIDs(history []domain.MatchRecord) []string {
	out := make([]string, len(history))
	for i, m := range history {
		out[i] = m.MatchID
	}
	return out
}
