package service

import (
	"context"
	"errors"
	"fmt"
	"rank-decay-tracker/internal/api"
	"rank-decay-tracker/internal/domain"
	"slices"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func records(ids ...string) []domain.MatchRecord {
	out := make([]domain.MatchRecord, len(ids))
	for i, id := range ids {
		out[i] = domain.MatchRecord{MatchID: id, Champion: "Ahri", Win: true}
	}
	return out
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name      string
		previous  []string
		fetched   FetchResult
		wantIDs   []string
		wantCount int
	}{
		{
			name:      "first refresh",
			fetched:   FetchResult{IDs: []string{"C", "B", "A"}, Matches: records("C", "B", "A")},
			wantIDs:   []string{"C", "B", "A"},
			wantCount: 3,
		},
		{
			name:      "only unseen matches count",
			previous:  []string{"B", "A"},
			fetched:   FetchResult{IDs: []string{"D", "C", "B", "A"}, Matches: records("D", "C", "B", "A")},
			wantIDs:   []string{"D", "C", "B", "A"},
			wantCount: 2,
		},
		{
			name:      "nothing new is a fixed point",
			previous:  []string{"B", "A"},
			fetched:   FetchResult{IDs: []string{"B", "A"}, Matches: records("B", "A")},
			wantIDs:   []string{"B", "A"},
			wantCount: 0,
		},
		{
			name:      "dropped detail keeps previous record",
			previous:  []string{"B", "A"},
			fetched:   FetchResult{IDs: []string{"C", "B", "A"}, Matches: records("C", "A"), Dropped: []string{"B"}},
			wantIDs:   []string{"C", "B", "A"},
			wantCount: 1,
		},
		{
			name:      "non-solo listing entries are skipped",
			fetched:   FetchResult{IDs: []string{"C", "FLEX", "A"}, Matches: records("C", "A")},
			wantIDs:   []string{"C", "A"},
			wantCount: 2,
		},
		{
			name:      "older stored matches follow the listing",
			previous:  []string{"OLD2", "OLD1"},
			fetched:   FetchResult{IDs: []string{"N1"}, Matches: records("N1")},
			wantIDs:   []string{"N1", "OLD2", "OLD1"},
			wantCount: 1,
		},
		{
			name:      "duplicates in previous history collapse",
			previous:  []string{"A", "A"},
			fetched:   FetchResult{IDs: []string{"A"}, Matches: records("A")},
			wantIDs:   []string{"A"},
			wantCount: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history, count := Reconcile(records(tt.previous...), &tt.fetched)
			if got := matchIDs(history); !slices.Equal(got, tt.wantIDs) {
				t.Errorf("history = %v, want %v", got, tt.wantIDs)
			}
			if count != tt.wantCount {
				t.Errorf("new matches = %d, want %d", count, tt.wantCount)
			}
		})
	}
}

func TestReconcileCapsHistory(t *testing.T) {
	var previous, listed []string
	for i := range 20 {
		previous = append(previous, fmt.Sprintf("OLD_%02d", i))
		listed = append(listed, fmt.Sprintf("NEW_%02d", i))
	}
	history, count := Reconcile(records(previous...), &FetchResult{IDs: listed, Matches: records(listed...)})
	if len(history) != 20 {
		t.Fatalf("len = %d, want 20", len(history))
	}
	if history[0].MatchID != "NEW_00" || history[19].MatchID != "NEW_19" {
		t.Errorf("history = %v", matchIDs(history))
	}
	if count != 20 {
		t.Errorf("new matches = %d, want 20", count)
	}
}

func TestFetchKeepsListingOrder(t *testing.T) {
	riot := newFakeRiot("MASTER", "KR_4", "KR_3", "KR_2", "KR_1")
	// Newest finishes last.
	riot.delays["KR_4"] = 40 * time.Millisecond
	riot.delays["KR_3"] = 20 * time.Millisecond
	riot.matches["KR_2"] = matchOf("KR_2", 440)
	f := NewMatchFetcher(riot, 4, zerolog.Nop())

	res, err := f.Fetch(context.Background(), testPUUID)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := matchIDs(res.Matches); !slices.Equal(got, []string{"KR_4", "KR_3", "KR_1"}) {
		t.Errorf("matches = %v", got)
	}
	if res.Matches[0].Champion != "Ahri" || !res.Matches[0].Win {
		t.Errorf("participant not extracted: %+v", res.Matches[0])
	}
	if len(res.Dropped) != 0 {
		t.Errorf("dropped = %v", res.Dropped)
	}
}

func TestFetchDedupesListing(t *testing.T) {
	riot := newFakeRiot("MASTER", "KR_2", "KR_2", "KR_1")
	f := NewMatchFetcher(riot, 2, zerolog.Nop())

	res, err := f.Fetch(context.Background(), testPUUID)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !slices.Equal(res.IDs, []string{"KR_2", "KR_1"}) {
		t.Errorf("ids = %v", res.IDs)
	}
	if riot.count("match") != 2 {
		t.Errorf("detail calls = %d, want 2", riot.count("match"))
	}
}

func TestFetchDropsMatchWithoutParticipant(t *testing.T) {
	riot := newFakeRiot("MASTER", "KR_2", "KR_1")
	stranger := matchOf("KR_2", 420)
	stranger.Info.Participants = stranger.Info.Participants[:1]
	riot.matches["KR_2"] = stranger
	f := NewMatchFetcher(riot, 2, zerolog.Nop())

	res, err := f.Fetch(context.Background(), testPUUID)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !slices.Equal(res.Dropped, []string{"KR_2"}) || len(res.Matches) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestFetchListFailure(t *testing.T) {
	riot := newFakeRiot("MASTER")
	riot.idsErr = fmt.Errorf("%w: nope", domain.ErrUpstreamPermanent)
	f := NewMatchFetcher(riot, 2, zerolog.Nop())

	if _, err := f.Fetch(context.Background(), testPUUID); !errors.Is(err, domain.ErrUpstreamPermanent) {
		t.Errorf("err = %v, want ErrUpstreamPermanent", err)
	}
}

func TestResolverRequiresSummonerID(t *testing.T) {
	r := NewResolver(emptySummoner{newFakeRiot("MASTER")}, zerolog.Nop())
	if _, err := r.Resolve(context.Background(), "Faker", "KR1"); !errors.Is(err, domain.ErrUpstreamPermanent) {
		t.Errorf("err = %v, want ErrUpstreamPermanent", err)
	}
}

func TestCanonicalIdentity(t *testing.T) {
	got := canonicalIdentity("faker", "kr1", "Faker", "KR1")
	if got != (domain.Identity{Handle: "Faker", Tag: "KR1"}) {
		t.Errorf("got %+v, want provider spelling", got)
	}
	got = canonicalIdentity("faker", "kr1", "Someone", "EUW")
	if got != (domain.Identity{Handle: "faker", Tag: "kr1"}) {
		t.Errorf("got %+v, want requested identity", got)
	}
}

type emptySummoner struct{ *fakeRiot }

func (e emptySummoner) GetSummonerByPUUID(ctx context.Context, puuid string) (*api.SummonerResponse, error) {
	return &api.SummonerResponse{PUUID: puuid}, nil
}
