package domain

import (
	"encoding/json"
	"time"
)

const RankedSoloQueue = "RANKED_SOLO_5x5"

type Identity struct {
	Handle string `json:"handle"`
	Tag    string `json:"tag"`
}

func (i Identity) Key() string {
	return NormalizeKey(i.Handle, i.Tag)
}

func (i Identity) String() string {
	return i.Handle + "#" + i.Tag
}

type Profile struct {
	PUUID         string `json:"puuid"`
	SummonerID    string `json:"summonerId"`
	ProfileIconID int    `json:"profileIconId"`
	SummonerLevel int    `json:"summonerLevel"`
}

type RankStanding struct {
	QueueType    string `json:"queueType"`
	Tier         Tier   `json:"tier"`
	Division     string `json:"division"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

type MatchRecord struct {
	MatchID  string `json:"matchId"`
	Champion string `json:"champion"`
	Win      bool   `json:"win"`
}

type PlayerRecord struct {
	Key           string          `json:"key"`
	Identity      Identity        `json:"identity"`
	Profile       Profile         `json:"profile"`
	RankStanding  *RankStanding   `json:"rankStanding,omitempty"`
	Leagues       []RankStanding  `json:"leagues"`
	DecayDaysLeft int             `json:"decayDaysLeft"`
	LastCheckedAt time.Time       `json:"lastCheckedAt"`
	MatchHistory  []MatchRecord   `json:"matchHistory"`
	Favorite      bool            `json:"favorite"`
	Credentials   json.RawMessage `json:"credentials,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Tier returns the ranked-solo tier, or TierUnranked when the account has no
// ranked-solo standing.
func (p PlayerRecord) Tier() Tier {
	if p.RankStanding == nil {
		return TierUnranked
	}
	return p.RankStanding.Tier
}

// Clone returns a copy that shares no slices with p.
func (p PlayerRecord) Clone() PlayerRecord {
	out := p
	if p.RankStanding != nil {
		rs := *p.RankStanding
		out.RankStanding = &rs
	}
	if p.Leagues != nil {
		out.Leagues = append([]RankStanding(nil), p.Leagues...)
	}
	if p.MatchHistory != nil {
		out.MatchHistory = append([]MatchRecord(nil), p.MatchHistory...)
	}
	if p.Credentials != nil {
		out.Credentials = append(json.RawMessage(nil), p.Credentials...)
	}
	return out
}

// SoloStanding picks the ranked-solo entry out of a league list.
func SoloStanding(leagues []RankStanding) *RankStanding {
	for _, l := range leagues {
		if l.QueueType == RankedSoloQueue {
			rs := l
			return &rs
		}
	}
	return nil
}

type DecayChange struct {
	ID         string    `json:"id"`
	Key        string    `json:"key"`
	Tier       Tier      `json:"tier"`
	Previous   int       `json:"previous"`
	Updated    int       `json:"updated"`
	NewMatches int       `json:"newMatches"`
	Source     string    `json:"source"` // "refresh", "manual"
	RecordedAt time.Time `json:"recordedAt"`
}

const (
	DecaySourceRefresh = "refresh"
	DecaySourceManual  = "manual"
)
