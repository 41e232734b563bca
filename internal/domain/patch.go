package domain

import (
	"encoding/json"
	"time"
)

// PlayerPatch is a partial update. Nil fields are left untouched by Apply.
// Key, Identity and CreatedAt are fixed at creation and cannot be patched.
type PlayerPatch struct {
	Profile       *Profile        `json:"profile,omitempty"`
	RankStanding  *RankStanding   `json:"rankStanding,omitempty"`
	ClearRank     bool            `json:"-"`
	Leagues       *[]RankStanding `json:"leagues,omitempty"`
	DecayDaysLeft *int            `json:"decayDaysLeft,omitempty"`
	LastCheckedAt *time.Time      `json:"lastCheckedAt,omitempty"`
	MatchHistory  *[]MatchRecord  `json:"matchHistory,omitempty"`
	Favorite      *bool           `json:"favorite,omitempty"`
	Credentials   json.RawMessage `json:"credentials,omitempty"`
}

func (p PlayerPatch) Empty() bool {
	return p.Profile == nil && p.RankStanding == nil && !p.ClearRank &&
		p.Leagues == nil && p.DecayDaysLeft == nil && p.LastCheckedAt == nil &&
		p.MatchHistory == nil && p.Favorite == nil && p.Credentials == nil
}

// Apply merges p into rec and returns the result. rec is not modified.
// LastCheckedAt only ever moves forward.
func (p PlayerPatch) Apply(rec PlayerRecord) PlayerRecord {
	out := rec.Clone()
	if p.Profile != nil {
		out.Profile = *p.Profile
	}
	if p.ClearRank {
		out.RankStanding = nil
	}
	if p.RankStanding != nil {
		rs := *p.RankStanding
		out.RankStanding = &rs
	}
	if p.Leagues != nil {
		out.Leagues = append([]RankStanding(nil), (*p.Leagues)...)
	}
	if p.DecayDaysLeft != nil {
		out.DecayDaysLeft = *p.DecayDaysLeft
	}
	if p.LastCheckedAt != nil && p.LastCheckedAt.After(out.LastCheckedAt) {
		out.LastCheckedAt = *p.LastCheckedAt
	}
	if p.MatchHistory != nil {
		out.MatchHistory = append([]MatchRecord(nil), (*p.MatchHistory)...)
	}
	if p.Favorite != nil {
		out.Favorite = *p.Favorite
	}
	if p.Credentials != nil {
		out.Credentials = append(json.RawMessage(nil), p.Credentials...)
	}
	return out
}
