package domain

import (
	"encoding/json"
	"strings"
)

// Tier is a ranked bracket. The zero value is TierUnranked and sorts below IRON.
type Tier int

const (
	TierUnranked Tier = iota
	TierIron
	TierBronze
	TierSilver
	TierGold
	TierPlatinum
	TierEmerald
	TierDiamond
	TierMaster
	TierGrandmaster
	TierChallenger
)

var tierNames = [...]string{
	TierUnranked:    "UNRANKED",
	TierIron:        "IRON",
	TierBronze:      "BRONZE",
	TierSilver:      "SILVER",
	TierGold:        "GOLD",
	TierPlatinum:    "PLATINUM",
	TierEmerald:     "EMERALD",
	TierDiamond:     "DIAMOND",
	TierMaster:      "MASTER",
	TierGrandmaster: "GRANDMASTER",
	TierChallenger:  "CHALLENGER",
}

func (t Tier) String() string {
	if t < TierUnranked || int(t) >= len(tierNames) {
		return tierNames[TierUnranked]
	}
	return tierNames[t]
}

// ParseTier is case-insensitive; anything unrecognised is TierUnranked.
func ParseTier(s string) Tier {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range tierNames {
		if name == s {
			return Tier(i)
		}
	}
	return TierUnranked
}

func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = ParseTier(s)
	return nil
}
