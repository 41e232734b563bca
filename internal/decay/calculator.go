// Package decay holds the decay countdown rule. Nothing here does I/O.
package decay

import (
	"fmt"
	"rank-decay-tracker/internal/domain"
)

const (
	DiamondCap = 28
	ApexCap    = 14
)

// Cap is the largest decay buffer a tier can bank. Tiers below Diamond are
// not decay-tracked and cap at zero.
func Cap(tier domain.Tier) int {
	switch tier {
	case domain.TierDiamond:
		return DiamondCap
	case domain.TierMaster, domain.TierGrandmaster, domain.TierChallenger:
		return ApexCap
	default:
		return 0
	}
}

// Next restores one day per newly observed ranked-solo match, capped at the
// tier ceiling. The countdown does not move with wall-clock time.
func Next(tier domain.Tier, previous, newMatches int) int {
	c := Cap(tier)
	if c == 0 {
		return 0
	}
	if previous < 0 {
		previous = 0
	}
	if newMatches < 0 {
		newMatches = 0
	}
	return min(previous+newMatches, c)
}

// Validate checks a manual decay value against the record's tier.
func Validate(tier domain.Tier, days int) error {
	if c := Cap(tier); days < 0 || days > c {
		return fmt.Errorf("%w: decay days %d outside [0, %d] for %s", domain.ErrValidation, days, c, tier)
	}
	return nil
}
