// Package ratelimit bounds outbound calls to the rank provider. Calls over
// budget are rejected immediately with a retry hint instead of being queued.
package ratelimit

import (
	"fmt"
	"rank-decay-tracker/internal/config"
	"rank-decay-tracker/internal/domain"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Window is a call budget of Limit calls per Period.
type Window struct {
	Limit  int
	Period time.Duration
}

type Governor struct {
	mu        sync.Mutex
	burst     *rate.Limiter
	sustained *rate.Limiter
	windows   [2]Window
	now       func() time.Time
}

func New(burst, sustained Window) *Governor {
	return &Governor{
		burst:     newLimiter(burst),
		sustained: newLimiter(sustained),
		windows:   [2]Window{burst, sustained},
		now:       time.Now,
	}
}

func NewFromConfig(cfg *config.Config) *Governor {
	return New(
		Window{Limit: cfg.BurstLimit, Period: cfg.BurstWindow},
		Window{Limit: cfg.SustainedLimit, Period: cfg.SustainedWindow},
	)
}

func newLimiter(w Window) *rate.Limiter {
	return rate.NewLimiter(rate.Every(w.Period/time.Duration(w.Limit)), w.Limit)
}

// Allow takes one call from both budgets or from neither.
func (g *Governor) Allow() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	b := g.burst.ReserveN(now, 1)
	if wait := b.DelayFrom(now); wait > 0 {
		b.CancelAt(now)
		return reject("burst", wait)
	}

	s := g.sustained.ReserveN(now, 1)
	if wait := s.DelayFrom(now); wait > 0 {
		s.CancelAt(now)
		b.CancelAt(now)
		return reject("sustained", wait)
	}
	return nil
}

func reject(window string, wait time.Duration) error {
	return &domain.RetryAfterError{
		Err:   fmt.Errorf("%w: %s budget exhausted", domain.ErrRateLimited, window),
		After: wait,
	}
}

type Status struct {
	BurstLimit         int     `json:"burstLimit"`
	BurstRemaining     float64 `json:"burstRemaining"`
	SustainedLimit     int     `json:"sustainedLimit"`
	SustainedRemaining float64 `json:"sustainedRemaining"`
}

func (g *Governor) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	return Status{
		BurstLimit:         g.windows[0].Limit,
		BurstRemaining:     g.burst.TokensAt(now),
		SustainedLimit:     g.windows[1].Limit,
		SustainedRemaining: g.sustained.TokensAt(now),
	}
}
