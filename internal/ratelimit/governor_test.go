package ratelimit

import (
	"errors"
	"rank-decay-tracker/internal/domain"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func fixedClock(g *Governor, start time.Time) *time.Time {
	now := start
	g.now = func() time.Time { return now }
	return &now
}

func TestAllowRejectsOverBurst(t *testing.T) {
	g := New(Window{Limit: 2, Period: time.Second}, Window{Limit: 100, Period: 2 * time.Minute})
	fixedClock(g, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))

	for i := 0; i < 2; i++ {
		if err := g.Allow(); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	err := g.Allow()
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("third call = %v, want ErrRateLimited", err)
	}
	if domain.RetryAfter(err) <= 0 {
		t.Errorf("RetryAfter = %v, want > 0", domain.RetryAfter(err))
	}
}

func TestAllowRefillsAfterWindow(t *testing.T) {
	g := New(Window{Limit: 2, Period: time.Second}, Window{Limit: 100, Period: 2 * time.Minute})
	now := fixedClock(g, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))

	g.Allow()
	g.Allow()
	*now = now.Add(time.Second)

	if err := g.Allow(); err != nil {
		t.Fatalf("after refill: %v", err)
	}
}

func TestSustainedRejectionReturnsBurstToken(t *testing.T) {
	g := New(Window{Limit: 2, Period: time.Second}, Window{Limit: 3, Period: 2 * time.Minute})
	now := fixedClock(g, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))

	g.Allow()
	g.Allow()
	*now = now.Add(time.Second)
	if err := g.Allow(); err != nil {
		t.Fatalf("third call: %v", err)
	}

	err := g.Allow()
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("fourth call = %v, want sustained rejection", err)
	}
	if got := g.Status().BurstRemaining; got < 0.99 {
		t.Errorf("burst tokens = %v after sustained rejection, want 1", got)
	}
}

func TestAllowConcurrentNeverExceedsBudget(t *testing.T) {
	g := New(Window{Limit: 20, Period: time.Second}, Window{Limit: 100, Period: 2 * time.Minute})
	fixedClock(g, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Allow() == nil {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != 20 {
		t.Errorf("allowed = %d, want 20", got)
	}
}
