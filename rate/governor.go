// Package rate governs outbound call volume to external APIs: a combined
// token-bucket + sliding-window limiter (Governor), per-source success/
// failure counters (Tracker), and a jittered-backoff retry helper.
package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Governor enforces two independent limits on the same call stream: a
// smooth token-bucket rate (burst-tolerant, via x/time/rate) and a hard
// sliding window (at most N calls in the trailing window, for APIs whose
// published quota is stated that way rather than as a steady rate).
type Governor struct {
	limiter *rate.Limiter
	now     func() time.Time

	mu        sync.Mutex
	window    time.Duration
	windowCap int
	calls     []time.Time
}

// NewGovernor builds a Governor allowing ratePerSec steady-state with the
// given burst, plus a hard cap of windowCap calls per window. windowCap
// <= 0 disables the sliding-window check entirely (token bucket only).
func NewGovernor(ratePerSec float64, burst int, window time.Duration, windowCap int) *Governor {
	return &Governor{
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), burst),
		now:       time.Now,
		window:    window,
		windowCap: windowCap,
	}
}

// WithClock overrides the clock the sliding-window check reads, so the
// boundary (a call exactly `window` old) can be tested deterministically
// instead of against real wall-clock time.
func (g *Governor) WithClock(now func() time.Time) *Governor {
	g.now = now
	return g
}

// Wait blocks until both the token bucket and the sliding window have
// capacity for one more call, then records the call against the window.
func (g *Governor) Wait(ctx context.Context) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("token bucket wait: %w", err)
	}
	if g.windowCap <= 0 {
		return nil
	}
	return g.waitWindow(ctx)
}

func (g *Governor) waitWindow(ctx context.Context) error {
	for {
		ok, wait := g.admit(g.now())
		if ok {
			return nil
		}
		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// admit is the pure sliding-window admission check: evict calls older
// than the window, then either record now as a new call (ok=true) or
// report how long to wait until the oldest call ages out (ok=false). A
// call exactly `window` old is still in-window (evictLocked only drops
// calls strictly before the cutoff), so the boundary is inclusive.
func (g *Governor) admit(now time.Time) (ok bool, wait time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.evictLocked(now)
	if len(g.calls) < g.windowCap {
		g.calls = append(g.calls, now)
		return true, 0
	}

	oldest := g.calls[0]
	return false, g.window - now.Sub(oldest)
}

// evictLocked drops calls older than the window. Caller holds g.mu.
func (g *Governor) evictLocked(now time.Time) {
	cutoff := now.Add(-g.window)
	i := 0
	for i < len(g.calls) && g.calls[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		g.calls = g.calls[i:]
	}
}

// WindowOccupancy reports how many calls currently count against the
// sliding window, for diagnostics.
func (g *Governor) WindowOccupancy() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.evictLocked(g.now())
	return len(g.calls)
}
