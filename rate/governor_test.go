package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// virtualClock lets a test advance "now" deterministically instead of
// sleeping in real wall-clock time.
type virtualClock struct {
	t time.Time
}

func (c *virtualClock) now() time.Time { return c.t }
func (c *virtualClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newUnlimitedTokenGovernor(window time.Duration, windowCap int) *Governor {
	// A very high token-bucket rate/burst so only the sliding window
	// gates admission; the window math is what's under test.
	return NewGovernor(1e6, 1e6, window, windowCap)
}

func TestGovernor_Admit_WindowBoundary_N3W10s(t *testing.T) {
	clock := &virtualClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	g := newUnlimitedTokenGovernor(10*time.Second, 3).WithClock(clock.now)

	ok, _ := g.admit(clock.now())
	require.True(t, ok, "1st call within an empty window")
	clock.advance(1 * time.Second)

	ok, _ = g.admit(clock.now())
	require.True(t, ok, "2nd call, window not yet full")
	clock.advance(1 * time.Second)

	ok, _ = g.admit(clock.now())
	require.True(t, ok, "3rd call fills the window exactly to cap")
	clock.advance(1 * time.Second)

	ok, wait := g.admit(clock.now())
	assert.False(t, ok, "4th call must wait — window already holds N=3")
	assert.Greater(t, wait, time.Duration(0))

	// Advance to the instant the oldest call (t=0) turns exactly 10s
	// old — the boundary is inclusive, so it's still counted and the
	// window is still full.
	clock.t = time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC)
	ok, wait = g.admit(clock.now())
	assert.False(t, ok, "oldest call exactly window-old is still in-window")
	assert.LessOrEqual(t, wait, time.Duration(0), "wait collapses to zero at the exact boundary")

	// One instant past the boundary, the oldest call evicts and a 4th
	// call is admitted.
	clock.advance(1 * time.Nanosecond)
	ok, _ = g.admit(clock.now())
	assert.True(t, ok, "oldest call aged out one tick past the boundary")
}

func TestGovernor_WindowOccupancy_ReflectsEvictions(t *testing.T) {
	clock := &virtualClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	g := newUnlimitedTokenGovernor(10*time.Second, 5).WithClock(clock.now)

	for i := 0; i < 3; i++ {
		ok, _ := g.admit(clock.now())
		require.True(t, ok)
		clock.advance(time.Second)
	}
	assert.Equal(t, 3, g.WindowOccupancy())

	clock.advance(11 * time.Second)
	assert.Equal(t, 0, g.WindowOccupancy(), "every prior call has aged out of the window")
}

func TestGovernor_Wait_DisabledWindowOnlyGatesOnTokenBucket(t *testing.T) {
	g := NewGovernor(1e6, 1e6, time.Second, 0)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, g.Wait(ctx), "windowCap<=0 disables the sliding-window check entirely")
	assert.Equal(t, 0, g.WindowOccupancy())
}
