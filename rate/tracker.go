package rate

import (
	"sync/atomic"
	"time"
)

// Tracker accumulates per-source call outcome counters, read concurrently
// by diagnostics while written by every in-flight call. All fields are
// updated via atomics so callers never need a lock merely to record an
// outcome.
type Tracker struct {
	made        int64
	succeeded   int64
	rateLimited int64
	failed      int64

	cumulativeBackoffNanos int64
}

// RecordSuccess marks one successful call.
func (t *Tracker) RecordSuccess() {
	atomic.AddInt64(&t.made, 1)
	atomic.AddInt64(&t.succeeded, 1)
}

// RecordRateLimited marks one call that was rejected as rate-limited
// upstream (as distinct from a network failure), and the backoff duration
// incurred before it could be retried.
func (t *Tracker) RecordRateLimited(backoff time.Duration) {
	atomic.AddInt64(&t.made, 1)
	atomic.AddInt64(&t.rateLimited, 1)
	atomic.AddInt64(&t.cumulativeBackoffNanos, int64(backoff))
}

// RecordFailure marks one call that failed for a reason other than rate
// limiting (network, parse, not-found).
func (t *Tracker) RecordFailure() {
	atomic.AddInt64(&t.made, 1)
	atomic.AddInt64(&t.failed, 1)
}

// Snapshot is a point-in-time read of the tracker's counters.
type Snapshot struct {
	Made              int64
	Succeeded         int64
	RateLimited       int64
	Failed            int64
	CumulativeBackoff time.Duration
}

// Snapshot reads all counters consistently enough for reporting purposes
// (each field is read atomically; the set as a whole is not a single
// atomic transaction, which is acceptable for a diagnostics counter).
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		Made:              atomic.LoadInt64(&t.made),
		Succeeded:         atomic.LoadInt64(&t.succeeded),
		RateLimited:       atomic.LoadInt64(&t.rateLimited),
		Failed:            atomic.LoadInt64(&t.failed),
		CumulativeBackoff: time.Duration(atomic.LoadInt64(&t.cumulativeBackoffNanos)),
	}
}
