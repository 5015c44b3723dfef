// Package enrich wires the Store, the source-site adapter, the price and
// campaign-finance clients, and the metric engines' sector lookups into
// the four enrichment pipelines spec.md §4.6 names: trade-detail,
// issuer-detail, price (three phases), and donation ingestion.
//
// All four share one structural pattern: build a work queue from the
// Store honoring an optional batch limit, deduplicate by a
// semantically-meaningful key, fan out fetch tasks bounded by a
// semaphore, and funnel results to a single writer goroutine that is the
// only one touching the Store. A Breaker aborts outstanding tasks after
// K consecutive failures.
package enrich

import "sync"

// Breaker is a mutex-guarded consecutive-failure counter. A success
// resets it to zero; a failure increments it and RecordFailure reports
// whether the threshold was just crossed, grounded on the
// abort-on-critical-error shape of the teacher's daily maintenance job
// (internal/reliability/maintenance_jobs.go halts the caller on the
// first unrecoverable step rather than counting, but the "halt once a
// threshold is crossed" idea is the same).
type Breaker struct {
	mu        sync.Mutex
	threshold int
	failures  int
	tripped   bool
}

// NewBreaker builds a Breaker that trips after threshold consecutive
// failures. threshold <= 0 means the breaker never trips.
func NewBreaker(threshold int) *Breaker {
	return &Breaker{threshold: threshold}
}

// RecordSuccess resets the consecutive-failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

// RecordFailure increments the consecutive-failure count and reports
// true the first time it reaches the threshold (it only fires once;
// subsequent failures after tripping report false so the caller does
// not re-log the same "breaker tripped" event for every outstanding
// task that lands after it).
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.threshold <= 0 || b.tripped {
		return false
	}

	b.failures++
	if b.failures >= b.threshold {
		b.tripped = true
		return true
	}
	return false
}

// Tripped reports whether the breaker has fired.
func (b *Breaker) Tripped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tripped
}
