package enrich

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Options bounds one pipeline run: the fetch concurrency (semaphore
// weight, C ∈ [1,10]), the base request-spacing delay to which each task
// adds a uniform 0–300ms jitter (200–500ms at the 200ms default), and the
// consecutive-failure threshold for the circuit breaker.
type Options struct {
	Concurrency      int
	RequestDelayBase time.Duration
	FailureThreshold int
}

// Outcome summarizes one pipeline run for the caller's exit-status logic:
// completed normally, completed with item failures, or aborted by the
// breaker. RunID has no natural external key — it exists purely to let
// every log line this run emits be grepped back together — so it's
// minted fresh per call rather than derived from anything in items.
type Outcome struct {
	RunID     string
	Attempted int
	Succeeded int
	Failed    int
	Aborted   bool
}

// Run fans work items out across Options.Concurrency fetch goroutines,
// each sleeping a uniform jitter before calling fetch, and funnels every
// result through a single writer goroutine — the only goroutine that
// calls write, so all Store mutations stay serialized (spec §4.6 step
// 6). If the breaker trips, Run cancels the shared context so
// outstanding fetches return early at their next context check and
// stop being handed to write; Run itself still drains every already-
// launched goroutine before returning, so it never leaves one running
// in the background.
func Run[T any, R any](
	ctx context.Context,
	log zerolog.Logger,
	opts Options,
	items []T,
	breaker *Breaker,
	fetch func(ctx context.Context, item T) (R, error),
	write func(ctx context.Context, item T, result R) error,
) Outcome {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	runID := uuid.New().String()
	log = log.With().Str("run_id", runID).Logger()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := semaphore.NewWeighted(int64(concurrency))
	results := make(chan fetchResult[T, R], 2*concurrency)

	// The launch loop runs on its own goroutine so the receive loop below
	// drains results while tasks are still being spawned; otherwise a task
	// blocked sending into a full channel would hold its semaphore slot and
	// stall the launch loop forever.
	go func() {
		var wg sync.WaitGroup
		for _, item := range items {
			if runCtx.Err() != nil {
				break
			}
			if err := sem.Acquire(runCtx, 1); err != nil {
				break
			}

			wg.Add(1)
			go func(item T) {
				defer wg.Done()
				defer sem.Release(1)

				if runCtx.Err() != nil {
					return
				}

				jitterSleep(runCtx, opts.RequestDelayBase)
				if runCtx.Err() != nil {
					return
				}

				result, err := fetch(runCtx, item)
				results <- fetchResult[T, R]{item: item, result: result, err: err}
			}(item)
		}
		wg.Wait()
		close(results)
	}()

	out := Outcome{RunID: runID}
	for r := range results {
		out.Attempted++

		if r.err != nil {
			out.Failed++
			log.Warn().Err(r.err).Msg("enrichment item failed")
			if breaker != nil && breaker.RecordFailure() {
				out.Aborted = true
				log.Warn().Msg("circuit breaker tripped, aborting outstanding work")
				cancel()
			}
			continue
		}

		if err := write(ctx, r.item, r.result); err != nil {
			out.Failed++
			log.Warn().Err(err).Msg("enrichment write failed")
			if breaker != nil && breaker.RecordFailure() {
				out.Aborted = true
				log.Warn().Msg("circuit breaker tripped, aborting outstanding work")
				cancel()
			}
			continue
		}

		out.Succeeded++
		if breaker != nil {
			breaker.RecordSuccess()
		}
	}

	return out
}

type fetchResult[T any, R any] struct {
	item   T
	result R
	err    error
}

// jitterSleep blocks for a uniform random duration in [base, base+300ms),
// matching spec §4.6's 200–500ms request-spacing jitter when base is the
// default 200ms. It returns early if ctx is cancelled.
func jitterSleep(ctx context.Context, base time.Duration) {
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	d := base + time.Duration(rand.Int63n(int64(300*time.Millisecond)))

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
