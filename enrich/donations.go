package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/capitoltrack/pvintel/data"
	"github.com/capitoltrack/pvintel/fec"
	"github.com/capitoltrack/pvintel/store"
)

const donationPageSize = 100

// donationJob is one (politician, committee) pair awaiting a keyset sync.
type donationJob struct {
	politicianID string
	committee    data.FECCommittee
	cycle        int
}

// RunDonationIngestion implements spec §4.6.4: for each politician
// (optionally filtered by name), resolve their authorized committees via
// the three-tier CommitteeResolver, and for each committee advance its
// keyset cursor one page at a time until the upstream reports no further
// page. A committee whose cursor shows a completed sync (no last index)
// that finished within 24 hours is skipped entirely. Each page write is
// atomic with its cursor advance (store.WriteDonationPage), so an abort
// mid-run never loses or duplicates rows.
func RunDonationIngestion(
	ctx context.Context,
	log zerolog.Logger,
	st *store.Store,
	resolver *fec.CommitteeResolver,
	client *fec.Client,
	nameFilter string,
	opts Options,
) Outcome {
	runID := uuid.New().String()
	log = log.With().Str("run_id", runID).Logger()

	breaker := NewBreaker(opts.FailureThreshold)

	politicianIDs, err := st.PoliticianIDs(ctx, nameFilter)
	if err != nil {
		log.Error().Err(err).Msg("donation ingestion: list politicians")
		return Outcome{}
	}

	var jobs []donationJob
	for _, politicianID := range politicianIDs {
		committees, err := resolver.Resolve(ctx, politicianID)
		if err != nil {
			log.Warn().Err(err).Str("politician_id", politicianID).Msg("donation ingestion: resolve committees")
			continue
		}

		for _, committee := range committees {
			cycle := latestCycle(committee)
			if cycle == 0 {
				continue
			}

			cursor, err := st.GetSyncCursor(ctx, politicianID, committee.ID)
			if err != nil {
				log.Warn().Err(err).Str("politician_id", politicianID).Str("committee_id", committee.ID).
					Msg("donation ingestion: load cursor")
				continue
			}
			if cursor != nil && cursor.CompletedRecently(time.Now()) {
				continue
			}

			jobs = append(jobs, donationJob{politicianID: politicianID, committee: committee, cycle: cycle})
		}
	}

	out := Outcome{RunID: runID}
	for _, job := range jobs {
		if ctx.Err() != nil || breaker.Tripped() {
			out.Aborted = true
			break
		}

		n, err := syncCommittee(ctx, log, st, client, job)
		out.Attempted++
		if err != nil {
			out.Failed++
			log.Warn().Err(err).Str("politician_id", job.politicianID).Str("committee_id", job.committee.ID).
				Msg("donation ingestion: sync failed")
			if breaker.RecordFailure() {
				out.Aborted = true
				break
			}
			continue
		}

		breaker.RecordSuccess()
		out.Succeeded++
		log.Info().Str("politician_id", job.politicianID).Str("committee_id", job.committee.ID).
			Int("contributions", n).Msg("donation ingestion: synced committee")
	}

	return out
}

// syncCommittee drains one committee's keyset cursor to its terminal
// page, honoring ctx cancellation between pages (so a breaker trip
// elsewhere in the pipeline can still cut this loop short).
func syncCommittee(ctx context.Context, log zerolog.Logger, st *store.Store, client *fec.Client, job donationJob) (int, error) {
	cursor, err := st.GetSyncCursor(ctx, job.politicianID, job.committee.ID)
	if err != nil {
		return 0, err
	}

	lastIndex, lastDate := "", ""
	if cursor != nil && cursor.LastIndex != nil {
		lastIndex = *cursor.LastIndex
		if cursor.LastDate != nil {
			lastDate = cursor.LastDate.Format("2006-01-02")
		}
	}

	total := 0
	for {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}

		jitterSleep(ctx, 200*time.Millisecond)

		page, err := client.ScheduleA(ctx, job.committee.ID, job.cycle, donationPageSize, lastIndex, lastDate)
		if err != nil {
			return total, fmt.Errorf("schedule a %s: %w", job.committee.ID, err)
		}

		contributions := make([]data.Contribution, 0, len(page.Contributions))
		for _, c := range page.Contributions {
			contributions = append(contributions, toContribution(c))
		}

		var nextIndex *string
		var nextDate *time.Time
		if page.NextIndex != "" {
			idx := page.NextIndex
			nextIndex = &idx
			if t, err := time.Parse("2006-01-02", page.NextDate); err == nil {
				nextDate = &t
			}
		}

		newCursor := data.SyncCursor{
			PoliticianID: job.politicianID,
			CommitteeID:  job.committee.ID,
			LastIndex:    nextIndex,
			LastDate:     nextDate,
			SyncedAt:     time.Now(),
		}

		if err := st.WriteDonationPage(ctx, contributions, newCursor); err != nil {
			return total, fmt.Errorf("write donation page %s: %w", job.committee.ID, err)
		}

		total += len(contributions)

		if page.NextIndex == "" {
			return total, nil
		}
		lastIndex, lastDate = page.NextIndex, page.NextDate
	}
}

// toContribution converts an OpenFEC Schedule A record to the domain
// Contribution type, parsing its receipt date (RFC3339 or date-only,
// matching what the API actually returns across endpoints).
func toContribution(c fec.Contribution) data.Contribution {
	return data.Contribution{
		CommitteeID: c.CommitteeID,
		DonorName:   c.ContributorName,
		Employer:    c.ContributorEmployer,
		Occupation:  c.ContributorOccupation,
		State:       c.ContributorState,
		Zip:         c.ContributorZip,
		Cycle:       c.TwoYearTransactionPeriod,
		Amount:      c.ContributionReceiptAmount,
		ReceiptDate: parseFECDate(c.ContributionReceiptDate),
		ReceiptIndex: c.SubID,
	}
}

// parseFECDate tries the two date formats OpenFEC is known to emit
// (RFC3339 timestamp or a bare date), falling back to the zero time for
// anything else rather than failing the whole page over one bad record.
func parseFECDate(raw string) time.Time {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return time.Time{}
}

// latestCycle returns the most recent cycle in committee.ActiveCycles,
// or 0 if the committee reports none (skipped by the caller).
func latestCycle(committee data.FECCommittee) int {
	latest := 0
	for _, c := range committee.ActiveCycles {
		if c > latest {
			latest = c
		}
	}
	return latest
}
