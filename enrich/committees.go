package enrich

import (
	"context"
	"database/sql"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/capitoltrack/pvintel/metrics"
	"github.com/capitoltrack/pvintel/source"
	"github.com/capitoltrack/pvintel/store"
)

// RunCommitteeMembershipSync implements spec §4.3's committee-membership
// operation: for every known committee code, fetch its paginated
// politicians-by-committee roster and accumulate politician ids, then
// invert the per-committee rosters into a per-politician committee set
// and write each politician's set wholesale via
// store.ReplacePoliticianCommittees.
//
// This fetches one page set per committee rather than per politician, so
// it fans out across committee codes (the known-ahead-of-time work
// queue) the same way the other enrichment pipelines fan out across
// trade/issuer ids. Run's single writer only accumulates the rosters;
// once Run returns, the per-politician sets are committed, since a
// politician's final committee set isn't known until all rosters are in
// hand. If the breaker aborted the run, nothing is written.
func RunCommitteeMembershipSync(
	ctx context.Context,
	log zerolog.Logger,
	st *store.Store,
	client *source.Client,
	opts Options,
) Outcome {
	jurisdictions, err := metrics.LoadCommitteeJurisdictions()
	if err != nil {
		log.Error().Err(err).Msg("committee membership sync: load jurisdiction table")
		return Outcome{}
	}
	codes := make([]string, 0, len(jurisdictions))
	for _, j := range jurisdictions {
		codes = append(codes, j.CommitteeName)
	}

	breaker := NewBreaker(opts.FailureThreshold)

	fetch := func(ctx context.Context, code string) ([]string, error) {
		return client.CommitteeMembership(ctx, code)
	}

	byPolitician := make(map[string]map[string]bool)
	write := func(_ context.Context, code string, members []string) error {
		for _, politicianID := range members {
			set, ok := byPolitician[politicianID]
			if !ok {
				set = make(map[string]bool)
				byPolitician[politicianID] = set
			}
			set[code] = true
		}
		return nil
	}

	out := Run(ctx, log, opts, codes, breaker, fetch, write)
	if out.Aborted {
		return out
	}

	allPoliticians, err := st.PoliticianIDs(ctx, "")
	if err != nil {
		log.Error().Err(err).Msg("committee membership sync: list politicians")
		return out
	}

	// Each politician's roster is independent of every other's, unlike a
	// donation page's atomic-with-cursor write, so one politician's row
	// error shouldn't roll back every other politician's already-computed
	// roster. Write each in its own transaction and accumulate failures
	// instead of aborting the whole commit on the first one.
	var writeErrs *multierror.Error
	for _, politicianID := range allPoliticians {
		set := byPolitician[politicianID]
		committees := make([]string, 0, len(set))
		for code := range set {
			committees = append(committees, code)
		}

		err := st.WithTx(ctx, func(tx *sql.Tx) error {
			return st.ReplacePoliticianCommittees(ctx, tx, politicianID, committees)
		})
		if err != nil {
			writeErrs = multierror.Append(writeErrs, err)
			continue
		}
	}
	if writeErrs != nil {
		log.Error().Err(writeErrs).Int("failed_writes", writeErrs.Len()).
			Msg("committee membership sync: some roster commits failed")
	}

	return out
}
