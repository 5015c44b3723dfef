package enrich

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/capitoltrack/pvintel/source"
	"github.com/capitoltrack/pvintel/store"
)

// RunIssuerDetailEnrichment implements spec §4.6.2: queue every issuer
// with a null enrichment timestamp, fetch its detail payload, and upsert
// the sector it carries. The site's issuer-detail payload
// (source.ScrapedIssuerDetail) carries a trade/politician/volume stats
// block, not fundamentals, so this pipeline writes no performance
// figures; when a pass returns a zero-valued stats block
// (CountTrades == 0), store.ClearIssuerPerformance resets the issuer's
// market cap and trailing returns to 0 and deletes its end-of-day
// closes, mirroring spec §4.6.2's "delete stale performance data when
// the block goes missing" rule as closely as the scraped payload allows.
func RunIssuerDetailEnrichment(
	ctx context.Context,
	log zerolog.Logger,
	st *store.Store,
	client *source.Client,
	opts Options,
	batchLimit int,
) Outcome {
	breaker := NewBreaker(opts.FailureThreshold)

	ids, err := st.UnenrichedIssuerIDs(ctx, batchLimit)
	if err != nil {
		log.Error().Err(err).Msg("issuer detail: list unenriched issuers")
		return Outcome{}
	}

	fetch := func(ctx context.Context, id int) (source.ScrapedIssuerDetail, error) {
		return client.IssuerDetail(ctx, int64(id))
	}

	write := func(ctx context.Context, id int, detail source.ScrapedIssuerDetail) error {
		return st.WithTx(ctx, func(tx *sql.Tx) error {
			iss, err := st.GetIssuer(ctx, id)
			if err != nil {
				return err
			}
			iss.Sector = detail.Sector
			if err := st.UpdateIssuerDetail(ctx, tx, iss, time.Now()); err != nil {
				return err
			}
			if detail.Stats.CountTrades == 0 {
				return st.ClearIssuerPerformance(ctx, tx, id)
			}
			return nil
		})
	}

	return Run(ctx, log, opts, ids, breaker, fetch, write)
}
