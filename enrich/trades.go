package enrich

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/capitoltrack/pvintel/source"
	"github.com/capitoltrack/pvintel/store"
)

// tradeDetailResult is what a trade-detail fetch produces for the writer.
type tradeDetailResult struct {
	filingID  int
	filingURL string
}

// RunTradeDetailEnrichment implements spec §4.6.1: queue every trade with
// a null enrichment timestamp (no dedup — each trade id is unique) and
// fetch its detail page for the filing identity. Committees and labels
// are whatever the trade already carries (source.Client exposes
// committee membership only in the reverse direction — members of a
// committee, not a politician's committees — so this pass leaves them
// untouched rather than wiping them via UpdateTradeDetail's
// replace-on-write semantics; see DESIGN.md).
func RunTradeDetailEnrichment(
	ctx context.Context,
	log zerolog.Logger,
	st *store.Store,
	client *source.Client,
	opts Options,
	batchLimit int,
) Outcome {
	breaker := NewBreaker(opts.FailureThreshold)

	ids, err := st.UnenrichedTradeIDs(ctx, batchLimit)
	if err != nil {
		log.Error().Err(err).Msg("trade detail: list unenriched trades")
		return Outcome{}
	}

	fetch := func(ctx context.Context, id int) (tradeDetailResult, error) {
		detail, err := client.TradeDetail(ctx, int64(id))
		if err != nil {
			return tradeDetailResult{}, err
		}
		return tradeDetailResult{filingID: detail.FilingID, filingURL: detail.FilingURL}, nil
	}

	write := func(ctx context.Context, id int, r tradeDetailResult) error {
		return st.WithTx(ctx, func(tx *sql.Tx) error {
			trade, _, _, err := st.GetTrade(ctx, id)
			if err != nil {
				return err
			}
			trade.FilingID = r.filingID
			trade.FilingURL = r.filingURL
			return st.UpdateTradeDetail(ctx, tx, trade, "", time.Now())
		})
	}

	return Run(ctx, log, opts, ids, breaker, fetch, write)
}
