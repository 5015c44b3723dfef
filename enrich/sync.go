package enrich

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/capitoltrack/pvintel/data"
	"github.com/capitoltrack/pvintel/source"
	"github.com/capitoltrack/pvintel/store"
)

// RunTradeIngestion implements the raw half of spec §2's data flow
// (source → Store: raw trades, politicians, issuers): walk the
// trade-disclosure site's paginated trades index start-to-finish,
// upserting each row's politician, issuer, and trade before advancing.
// Unlike the enrichment pipelines this is a single sequential walk, not
// a fan-out over a known queue — pages must be fetched in order to
// discover how many there are. It still honors a circuit breaker across
// pages: a scrape running against a misbehaving site should stop rather
// than hammer every remaining page.
func RunTradeIngestion(
	ctx context.Context,
	log zerolog.Logger,
	st *store.Store,
	client *source.Client,
	opts Options,
) Outcome {
	breaker := NewBreaker(opts.FailureThreshold)
	var out Outcome

	for page := 1; ; page++ {
		if ctx.Err() != nil || breaker.Tripped() {
			out.Aborted = true
			break
		}

		jitterSleep(ctx, opts.RequestDelayBase)

		result, err := client.TradesPage(ctx, page)
		out.Attempted++
		if err != nil {
			out.Failed++
			log.Warn().Err(err).Int("page", page).Msg("trade ingestion: fetch page")
			if breaker.RecordFailure() {
				out.Aborted = true
				break
			}
			continue
		}

		if err := writeTradePage(ctx, st, result.Data); err != nil {
			out.Failed++
			log.Warn().Err(err).Int("page", page).Msg("trade ingestion: write page")
			if breaker.RecordFailure() {
				out.Aborted = true
				break
			}
			continue
		}

		breaker.RecordSuccess()
		out.Succeeded++
		log.Info().Int("page", page).Int("rows", len(result.Data)).Msg("trade ingestion: page synced")

		if len(result.Data) == 0 || (result.TotalPages > 0 && int64(page) >= result.TotalPages) {
			break
		}
	}

	return out
}

// writeTradePage upserts every row of one trades page inside a single
// transaction: the embedded politician and issuer stubs first (a trade's
// foreign keys must resolve), then the trade itself.
func writeTradePage(ctx context.Context, st *store.Store, rows []source.ScrapedTrade) error {
	return st.WithTx(ctx, func(tx *sql.Tx) error {
		for _, row := range rows {
			politician := &data.Politician{
				ID:        row.PoliticianID,
				FirstName: row.Politician.FirstName,
				LastName:  row.Politician.LastName,
				Chamber:   data.Chamber(row.Chamber),
				Party:     row.Politician.Party,
			}
			if err := st.UpsertPolitician(ctx, tx, politician); err != nil {
				return err
			}

			issuer := &data.Issuer{
				ID:      int(row.IssuerID),
				Name:    row.Issuer.IssuerName,
				Ticker:  row.Issuer.IssuerTicker,
				Country: row.Issuer.Country,
			}
			if err := st.UpsertIssuer(ctx, tx, issuer); err != nil {
				return err
			}

			trade := scrapedTradeToDomain(row)
			if err := st.UpsertTrade(ctx, tx, trade); err != nil {
				return err
			}
		}
		return nil
	})
}

func scrapedTradeToDomain(row source.ScrapedTrade) *data.Trade {
	return &data.Trade{
		ID:              int(row.TxID),
		PoliticianID:    row.PoliticianID,
		AssetID:         int(row.TxID),
		IssuerID:        int(row.IssuerID),
		PublishedAt:     parseScrapedDate(row.PubDate),
		TransactionDate: parseScrapedDate(row.TxDate),
		Kind:            data.TransactionKind(row.TxType),
		OwnerRole:       row.Owner,
		Chamber:         data.Chamber(row.Chamber),
		ReportingGapDays: int(row.ReportingGap),
		Comment:         row.Comment,
		ValueUSD:        float64(row.Value),
		FilingID:        int(row.FilingID),
		FilingURL:       row.FilingURL,
		ExecutedPrice:   row.Price,
	}
}

// parseScrapedDate tries the two shapes the disclosure site emits
// (RFC3339 timestamp or a bare date), falling back to the zero time for
// anything else rather than failing the whole page over one bad row.
func parseScrapedDate(raw string) time.Time {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return time.Time{}
}
