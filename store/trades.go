package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/capitoltrack/pvintel/data"
)

// UpsertTrade writes a raw (list-scrape) observation of a trade. Column
// merge rules follow spec §4.1 exactly:
//   - overwrite: every raw disclosure field
//   - COALESCE: size_range_low/high, executed_price (never clobber a value
//     already populated by price enrichment with a blank list-scrape)
//   - sentinel CASE: filing_id (0), filing_url ("")
//   - preserve-self: enriched_at, current_price, benchmark_price,
//     price_source, estimated_shares/value, price_enriched_at are entirely
//     absent from this statement's SET clause
//
// It also upserts the parent asset (sentinel-guarded asset_type) and
// ensures the politician/issuer rows exist (insert-only — callers populate
// their detail fields via UpsertPolitician/UpsertIssuer separately).
func (s *Store) UpsertTrade(ctx context.Context, tx *sql.Tx, t *data.Trade) error {
	if err := upsertAssetSentinel(ctx, tx, t.AssetID, data.SentinelAssetType); err != nil {
		return fmt.Errorf("upsert parent asset: %w", err)
	}

	const q = `
INSERT INTO trades (
	id, politician_id, asset_id, issuer_id, published_at, filed_at, transaction_date,
	kind, extended_type, has_capital_gains, owner_role, chamber, reporting_gap_days,
	comment, size_range_low, size_range_high, value_usd, filing_id, filing_url, executed_price
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	politician_id = excluded.politician_id,
	asset_id = excluded.asset_id,
	issuer_id = excluded.issuer_id,
	published_at = excluded.published_at,
	filed_at = excluded.filed_at,
	transaction_date = excluded.transaction_date,
	kind = excluded.kind,
	extended_type = excluded.extended_type,
	has_capital_gains = excluded.has_capital_gains,
	owner_role = excluded.owner_role,
	chamber = excluded.chamber,
	reporting_gap_days = excluded.reporting_gap_days,
	comment = excluded.comment,
	size_range_low = COALESCE(trades.size_range_low, excluded.size_range_low),
	size_range_high = COALESCE(trades.size_range_high, excluded.size_range_high),
	value_usd = excluded.value_usd,
	filing_id = CASE WHEN excluded.filing_id != 0 THEN excluded.filing_id ELSE trades.filing_id END,
	filing_url = CASE WHEN excluded.filing_url != '' THEN excluded.filing_url ELSE trades.filing_url END,
	executed_price = COALESCE(trades.executed_price, excluded.executed_price)
`
	_, err := tx.ExecContext(ctx, q,
		t.ID, t.PoliticianID, t.AssetID, t.IssuerID, t.PublishedAt, nullTime(t.FiledAt), t.TransactionDate,
		string(t.Kind), t.ExtendedType, boolToInt(t.HasCapitalGains), t.OwnerRole, string(t.Chamber),
		t.ReportingGapDays, t.Comment, t.SizeRangeLow, t.SizeRangeHigh, t.ValueUSD, t.FilingID, t.FilingURL,
		t.ExecutedPrice,
	)
	if err != nil {
		return fmt.Errorf("upsert trade %d: %w", t.ID, err)
	}

	return nil
}

// UpdateTradeDetail applies an enrichment pass's detail fields. It sets
// enriched_at to now, applies the same sentinel rule to filing id/url (a
// detail fetch can independently discover these), and atomically replaces
// the trade's committee and label sets (delete-then-insert inside the same
// transaction the caller supplies — never a partial update, per spec §4.1).
func (s *Store) UpdateTradeDetail(ctx context.Context, tx *sql.Tx, t *data.Trade, assetType string, now time.Time) error {
	if assetType == "" {
		assetType = data.SentinelAssetType
	}
	if err := upsertAssetSentinel(ctx, tx, t.AssetID, assetType); err != nil {
		return fmt.Errorf("upsert parent asset: %w", err)
	}

	const q = `
UPDATE trades SET
	filing_id = CASE WHEN ? != 0 THEN ? ELSE filing_id END,
	filing_url = CASE WHEN ? != '' THEN ? ELSE filing_url END,
	executed_price = COALESCE(executed_price, ?),
	size_range_low = COALESCE(size_range_low, ?),
	size_range_high = COALESCE(size_range_high, ?),
	enriched_at = ?
WHERE id = ?
`
	res, err := tx.ExecContext(ctx, q,
		t.FilingID, t.FilingID, t.FilingURL, t.FilingURL, t.ExecutedPrice,
		t.SizeRangeLow, t.SizeRangeHigh, now, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update trade detail %d: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update trade detail %d: no such trade", t.ID)
	}

	if err := s.replaceTradeSet(ctx, tx, "trade_committees", "committee_code", t.ID, t.Committees); err != nil {
		return err
	}
	if err := s.replaceTradeSet(ctx, tx, "trade_labels", "label", t.ID, t.Labels); err != nil {
		return err
	}

	return nil
}

func (s *Store) replaceTradeSet(ctx context.Context, tx *sql.Tx, table, col string, tradeID int, values []string) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE trade_id = ?", table), tradeID); err != nil {
		return fmt.Errorf("clear %s for trade %d: %w", table, tradeID, err)
	}

	for _, v := range values {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s (trade_id, %s) VALUES (?, ?)", table, col), tradeID, v); err != nil {
			return fmt.Errorf("insert %s for trade %d: %w", table, tradeID, err)
		}
	}

	return nil
}

// UpdateTradePrices persists Phase 1/2/3 price-enrichment results. Applies
// the sentinel/COALESCE rule so a retried phase never blanks a previously
// successful fetch (price_source is written only while it is still empty),
// and sets price_enriched_at. A trade left with neither an executed nor a
// current price stays in PriceEnrichmentQueue (spec §4.6.3).
func (s *Store) UpdateTradePrices(ctx context.Context, tx *sql.Tx, tradeID int, executedPrice, currentPrice, benchmarkPrice *float64, priceSource string, estShares, estValue *float64, now time.Time) error {
	const q = `
UPDATE trades SET
	executed_price = COALESCE(executed_price, ?),
	current_price = COALESCE(?, current_price),
	benchmark_price = COALESCE(benchmark_price, ?),
	price_source = CASE WHEN price_source = '' AND ? != '' THEN ? ELSE price_source END,
	estimated_shares = COALESCE(estimated_shares, ?),
	estimated_value = COALESCE(estimated_value, ?),
	price_enriched_at = ?
WHERE id = ?
`
	_, err := tx.ExecContext(ctx, q, executedPrice, currentPrice, benchmarkPrice, priceSource, priceSource,
		estShares, estValue, now, tradeID)
	if err != nil {
		return fmt.Errorf("update trade prices %d: %w", tradeID, err)
	}
	return nil
}

func upsertAssetSentinel(ctx context.Context, tx *sql.Tx, assetID int, assetType string) error {
	const q = `
INSERT INTO assets (id, asset_type) VALUES (?, ?)
ON CONFLICT(id) DO UPDATE SET
	asset_type = CASE WHEN excluded.asset_type != 'unknown' THEN excluded.asset_type ELSE assets.asset_type END
`
	_, err := tx.ExecContext(ctx, q, assetID, assetType)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
