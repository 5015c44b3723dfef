package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/capitoltrack/pvintel/data"
)

// UpsertIssuer writes a raw (list-scrape) observation of an issuer. Name,
// country and state are overwritten; ticker is overwritten only by a
// non-empty value; sector, market cap, and
// trailing-return fields are enrichment-only and left untouched here
// (see UpdateIssuerDetail).
func (s *Store) UpsertIssuer(ctx context.Context, tx *sql.Tx, iss *data.Issuer) error {
	const q = `
INSERT INTO issuers (id, name, ticker, country, state, num_trades, total_value)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	ticker = CASE WHEN excluded.ticker != '' THEN excluded.ticker ELSE issuers.ticker END,
	country = excluded.country,
	state = excluded.state,
	num_trades = excluded.num_trades,
	total_value = excluded.total_value
`
	_, err := tx.ExecContext(ctx, q, iss.ID, iss.Name, iss.Ticker, iss.Country, iss.State, iss.NumTrades, iss.TotalValue)
	if err != nil {
		return fmt.Errorf("upsert issuer %d: %w", iss.ID, err)
	}
	return nil
}

// UpdateIssuerDetail applies a price/fundamentals enrichment pass. Sector
// overwrites once known; market cap and trailing returns overwrite on
// every successful fetch (these are point-in-time snapshots, not
// cumulative facts, so COALESCE would stale-lock them — unlike a trade's
// executed_price, re-fetching issuer fundamentals is expected and desired).
func (s *Store) UpdateIssuerDetail(ctx context.Context, tx *sql.Tx, iss *data.Issuer, now time.Time) error {
	const q = `
UPDATE issuers SET
	sector = CASE WHEN ? != '' THEN ? ELSE sector END,
	market_cap = ?,
	trailing_ytd = ?,
	trailing_1y = ?,
	enriched_at = ?
WHERE id = ?
`
	res, err := tx.ExecContext(ctx, q, iss.Sector, iss.Sector, iss.MarketCap, iss.TrailingYTD, iss.Trailing1Y, now, iss.ID)
	if err != nil {
		return fmt.Errorf("update issuer detail %d: %w", iss.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update issuer detail %d: no such issuer", iss.ID)
	}
	return nil
}

// UpsertEODPrice records one day's close for an issuer, overwriting any
// existing close for that date (a late-arriving correction from the price
// adapter is expected to replace a stale or provisional value).
func (s *Store) UpsertEODPrice(ctx context.Context, tx *sql.Tx, p data.EndOfDayPrice) error {
	const q = `
INSERT INTO issuer_eod_prices (issuer_id, date, close) VALUES (?, ?, ?)
ON CONFLICT(issuer_id, date) DO UPDATE SET close = excluded.close
`
	_, err := tx.ExecContext(ctx, q, p.IssuerID, p.Date, p.Close)
	if err != nil {
		return fmt.Errorf("upsert eod price issuer=%d date=%s: %w", p.IssuerID, p.Date, err)
	}
	return nil
}

// ClearIssuerPerformance zeroes an issuer's market cap and trailing
// returns and deletes every recorded end-of-day close, for the case
// where a re-enrichment pass finds the issuer's performance data has
// gone missing upstream (spec §4.6.2).
func (s *Store) ClearIssuerPerformance(ctx context.Context, tx *sql.Tx, issuerID int) error {
	const q = `UPDATE issuers SET market_cap = 0, trailing_ytd = 0, trailing_1y = 0 WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, issuerID); err != nil {
		return fmt.Errorf("clear issuer performance %d: %w", issuerID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM issuer_eod_prices WHERE issuer_id = ?`, issuerID); err != nil {
		return fmt.Errorf("clear issuer eod prices %d: %w", issuerID, err)
	}
	return nil
}

// GetIssuer loads a single issuer row.
func (s *Store) GetIssuer(ctx context.Context, id int) (*data.Issuer, error) {
	const q = `
SELECT id, name, ticker, sector, country, state, num_trades, total_value, market_cap,
	trailing_ytd, trailing_1y, enriched_at
FROM issuers WHERE id = ?
`
	row := s.db.QueryRowContext(ctx, q, id)

	var iss data.Issuer
	var enrichedAt sql.NullTime

	if err := row.Scan(&iss.ID, &iss.Name, &iss.Ticker, &iss.Sector, &iss.Country, &iss.State,
		&iss.NumTrades, &iss.TotalValue, &iss.MarketCap, &iss.TrailingYTD, &iss.Trailing1Y, &enrichedAt); err != nil {
		return nil, fmt.Errorf("get issuer %d: %w", id, err)
	}
	if enrichedAt.Valid {
		iss.EnrichedAt = &enrichedAt.Time
	}

	return &iss, nil
}

// EODPricesSince loads an issuer's closes on or after from, ascending by
// date — the series the FIFO/benchmark engine walks for pre-move and
// executed-price lookups.
func (s *Store) EODPricesSince(ctx context.Context, issuerID int, from time.Time) ([]data.EndOfDayPrice, error) {
	const q = `
SELECT issuer_id, date, close FROM issuer_eod_prices
WHERE issuer_id = ? AND date >= ?
ORDER BY date ASC
`
	rows, err := s.db.QueryContext(ctx, q, issuerID, from)
	if err != nil {
		return nil, fmt.Errorf("eod prices since for issuer %d: %w", issuerID, err)
	}
	defer rows.Close()

	var out []data.EndOfDayPrice
	for rows.Next() {
		var p data.EndOfDayPrice
		if err := rows.Scan(&p.IssuerID, &p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("scan eod price: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
