package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/capitoltrack/pvintel/data"
)

// UnenrichedTradeIDs returns trade ids with enriched_at still NULL, ordered
// by primary key. limit <= 0 means unbounded.
func (s *Store) UnenrichedTradeIDs(ctx context.Context, limit int) ([]int, error) {
	q := "SELECT id FROM trades WHERE enriched_at IS NULL ORDER BY id ASC"
	args := []interface{}{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	return s.intColumn(ctx, q, args...)
}

// CountUnenrichedTrades reports how many trades still need a detail pass.
func (s *Store) CountUnenrichedTrades(ctx context.Context) (int, error) {
	return s.scanCount(ctx, "SELECT COUNT(*) FROM trades WHERE enriched_at IS NULL")
}

// PoliticianIDs returns every tracked politician id, optionally filtered
// to those whose first or last name contains nameFilter (case-
// insensitive). An empty nameFilter returns every id.
func (s *Store) PoliticianIDs(ctx context.Context, nameFilter string) ([]string, error) {
	q := "SELECT id FROM politicians"
	var args []interface{}
	if nameFilter != "" {
		q += " WHERE first_name LIKE ? OR last_name LIKE ?"
		like := "%" + nameFilter + "%"
		args = append(args, like, like)
	}
	q += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("politician ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan politician id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// UnenrichedIssuerIDs returns issuer ids with enriched_at still NULL,
// ordered by primary key. limit <= 0 means unbounded.
func (s *Store) UnenrichedIssuerIDs(ctx context.Context, limit int) ([]int, error) {
	q := "SELECT id FROM issuers WHERE enriched_at IS NULL ORDER BY id ASC"
	args := []interface{}{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	return s.intColumn(ctx, q, args...)
}

// GetTrade loads one trade by id, including its committee and label sets
// and its issuer's ticker/sector, for the enrichment pipelines.
func (s *Store) GetTrade(ctx context.Context, id int) (*data.Trade, string, string, error) {
	const q = `
SELECT
	t.id, t.politician_id, t.asset_id, t.issuer_id, t.published_at, t.filed_at, t.transaction_date,
	t.kind, t.extended_type, t.has_capital_gains, t.owner_role, t.chamber, t.reporting_gap_days, t.comment,
	t.size_range_low, t.size_range_high, t.value_usd, t.filing_id, t.filing_url,
	t.executed_price, t.current_price, t.benchmark_price, t.price_source, t.estimated_shares, t.estimated_value,
	t.enriched_at, t.price_enriched_at, i.ticker, i.sector
FROM trades t
JOIN issuers i ON i.id = t.issuer_id
WHERE t.id = ?`

	var t data.Trade
	var kind, chamber, ticker, sector string
	var filedAt, enrichedAt, priceEnrichedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.PoliticianID, &t.AssetID, &t.IssuerID, &t.PublishedAt, &filedAt, &t.TransactionDate,
		&kind, &t.ExtendedType, &t.HasCapitalGains, &t.OwnerRole, &chamber, &t.ReportingGapDays, &t.Comment,
		&t.SizeRangeLow, &t.SizeRangeHigh, &t.ValueUSD, &t.FilingID, &t.FilingURL,
		&t.ExecutedPrice, &t.CurrentPrice, &t.BenchmarkPrice, &t.PriceSource, &t.EstimatedShares, &t.EstimatedValue,
		&enrichedAt, &priceEnrichedAt, &ticker, &sector,
	)
	if err != nil {
		return nil, "", "", fmt.Errorf("get trade %d: %w", id, err)
	}

	t.Kind = data.TransactionKind(kind)
	t.Chamber = data.Chamber(chamber)
	if filedAt.Valid {
		t.FiledAt = filedAt.Time
	}
	if enrichedAt.Valid {
		t.EnrichedAt = &enrichedAt.Time
	}
	if priceEnrichedAt.Valid {
		t.PriceEnrichedAt = &priceEnrichedAt.Time
	}

	committees, err := s.intColumnToStrings(ctx, "SELECT committee_code FROM trade_committees WHERE trade_id = ?", id)
	if err != nil {
		return nil, "", "", err
	}
	t.Committees = committees

	labels, err := s.intColumnToStrings(ctx, "SELECT label FROM trade_labels WHERE trade_id = ?", id)
	if err != nil {
		return nil, "", "", err
	}
	t.Labels = labels

	return &t, ticker, sector, nil
}

func (s *Store) intColumnToStrings(ctx context.Context, q string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query string column: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan string column: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// PriceEnrichmentQueue returns ids of trades that have never had a price
// attempt, or whose last attempt left both executed_price and current_price
// null (a failed attempt pending retry), ordered by primary key.
func (s *Store) PriceEnrichmentQueue(ctx context.Context, limit int) ([]int, error) {
	q := `
SELECT id FROM trades
WHERE price_enriched_at IS NULL
   OR (executed_price IS NULL AND current_price IS NULL)
ORDER BY id ASC`
	args := []interface{}{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	return s.intColumn(ctx, q, args...)
}

// BenchmarkEnrichmentQueue returns ids of trades whose issuer has a known
// sector but which have no benchmark_price yet.
func (s *Store) BenchmarkEnrichmentQueue(ctx context.Context, limit int) ([]int, error) {
	q := `
SELECT t.id FROM trades t
JOIN issuers i ON i.id = t.issuer_id
WHERE i.sector != '' AND t.benchmark_price IS NULL
ORDER BY t.id ASC`
	args := []interface{}{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	return s.intColumn(ctx, q, args...)
}

func (s *Store) intColumn(ctx context.Context, q string, args ...interface{}) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query int column: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan int column: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) scanCount(ctx context.Context, q string, args ...interface{}) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// AnalyticsTrade is one trade joined with the politician/issuer/asset
// context the metric engines need, plus its committee and label sets.
type AnalyticsTrade struct {
	Trade        data.Trade
	PoliticianID string
	Party        string
	Chamber      data.Chamber
	IssuerName   string
	Sector       string
	AssetType    string
}

// AnalyticsTrades returns fully enriched trades (both detail and price
// phases complete) joined with politician/issuer/asset context, for
// consumption by the metric engines.
func (s *Store) AnalyticsTrades(ctx context.Context) ([]AnalyticsTrade, error) {
	const q = `
SELECT
	t.id, t.politician_id, t.asset_id, t.issuer_id, t.published_at, t.filed_at, t.transaction_date,
	t.kind, t.extended_type, t.has_capital_gains, t.owner_role, t.chamber, t.reporting_gap_days, t.comment,
	t.size_range_low, t.size_range_high, t.value_usd, t.filing_id, t.filing_url,
	t.executed_price, t.current_price, t.benchmark_price, t.price_source, t.estimated_shares, t.estimated_value,
	t.enriched_at, t.price_enriched_at,
	p.party, p.chamber, i.name, i.sector, a.asset_type
FROM trades t
JOIN politicians p ON p.id = t.politician_id
JOIN issuers i ON i.id = t.issuer_id
JOIN assets a ON a.id = t.asset_id
WHERE t.enriched_at IS NOT NULL AND t.price_enriched_at IS NOT NULL
ORDER BY t.id ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("analytics trades: %w", err)
	}
	defer rows.Close()

	var out []AnalyticsTrade
	for rows.Next() {
		var at AnalyticsTrade
		var t data.Trade
		var kind, chamber, pChamber string
		var filedAt, enrichedAt, priceEnrichedAt sql.NullTime

		if err := rows.Scan(
			&t.ID, &t.PoliticianID, &t.AssetID, &t.IssuerID, &t.PublishedAt, &filedAt, &t.TransactionDate,
			&kind, &t.ExtendedType, &t.HasCapitalGains, &t.OwnerRole, &chamber, &t.ReportingGapDays, &t.Comment,
			&t.SizeRangeLow, &t.SizeRangeHigh, &t.ValueUSD, &t.FilingID, &t.FilingURL,
			&t.ExecutedPrice, &t.CurrentPrice, &t.BenchmarkPrice, &t.PriceSource, &t.EstimatedShares, &t.EstimatedValue,
			&enrichedAt, &priceEnrichedAt,
			&at.Party, &pChamber, &at.IssuerName, &at.Sector, &at.AssetType,
		); err != nil {
			return nil, fmt.Errorf("scan analytics trade: %w", err)
		}

		t.Kind = data.TransactionKind(kind)
		t.Chamber = data.Chamber(chamber)
		if filedAt.Valid {
			t.FiledAt = filedAt.Time
		}
		if enrichedAt.Valid {
			t.EnrichedAt = &enrichedAt.Time
		}
		if priceEnrichedAt.Valid {
			t.PriceEnrichedAt = &priceEnrichedAt.Time
		}

		at.Trade = t
		at.PoliticianID = t.PoliticianID
		at.Chamber = data.Chamber(pChamber)
		out = append(out, at)
	}

	return out, rows.Err()
}

// PortfolioTrades returns every trade for one politician ordered
// chronologically, the input the FIFO engine consumes directly.
func (s *Store) PortfolioTrades(ctx context.Context, politicianID string) ([]data.FIFOInput, error) {
	const q = `
SELECT t.issuer_id, i.ticker, i.sector, t.kind, t.value_usd, t.executed_price, t.transaction_date,
	t.benchmark_price
FROM trades t
JOIN issuers i ON i.id = t.issuer_id
WHERE t.politician_id = ?
ORDER BY t.transaction_date ASC, t.id ASC`

	rows, err := s.db.QueryContext(ctx, q, politicianID)
	if err != nil {
		return nil, fmt.Errorf("portfolio trades for %s: %w", politicianID, err)
	}
	defer rows.Close()

	var out []data.FIFOInput
	for rows.Next() {
		var in data.FIFOInput
		var issuerID int
		var kind string
		var price sql.NullFloat64

		if err := rows.Scan(&issuerID, &in.Ticker, &in.Sector, &kind, &in.Shares, &price,
			&in.TransactionDate, &in.BenchmarkPrice); err != nil {
			return nil, fmt.Errorf("scan portfolio trade: %w", err)
		}

		in.PoliticianID = politicianID
		in.Kind = data.TransactionKind(kind)
		if price.Valid {
			in.Price = price.Float64
		}
		out = append(out, in)
	}

	return out, rows.Err()
}

// PreMoveCandidate is a trade paired with its trade-date price and the
// close 30 days after, the raw inputs to the pre-move signal.
type PreMoveCandidate struct {
	TradeID         int
	Kind            data.TransactionKind
	TradeDatePrice  float64
	Price30DaysOut  float64
}

// PreMoveCandidates returns trades whose issuer has an EOD close on or
// after transaction_date+30d, joined to the nearest such close.
func (s *Store) PreMoveCandidates(ctx context.Context) ([]PreMoveCandidate, error) {
	const q = `
SELECT t.id, t.kind, t.executed_price, e.close
FROM trades t
JOIN issuer_eod_prices e ON e.issuer_id = t.issuer_id
WHERE t.executed_price IS NOT NULL
  AND e.date = (
	SELECT MIN(e2.date) FROM issuer_eod_prices e2
	WHERE e2.issuer_id = t.issuer_id AND e2.date >= datetime(t.transaction_date, '+30 days')
  )`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("pre-move candidates: %w", err)
	}
	defer rows.Close()

	var out []PreMoveCandidate
	for rows.Next() {
		var c PreMoveCandidate
		var kind string
		if err := rows.Scan(&c.TradeID, &kind, &c.TradeDatePrice, &c.Price30DaysOut); err != nil {
			return nil, fmt.Errorf("scan pre-move candidate: %w", err)
		}
		c.Kind = data.TransactionKind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

// VolumeRecord is one trade's (politician, date, value) tuple, the input
// to the unusual-volume signal's recent/historical window sums.
type VolumeRecord struct {
	PoliticianID    string
	TransactionDate time.Time
	ValueUSD        float64
}

// VolumeRecordsForPolitician returns every trade value/date for one
// politician, ascending by date.
func (s *Store) VolumeRecordsForPolitician(ctx context.Context, politicianID string) ([]VolumeRecord, error) {
	const q = `
SELECT politician_id, transaction_date, value_usd FROM trades
WHERE politician_id = ? ORDER BY transaction_date ASC`

	rows, err := s.db.QueryContext(ctx, q, politicianID)
	if err != nil {
		return nil, fmt.Errorf("volume records for %s: %w", politicianID, err)
	}
	defer rows.Close()

	var out []VolumeRecord
	for rows.Next() {
		var v VolumeRecord
		if err := rows.Scan(&v.PoliticianID, &v.TransactionDate, &v.ValueUSD); err != nil {
			return nil, fmt.Errorf("scan volume record: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// HHIPosition is one (sector, value) pair feeding the sector-concentration
// signal for a single politician.
type HHIPosition struct {
	Sector string
	Value  float64
}

// HHIPositionsForPolitician returns current holdings by sector/value,
// derived from the FIFO engine's residual positions being pre-computed by
// the caller — this query supplies the raw per-trade value/sector pairs
// the caller aggregates into positions before calling the HHI metric.
func (s *Store) HHIPositionsForPolitician(ctx context.Context, politicianID string) ([]HHIPosition, error) {
	const q = `
SELECT i.sector, t.value_usd FROM trades t
JOIN issuers i ON i.id = t.issuer_id
WHERE t.politician_id = ? AND t.kind IN ('buy', 'receive')`

	rows, err := s.db.QueryContext(ctx, q, politicianID)
	if err != nil {
		return nil, fmt.Errorf("hhi positions for %s: %w", politicianID, err)
	}
	defer rows.Close()

	var out []HHIPosition
	for rows.Next() {
		var h HHIPosition
		if err := rows.Scan(&h.Sector, &h.Value); err != nil {
			return nil, fmt.Errorf("scan hhi position: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// DonationsByEmployer aggregates contribution amounts grouped by employer
// across all committees tied to a politician's FEC mapping.
func (s *Store) DonationsByEmployer(ctx context.Context, politicianID string) (map[string]float64, error) {
	return s.donationAggregate(ctx, politicianID, "employer")
}

// DonationsByDonor aggregates contribution amounts grouped by donor name.
func (s *Store) DonationsByDonor(ctx context.Context, politicianID string) (map[string]float64, error) {
	return s.donationAggregate(ctx, politicianID, "donor_name")
}

// DonationsByState aggregates contribution amounts grouped by donor state.
func (s *Store) DonationsByState(ctx context.Context, politicianID string) (map[string]float64, error) {
	return s.donationAggregate(ctx, politicianID, "state")
}

func (s *Store) donationAggregate(ctx context.Context, politicianID, groupCol string) (map[string]float64, error) {
	if groupCol != "employer" && groupCol != "donor_name" && groupCol != "state" {
		return nil, fmt.Errorf("donation aggregate: invalid group column %q", groupCol)
	}

	q := fmt.Sprintf(`
SELECT c.%s, SUM(c.amount) FROM contributions c
JOIN fec_mappings m ON m.politician_id = ?
WHERE ',' || m.committee_ids || ',' LIKE '%%,' || c.committee_id || ',%%'
GROUP BY c.%s`, groupCol, groupCol)

	rows, err := s.db.QueryContext(ctx, q, politicianID)
	if err != nil {
		return nil, fmt.Errorf("donation aggregate by %s for %s: %w", groupCol, politicianID, err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var key string
		var sum float64
		if err := rows.Scan(&key, &sum); err != nil {
			return nil, fmt.Errorf("scan donation aggregate: %w", err)
		}
		out[key] = sum
	}
	return out, rows.Err()
}

// EnrichmentDiagnostics summarizes pipeline health for operator visibility.
type EnrichmentDiagnostics struct {
	UnenrichedTrades    int
	UnpricedTrades      int
	TopFailingIssuers   []IssuerFailureCount
	PriceSourceCounts   map[string]int
}

// IssuerFailureCount names an issuer with the count of its trades still
// missing a price, the "top failing tickers" diagnostic.
type IssuerFailureCount struct {
	Ticker string
	Count  int
}

// Diagnostics computes the enrichment-health snapshot described in §4.1:
// counts by status, top failing tickers, and price-source breakdown.
func (s *Store) Diagnostics(ctx context.Context) (*EnrichmentDiagnostics, error) {
	d := &EnrichmentDiagnostics{PriceSourceCounts: make(map[string]int)}

	var err error
	if d.UnenrichedTrades, err = s.scanCount(ctx, "SELECT COUNT(*) FROM trades WHERE enriched_at IS NULL"); err != nil {
		return nil, err
	}
	if d.UnpricedTrades, err = s.scanCount(ctx, "SELECT COUNT(*) FROM trades WHERE price_enriched_at IS NULL"); err != nil {
		return nil, err
	}

	const topQ = `
SELECT i.ticker, COUNT(*) c FROM trades t
JOIN issuers i ON i.id = t.issuer_id
WHERE t.price_enriched_at IS NULL
GROUP BY i.ticker ORDER BY c DESC LIMIT 10`

	rows, err := s.db.QueryContext(ctx, topQ)
	if err != nil {
		return nil, fmt.Errorf("top failing issuers: %w", err)
	}
	for rows.Next() {
		var f IssuerFailureCount
		if err := rows.Scan(&f.Ticker, &f.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan issuer failure count: %w", err)
		}
		d.TopFailingIssuers = append(d.TopFailingIssuers, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	srcRows, err := s.db.QueryContext(ctx, `
SELECT price_source, COUNT(*) FROM trades
WHERE price_source != '' GROUP BY price_source`)
	if err != nil {
		return nil, fmt.Errorf("price source counts: %w", err)
	}
	defer srcRows.Close()
	for srcRows.Next() {
		var src string
		var n int
		if err := srcRows.Scan(&src, &n); err != nil {
			return nil, fmt.Errorf("scan price source count: %w", err)
		}
		d.PriceSourceCounts[src] = n
	}

	return d, srcRows.Err()
}
