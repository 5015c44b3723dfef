package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/capitoltrack/pvintel/data"
)

// UpsertPolitician writes a raw (list-scrape) observation of a politician.
// First/last name, state, chamber and party are overwritten on every
// ingestion; bio and committees are enrichment-only fields and are left
// untouched here (see UpdatePoliticianDetail) so a list-scrape pass can
// never blank a detail previously fetched.
func (s *Store) UpsertPolitician(ctx context.Context, tx *sql.Tx, p *data.Politician) error {
	const q = `
INSERT INTO politicians (id, first_name, last_name, state, chamber, party, num_trades, total_value)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	first_name = excluded.first_name,
	last_name = excluded.last_name,
	state = excluded.state,
	chamber = excluded.chamber,
	party = excluded.party,
	num_trades = excluded.num_trades,
	total_value = excluded.total_value
`
	_, err := tx.ExecContext(ctx, q,
		p.ID, p.FirstName, p.LastName, p.State, string(p.Chamber), p.Party, p.NumTrades, p.TotalValue,
	)
	if err != nil {
		return fmt.Errorf("upsert politician %s: %w", p.ID, err)
	}
	return nil
}

// UpdatePoliticianDetail applies an enrichment pass's bio and committee
// membership. Bio overwrites (a detail fetch is authoritative once it
// succeeds); committees replace wholesale but COALESCE against blank so a
// fetch that returned nothing doesn't erase a previously known list.
func (s *Store) UpdatePoliticianDetail(ctx context.Context, tx *sql.Tx, p *data.Politician, now time.Time) error {
	committees := strings.Join(p.Committees, ",")

	const q = `
UPDATE politicians SET
	bio = ?,
	committees = CASE WHEN ? != '' THEN ? ELSE committees END,
	enriched_at = ?
WHERE id = ?
`
	res, err := tx.ExecContext(ctx, q, p.Bio, committees, committees, now, p.ID)
	if err != nil {
		return fmt.Errorf("update politician detail %s: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update politician detail %s: no such politician", p.ID)
	}
	return nil
}

// ReplacePoliticianCommittees overwrites a politician's committee-code set
// unconditionally, including with an empty list. Unlike UpdatePoliticianDetail
// (which COALESCEs against blank so a detail fetch that found nothing doesn't
// erase a previously known list), the committee-membership sync walks the
// site's committee rosters directly and its result is authoritative: a
// politician absent from every roster this run really does serve on none.
func (s *Store) ReplacePoliticianCommittees(ctx context.Context, tx *sql.Tx, politicianID string, committees []string) error {
	const q = `UPDATE politicians SET committees = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, strings.Join(committees, ","), politicianID)
	if err != nil {
		return fmt.Errorf("replace politician committees %s: %w", politicianID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("replace politician committees %s: no such politician", politicianID)
	}
	return nil
}

// GetPolitician loads a single politician row, splitting the stored
// comma-separated committee list back into a slice.
func (s *Store) GetPolitician(ctx context.Context, id string) (*data.Politician, error) {
	const q = `
SELECT id, first_name, last_name, state, chamber, party, bio, committees, num_trades, total_value, enriched_at
FROM politicians WHERE id = ?
`
	row := s.db.QueryRowContext(ctx, q, id)

	var p data.Politician
	var chamber string
	var committees string
	var enrichedAt sql.NullTime

	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.State, &chamber, &p.Party, &p.Bio,
		&committees, &p.NumTrades, &p.TotalValue, &enrichedAt); err != nil {
		return nil, fmt.Errorf("get politician %s: %w", id, err)
	}

	p.Chamber = data.Chamber(chamber)
	if committees != "" {
		p.Committees = strings.Split(committees, ",")
	}
	if enrichedAt.Valid {
		p.EnrichedAt = &enrichedAt.Time
	}

	return &p, nil
}
