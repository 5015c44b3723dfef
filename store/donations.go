package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/capitoltrack/pvintel/data"
)

// GetSyncCursor loads the (politician, committee) keyset cursor, returning
// nil if no sync has ever been attempted for the pair.
func (s *Store) GetSyncCursor(ctx context.Context, politicianID, committeeID string) (*data.SyncCursor, error) {
	const q = `
SELECT politician_id, committee_id, last_index, last_date, synced_at
FROM sync_cursors WHERE politician_id = ? AND committee_id = ?`

	row := s.db.QueryRowContext(ctx, q, politicianID, committeeID)

	var c data.SyncCursor
	var lastIndex sql.NullString
	var lastDate sql.NullTime

	err := row.Scan(&c.PoliticianID, &c.CommitteeID, &lastIndex, &lastDate, &c.SyncedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync cursor %s/%s: %w", politicianID, committeeID, err)
	}

	if lastIndex.Valid {
		c.LastIndex = &lastIndex.String
	}
	if lastDate.Valid {
		c.LastDate = &lastDate.Time
	}
	return &c, nil
}

// WriteDonationPage atomically inserts one page of contributions and
// advances the sync cursor in a single transaction, so a crash mid-page
// never leaves rows without an updated cursor (or vice versa) — the
// invariant spec §4.6.4 depends on for safe resume.
func (s *Store) WriteDonationPage(ctx context.Context, contributions []data.Contribution, cursor data.SyncCursor) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		for _, c := range contributions {
			if err := upsertContribution(ctx, tx, c); err != nil {
				return err
			}
		}
		return upsertSyncCursor(ctx, tx, cursor)
	})
}

func upsertContribution(ctx context.Context, tx *sql.Tx, c data.Contribution) error {
	const q = `
INSERT INTO contributions (committee_id, receipt_date, receipt_index, donor_name, employer,
	occupation, state, zip, cycle, amount)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(committee_id, receipt_date, receipt_index) DO UPDATE SET
	donor_name = excluded.donor_name,
	employer = excluded.employer,
	occupation = excluded.occupation,
	state = excluded.state,
	zip = excluded.zip,
	cycle = excluded.cycle,
	amount = excluded.amount`

	_, err := tx.ExecContext(ctx, q, c.CommitteeID, c.ReceiptDate, c.ReceiptIndex, c.DonorName, c.Employer,
		c.Occupation, c.State, c.Zip, c.Cycle, c.Amount)
	if err != nil {
		return fmt.Errorf("upsert contribution %s/%s: %w", c.CommitteeID, c.ReceiptIndex, err)
	}
	return nil
}

func upsertSyncCursor(ctx context.Context, tx *sql.Tx, c data.SyncCursor) error {
	const q = `
INSERT INTO sync_cursors (politician_id, committee_id, last_index, last_date, synced_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(politician_id, committee_id) DO UPDATE SET
	last_index = excluded.last_index,
	last_date = excluded.last_date,
	synced_at = excluded.synced_at`

	_, err := tx.ExecContext(ctx, q, c.PoliticianID, c.CommitteeID, c.LastIndex, c.LastDate, c.SyncedAt)
	if err != nil {
		return fmt.Errorf("upsert sync cursor %s/%s: %w", c.PoliticianID, c.CommitteeID, err)
	}
	return nil
}

// UpsertFECMapping records a politician's FEC candidate/committee
// identities. CandidateIDs and CommitteeIDs are stored comma-joined.
func (s *Store) UpsertFECMapping(ctx context.Context, m data.FECMapping, now time.Time) error {
	const q = `
INSERT INTO fec_mappings (politician_id, candidate_ids, bioguide_id, committee_ids, last_synced_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(politician_id) DO UPDATE SET
	candidate_ids = excluded.candidate_ids,
	bioguide_id = excluded.bioguide_id,
	committee_ids = excluded.committee_ids,
	last_synced_at = excluded.last_synced_at`

	_, err := s.db.ExecContext(ctx, q, m.PoliticianID, strings.Join(m.CandidateIDs, ","), m.BioguideID,
		strings.Join(m.CommitteeIDs, ","), now)
	if err != nil {
		return fmt.Errorf("upsert fec mapping %s: %w", m.PoliticianID, err)
	}
	return nil
}

// GetFECMapping loads a politician's FEC identities, or nil if none exist.
func (s *Store) GetFECMapping(ctx context.Context, politicianID string) (*data.FECMapping, error) {
	const q = `
SELECT politician_id, candidate_ids, bioguide_id, committee_ids, last_synced_at
FROM fec_mappings WHERE politician_id = ?`

	row := s.db.QueryRowContext(ctx, q, politicianID)

	var m data.FECMapping
	var candidateIDs, committeeIDs string
	var lastSynced sql.NullTime

	err := row.Scan(&m.PoliticianID, &candidateIDs, &m.BioguideID, &committeeIDs, &lastSynced)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get fec mapping %s: %w", politicianID, err)
	}

	if candidateIDs != "" {
		m.CandidateIDs = strings.Split(candidateIDs, ",")
	}
	if committeeIDs != "" {
		m.CommitteeIDs = strings.Split(committeeIDs, ",")
	}
	if lastSynced.Valid {
		m.LastSyncedAt = &lastSynced.Time
	}
	return &m, nil
}

// GetFECCommittee loads a committee's classification inputs by id, or nil
// if it has never been fetched from the FEC API.
func (s *Store) GetFECCommittee(ctx context.Context, committeeID string) (*data.FECCommittee, error) {
	const q = `
SELECT id, name, type_code, designation_code, party, state, active_cycles
FROM fec_committees WHERE id = ?`

	row := s.db.QueryRowContext(ctx, q, committeeID)

	var c data.FECCommittee
	var cycles string
	err := row.Scan(&c.ID, &c.Name, &c.TypeCode, &c.DesignationCode, &c.Party, &c.State, &cycles)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get fec committee %s: %w", committeeID, err)
	}

	if cycles != "" {
		for _, s := range strings.Split(cycles, ",") {
			var y int
			if _, err := fmt.Sscanf(s, "%d", &y); err == nil {
				c.ActiveCycles = append(c.ActiveCycles, y)
			}
		}
	}
	return &c, nil
}

// UpsertFECCommittee records a campaign-finance committee's identity and
// classification inputs.
func (s *Store) UpsertFECCommittee(ctx context.Context, c data.FECCommittee) error {
	cycles := make([]string, len(c.ActiveCycles))
	for i, y := range c.ActiveCycles {
		cycles[i] = fmt.Sprintf("%d", y)
	}

	const q = `
INSERT INTO fec_committees (id, name, type_code, designation_code, party, state, active_cycles)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	type_code = excluded.type_code,
	designation_code = excluded.designation_code,
	party = excluded.party,
	state = excluded.state,
	active_cycles = excluded.active_cycles`

	_, err := s.db.ExecContext(ctx, q, c.ID, c.Name, c.TypeCode, c.DesignationCode, c.Party, c.State,
		strings.Join(cycles, ","))
	if err != nil {
		return fmt.Errorf("upsert fec committee %s: %w", c.ID, err)
	}
	return nil
}
