// Package cache provides persistent, table-scoped TTL caching for external
// API responses (prices, FEC lookups). Every value is stored as a JSON blob
// alongside an expiration timestamp, so cache-first adapters can check
// freshness without a second round trip, and fall back to stale data when
// the upstream call itself fails.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Table names, one per adapter this cache backs.
const (
	TableYahooPrices   = "yahoo_prices"
	TableTiingoPrices  = "tiingo_prices"
	TableFECCandidates = "fec_candidates"
	TableFECCommittees = "fec_committees"
)

// AllTables lists every table this cache manages, used by cleanup sweeps
// and to validate table names before they're interpolated into SQL.
var AllTables = []string{
	TableYahooPrices,
	TableTiingoPrices,
	TableFECCandidates,
	TableFECCommittees,
}

var validTables = func() map[string]bool {
	m := make(map[string]bool, len(AllTables))
	for _, t := range AllTables {
		m[t] = true
	}
	return m
}()

// Repository stores cached JSON blobs in a SQLite-backed keyspace, one
// logical table per external concern.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps an existing connection (typically the same *sql.DB
// as the main store, or a dedicated cache-only file).
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the cache tables if they don't already exist. Safe
// to call on every startup.
func (r *Repository) EnsureSchema() error {
	for _, t := range AllTables {
		q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			cache_key TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		)`, t)
		if _, err := r.db.Exec(q); err != nil {
			return fmt.Errorf("create cache table %s: %w", t, err)
		}
	}
	return nil
}

func validateTable(table string) error {
	if !validTables[table] {
		return fmt.Errorf("invalid cache table name: %s", table)
	}
	return nil
}

// Store upserts data under key, expiring at now+ttl.
func (r *Repository) Store(table, key string, data interface{}, ttl time.Duration) error {
	if err := validateTable(table); err != nil {
		return err
	}

	blob, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s/%s: %w", table, key, err)
	}

	expiresAt := time.Now().Add(ttl).Unix()
	q := fmt.Sprintf("INSERT OR REPLACE INTO %s (cache_key, data, expires_at) VALUES (?, ?, ?)", table)
	if _, err := r.db.Exec(q, key, string(blob), expiresAt); err != nil {
		return fmt.Errorf("store cache value %s/%s: %w", table, key, err)
	}
	return nil
}

// GetIfFresh returns the cached blob only if it has not expired.
func (r *Repository) GetIfFresh(table, key string) (json.RawMessage, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	q := fmt.Sprintf("SELECT data FROM %s WHERE cache_key = ? AND expires_at > ?", table)
	var data string
	err := r.db.QueryRow(q, key, time.Now().Unix()).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get fresh cache value %s/%s: %w", table, key, err)
	}
	return json.RawMessage(data), nil
}

// Get returns the cached blob regardless of expiry — the stale-fallback
// path used when an upstream call fails.
func (r *Repository) Get(table, key string) (json.RawMessage, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	q := fmt.Sprintf("SELECT data FROM %s WHERE cache_key = ?", table)
	var data string
	err := r.db.QueryRow(q, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cache value %s/%s: %w", table, key, err)
	}
	return json.RawMessage(data), nil
}

// DeleteExpired removes stale rows from one table, returning the count
// removed.
func (r *Repository) DeleteExpired(table string) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}

	q := fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", table)
	res, err := r.db.Exec(q, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired from %s: %w", table, err)
	}
	return res.RowsAffected()
}

// DeleteAllExpired sweeps every managed table, returning a per-table count.
func (r *Repository) DeleteAllExpired() (map[string]int64, error) {
	out := make(map[string]int64)
	for _, t := range AllTables {
		n, err := r.DeleteExpired(t)
		if err != nil {
			return out, err
		}
		out[t] = n
	}
	return out, nil
}

// TTL durations for each cached concern. Prices are cached briefly (the
// market moves); FEC identity lookups barely change and are cached for
// a week.
const (
	TTLPrice         = 6 * time.Hour
	TTLFECCandidate  = 7 * 24 * time.Hour
	TTLFECCommittee  = 7 * 24 * time.Hour
)
