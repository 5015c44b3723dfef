// Package store implements the embedded relational persistence layer:
// schema creation, additive migrations, sentinel-aware upserts, and the
// read-side query surface consumed by the enrichment pipelines and metric
// engines.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps a single-file embedded database connection.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to (creating if absent) the database file at path,
// configures WAL + synchronous=normal per spec §4.1, and applies any
// pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	connStr, err := connectionString(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	// The pool is not capped at one connection: the enrichment writers
	// read rows through the Store (GetTrade, GetIssuer) while a WithTx
	// transaction holds a connection, and with a single connection those
	// reads would wait forever. WAL lets readers run beside the open write
	// transaction, and busy_timeout makes a second writer wait for the
	// write lock instead of failing at once.
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping store %s: %w", path, err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate store %s: %w", path, err)
	}

	return s, nil
}

func connectionString(path string) (string, error) {
	if strings.HasPrefix(path, "file:") {
		return path, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve store path: %w", err)
	}

	connStr := abs +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)"
	return connStr, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying *sql.DB for packages that need raw access
// (migrations, tests).
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func (s *Store) WithTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
			return
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}
		err = tx.Commit()
	}()

	err = fn(tx)
	return err
}
