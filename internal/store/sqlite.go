package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bft-labs/xferbench/internal/domain"
	"github.com/bft-labs/xferbench/pkg/log"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	id       INTEGER PRIMARY KEY,
	name     TEXT NOT NULL,
	category TEXT NOT NULL,
	payload  TEXT NOT NULL,
	checksum TEXT NOT NULL,
	origin   TEXT NOT NULL
);
`

// SQLite implements Store on a single SQLite database file.
type SQLite struct {
	db     *sqlx.DB
	logger log.Logger
}

// OpenSQLite opens (or creates) a SQLite-backed store at path and
// initializes the schema.
func OpenSQLite(path string, logger log.Logger) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer connection avoids "database is locked" errors when the
	// receiver saves concurrently.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logger.Info("sqlite store opened", log.String("path", path))

	return &SQLite{db: db, logger: logger}, nil
}

// Page returns up to limit records with ID greater than afterID in
// ascending ID order.
func (s *SQLite) Page(ctx context.Context, afterID int64, limit int) ([]domain.Record, error) {
	recs := []domain.Record{}
	const q = `SELECT id, name, category, payload, checksum, origin
		FROM records WHERE id > ? ORDER BY id LIMIT ?`
	if err := s.db.SelectContext(ctx, &recs, q, afterID, limit); err != nil {
		return nil, fmt.Errorf("page records after id %d: %w", afterID, err)
	}
	return recs, nil
}

// Save persists one record, overwriting any prior row with the same ID.
func (s *SQLite) Save(ctx context.Context, rec domain.Record) error {
	const q = `INSERT OR REPLACE INTO records (id, name, category, payload, checksum, origin)
		VALUES (:id, :name, :category, :payload, :checksum, :origin)`
	if _, err := s.db.NamedExecContext(ctx, q, rec); err != nil {
		return fmt.Errorf("save record %d: %w", rec.ID, err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *SQLite) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM records`); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Truncate removes every record. Used by the seeder before regenerating
// a dataset.
func (s *SQLite) Truncate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("truncate records: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
