// Package store persists the deduplicated record stream to SQLite and
// serves the read side of the HTTP API.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the single-writer SQLite pool.
type DB struct {
	Pool *sql.DB
}

// Open connects to the database at path, creating the file when missing.
// modernc sqlite takes pragmas on the DSN; busy_timeout keeps readers from
// erroring while the writer holds the file.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pool.SetMaxOpenConns(1) // sqlite wants a single writer
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &DB{Pool: pool}, nil
}

func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}

// Migrate brings the schema up to the current version. Versioning rides on
// PRAGMA user_version so reruns are no-ops.
func (d *DB) Migrate() error {
	tx, err := d.Pool.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS records (
  dedup_group_id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  url TEXT NOT NULL DEFAULT '',
  work_mode TEXT NOT NULL DEFAULT '',
  sources TEXT NOT NULL DEFAULT '[]',
  source_urls TEXT NOT NULL DEFAULT '[]',
  posted_at TEXT,
  scraped_at TEXT NOT NULL,
  stage1_score REAL NOT NULL DEFAULT 0,
  stage1_skills TEXT NOT NULL DEFAULT '[]',
  stage1_experience TEXT NOT NULL DEFAULT 'unknown',
  stage2_score REAL,
  stage2_confidence REAL,
  final_status TEXT NOT NULL,
  reject_reason TEXT NOT NULL DEFAULT '',
  first_seen_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_records_scraped_at ON records(scraped_at);
`); err != nil {
		return err
	}
	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_records_status ON records(final_status);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}
