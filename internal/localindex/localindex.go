// Package localindex records every PR this tool has ever opened a review
// session against, so "octoreview history" can list past reviews without
// re-hitting the forge.
package localindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one row of review history: the last time this tool looked at a
// given PR, and what the rally (if any) last concluded.
type Entry struct {
	Forge      string
	Repo       string
	PRNumber   int
	PRTitle    string
	LastVerdict string
	ReviewedAt time.Time
}

// Store is a sqlite-backed append/upsert log of reviewed PRs.
type Store struct {
	db *sql.DB
}

// Open creates the database file (and its parent directory) if absent, and
// bootstraps the single `reviewed_prs` table. There is no migration runner:
// one table needs no versioning yet.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("localindex: create dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("localindex: open: %w", err)
	}
	// A single writer at a time is plenty for a one-user TUI, and avoids
	// "database is locked" errors under modernc's driver.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("localindex: enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("localindex: set busy_timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS reviewed_prs (
		forge        TEXT NOT NULL,
		repo         TEXT NOT NULL,
		pr_number    INTEGER NOT NULL,
		pr_title     TEXT NOT NULL DEFAULT '',
		last_verdict TEXT NOT NULL DEFAULT '',
		reviewed_at  DATETIME NOT NULL,
		PRIMARY KEY (forge, repo, pr_number)
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("localindex: create table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// Record upserts the review history row for one PR, bumping ReviewedAt to
// now and overwriting the title/verdict with the latest known values.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ReviewedAt.IsZero() {
		return fmt.Errorf("localindex: record %s/%s#%d: reviewed_at is zero", e.Forge, e.Repo, e.PRNumber)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviewed_prs (forge, repo, pr_number, pr_title, last_verdict, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (forge, repo, pr_number) DO UPDATE SET
			pr_title = excluded.pr_title,
			last_verdict = excluded.last_verdict,
			reviewed_at = excluded.reviewed_at
	`, e.Forge, e.Repo, e.PRNumber, e.PRTitle, e.LastVerdict, e.ReviewedAt.UTC())
	if err != nil {
		return fmt.Errorf("localindex: record %s/%s#%d: %w", e.Forge, e.Repo, e.PRNumber, err)
	}
	return nil
}

// List returns every recorded entry, most recently reviewed first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT forge, repo, pr_number, pr_title, last_verdict, reviewed_at
		FROM reviewed_prs
		ORDER BY reviewed_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("localindex: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Forge, &e.Repo, &e.PRNumber, &e.PRTitle, &e.LastVerdict, &e.ReviewedAt); err != nil {
			return nil, fmt.Errorf("localindex: scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("localindex: list: %w", err)
	}
	return out, nil
}

// Get returns the single recorded entry for (forge, repo, number), or
// sql.ErrNoRows wrapped if it was never reviewed.
func (s *Store) Get(ctx context.Context, forge, repo string, number int) (Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx, `
		SELECT forge, repo, pr_number, pr_title, last_verdict, reviewed_at
		FROM reviewed_prs
		WHERE forge = ? AND repo = ? AND pr_number = ?
	`, forge, repo, number).Scan(&e.Forge, &e.Repo, &e.PRNumber, &e.PRTitle, &e.LastVerdict, &e.ReviewedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("localindex: get %s/%s#%d: %w", forge, repo, number, err)
	}
	return e, nil
}
