package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const createFindingsTableSQL = `
	CREATE TABLE IF NOT EXISTS findings (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"run_id" TEXT NOT NULL,
		"item_id" TEXT NOT NULL,
		"uaid" TEXT NOT NULL,
		"username" TEXT NOT NULL,
		"profile_url" TEXT NOT NULL,
		"avatar_url" TEXT NOT NULL DEFAULT '',
		"found_at" TEXT NOT NULL
	);`

const createFindingsIndexSQL = `CREATE INDEX IF NOT EXISTS idx_findings_found_at_desc ON findings (found_at DESC);`

// Ledger keeps an audit trail of notified owners. It is write-mostly and is
// never consulted to skip work.
type Ledger interface {
	Record(ctx context.Context, runID string, f Finding) error
	List(ctx context.Context, limit int) ([]Finding, error)
	Close() error
}

type sqliteLedger struct {
	db *sql.DB
}

// openLedger opens (creating if needed) the findings table at filepath.
func openLedger(filepath string) (*sqliteLedger, error) {
	db, err := sql.Open("sqlite3", filepath)
	if err != nil {
		return nil, err
	}
	// One connection so ":memory:" databases stay a single database.
	db.SetMaxOpenConns(1)

	for i, query := range []string{createFindingsTableSQL, createFindingsIndexSQL} {
		if _, err := db.Exec(query); err != nil {
			db.Close()
			return nil, fmt.Errorf("could not run schema statement #%d: %w", i, err)
		}
	}
	return &sqliteLedger{db: db}, nil
}

func (l *sqliteLedger) Record(ctx context.Context, runID string, f Finding) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO findings (run_id, item_id, uaid, username, profile_url, avatar_url, found_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, f.ItemID, f.Identifier, f.Username, f.ProfileURL, f.AvatarURL, f.FoundAt)
	if err != nil {
		return fmt.Errorf("insert finding: %w", err)
	}
	return nil
}

// List returns the most recent findings first.
func (l *sqliteLedger) List(ctx context.Context, limit int) ([]Finding, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT item_id, uaid, username, profile_url, avatar_url, found_at FROM findings ORDER BY found_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	out := []Finding{}
	for rows.Next() {
		var f Finding
		if err := rows.Scan(&f.ItemID, &f.Identifier, &f.Username, &f.ProfileURL, &f.AvatarURL, &f.FoundAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (l *sqliteLedger) Close() error { return l.db.Close() }

// noLedger is used when no ledger path is configured.
type noLedger struct{}

func (noLedger) Record(context.Context, string, Finding) error { return nil }
func (noLedger) List(context.Context, int) ([]Finding, error)  { return []Finding{}, nil }
func (noLedger) Close() error                                  { return nil }
