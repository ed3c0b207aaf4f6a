// Package ledger records every processed input in SQLite so a batch can skip
// files whose content has not changed since they last completed.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	filename     TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	run_id       TEXT NOT NULL,
	status       TEXT NOT NULL,
	archetype    TEXT NOT NULL DEFAULT '',
	entries      INTEGER NOT NULL DEFAULT 0,
	output       TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	updated_at   INTEGER NOT NULL,
	PRIMARY KEY (filename, content_hash)
);
CREATE INDEX IF NOT EXISTS idx_runs_run ON runs(run_id);
`

// Record is one input's latest outcome.
type Record struct {
	Filename    string
	ContentHash string
	RunID       string
	Status      string
	Archetype   string
	Entries     int
	Output      string
	Error       string
	DurationMs  int64
	UpdatedAt   time.Time
}

// Ledger is a SQLite-backed run history.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger at path. ":memory:" gives a
// private in-memory ledger.
func Open(path string) (*Ledger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ledger dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	// One connection: the batch is sequential and ":memory:" is per-connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("ledger pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

// Lookup returns the record for filename with the given content hash.
func (l *Ledger) Lookup(ctx context.Context, filename, hash string) (Record, bool, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT filename, content_hash, run_id, status, archetype, entries, output, error, duration_ms, updated_at
		FROM runs WHERE filename = ? AND content_hash = ?`, filename, hash)

	var r Record
	var updated int64
	err := row.Scan(&r.Filename, &r.ContentHash, &r.RunID, &r.Status, &r.Archetype,
		&r.Entries, &r.Output, &r.Error, &r.DurationMs, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("ledger lookup: %w", err)
	}
	r.UpdatedAt = time.UnixMilli(updated)
	return r, true, nil
}

// Record upserts r. A zero UpdatedAt is stamped with the current time.
func (l *Ledger) Record(ctx context.Context, r Record) error {
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (filename, content_hash, run_id, status, archetype, entries, output, error, duration_ms, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename, content_hash) DO UPDATE SET
			run_id = excluded.run_id,
			status = excluded.status,
			archetype = excluded.archetype,
			entries = excluded.entries,
			output = excluded.output,
			error = excluded.error,
			duration_ms = excluded.duration_ms,
			updated_at = excluded.updated_at`,
		r.Filename, r.ContentHash, r.RunID, r.Status, r.Archetype,
		r.Entries, r.Output, r.Error, r.DurationMs, r.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("ledger record: %w", err)
	}
	return nil
}

// Counts returns the number of records per status for runID.
func (l *Ledger) Counts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM runs WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return nil, fmt.Errorf("ledger counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("ledger counts: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}
