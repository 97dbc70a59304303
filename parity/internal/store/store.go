// Package store keeps the history of comparison runs in SQLite: one row per
// run with summary columns for listing and the full run as JSON.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/paritycheck/dbopen"
	"github.com/hazyhaar/paritycheck/parity/feature"
)

// Schema for the parity_runs table.
const Schema = `
CREATE TABLE IF NOT EXISTS parity_runs (
	id              TEXT PRIMARY KEY,
	started_at      INTEGER NOT NULL,
	duration_ms     INTEGER NOT NULL,
	left_name       TEXT NOT NULL,
	left_url        TEXT NOT NULL,
	right_name      TEXT NOT NULL,
	right_url       TEXT NOT NULL,
	both_accessible INTEGER NOT NULL,
	differences     INTEGER NOT NULL,
	high            INTEGER NOT NULL,
	recommendations INTEGER NOT NULL,
	body            TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_parity_runs_started ON parity_runs(started_at DESC);
`

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("store: run not found")

// Summary is the listing view of a run.
type Summary struct {
	ID              string         `json:"id"`
	StartedAt       time.Time      `json:"started_at"`
	Duration        time.Duration  `json:"duration"`
	Left            feature.Target `json:"left"`
	Right           feature.Target `json:"right"`
	BothAccessible  bool           `json:"both_accessible"`
	Differences     int            `json:"differences"`
	High            int            `json:"high"`
	Recommendations int            `json:"recommendations"`
}

// Store persists runs.
type Store struct {
	db *sql.DB
}

// New wraps db. The caller must have applied Schema.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Save inserts run, replacing an earlier row with the same ID.
func (s *Store) Save(ctx context.Context, run *feature.Run) error {
	body, err := feature.MarshalRun(run)
	if err != nil {
		return fmt.Errorf("store: marshal run %s: %w", run.ID, err)
	}
	high := 0
	for _, r := range run.Recommendations {
		if r.Priority == feature.PriorityHigh {
			high++
		}
	}
	return dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO parity_runs
				(id, started_at, duration_ms, left_name, left_url, right_name, right_url,
				 both_accessible, differences, high, recommendations, body)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, run.StartedAt.UnixMilli(), run.Duration.Milliseconds(),
			run.Left.Target.Name, run.Left.Target.URL,
			run.Right.Target.Name, run.Right.Target.URL,
			boolInt(run.Report.BothAccessible), len(run.Report.Differences()),
			high, len(run.Recommendations), string(body))
		if err != nil {
			return fmt.Errorf("store: save run %s: %w", run.ID, err)
		}
		return nil
	})
}

// Get loads the full run.
func (s *Store) Get(ctx context.Context, id string) (*feature.Run, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM parity_runs WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get run %s: %w", id, err)
	}
	run, err := feature.UnmarshalRun([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("store: decode run %s: %w", id, err)
	}
	return run, nil
}

// List returns up to limit summaries, newest first. limit <= 0 means 50.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, left_name, left_url, right_name, right_url,
		       both_accessible, differences, high, recommendations
		FROM parity_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		var startedMs, durMs int64
		var both int
		if err := rows.Scan(&sm.ID, &startedMs, &durMs,
			&sm.Left.Name, &sm.Left.URL, &sm.Right.Name, &sm.Right.URL,
			&both, &sm.Differences, &sm.High, &sm.Recommendations); err != nil {
			return nil, err
		}
		sm.StartedAt = time.UnixMilli(startedMs).UTC()
		sm.Duration = time.Duration(durMs) * time.Millisecond
		sm.BothAccessible = both != 0
		out = append(out, sm)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
