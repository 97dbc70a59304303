package config

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hazyhaar/paritycheck/dbopen"
	"github.com/hazyhaar/paritycheck/parity/feature"
)

// Schema for the parity_targets table: named target pairs kept next to the
// run history so a scheduler can compare them without a config file.
const Schema = `
CREATE TABLE IF NOT EXISTS parity_targets (
	pair       TEXT NOT NULL,
	position   INTEGER NOT NULL CHECK (position IN (0, 1)),
	name       TEXT NOT NULL,
	url        TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (pair, position)
);
`

// SaveTargets stores the two targets of pair, replacing any previous ones.
// Both targets are validated first and written in one transaction, so a
// pair is never left half updated.
func SaveTargets(ctx context.Context, db *sql.DB, pair string, left, right feature.Target, now int64) error {
	targets := []feature.Target{left, right}
	for _, t := range targets {
		if err := ValidateTarget(t); err != nil {
			return err
		}
	}
	return dbopen.RunTx(ctx, db, func(tx *sql.Tx) error {
		for i, t := range targets {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO parity_targets (pair, position, name, url, updated_at)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(pair, position) DO UPDATE SET
					name = excluded.name, url = excluded.url, updated_at = excluded.updated_at
			`, pair, i, t.Name, t.URL, now); err != nil {
				return fmt.Errorf("config: save targets %s: %w", pair, err)
			}
		}
		return nil
	})
}

// LoadTargets reads the two targets of pair, left first.
func LoadTargets(ctx context.Context, db *sql.DB, pair string) ([]feature.Target, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, url FROM parity_targets
		WHERE pair = ?
		ORDER BY position
	`, pair)
	if err != nil {
		return nil, fmt.Errorf("config: load targets %s: %w", pair, err)
	}
	defer rows.Close()

	var out []feature.Target
	for rows.Next() {
		var t feature.Target
		if err := rows.Scan(&t.Name, &t.URL); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) != 2 {
		return nil, fmt.Errorf("config: pair %q has %d targets", pair, len(out))
	}
	return out, nil
}
