package run

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ArchiveRow is the persisted summary of a finished run.
type ArchiveRow struct {
	RunID      string
	Tier       int
	Seed       int64
	Outcome    Outcome
	LootCount  int
	Credits    int
	HexesMoved int
	Detection  float64
	StartedAt  time.Time
	EndedAt    time.Time
}

// Archive persists finished-run summaries to sqlite.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (and initializes) the archive database at path.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		tier INTEGER,
		seed INTEGER,
		outcome TEXT,
		loot_count INTEGER,
		credits INTEGER,
		hexes_moved INTEGER,
		detection REAL,
		started_at TIMESTAMP,
		ended_at TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Archive{db: db}, nil
}

// Record inserts or replaces a finished-run row.
func (a *Archive) Record(row ArchiveRow) error {
	query := `
	INSERT INTO runs (run_id, tier, seed, outcome, loot_count, credits, hexes_moved, detection, started_at, ended_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		outcome = excluded.outcome,
		loot_count = excluded.loot_count,
		credits = excluded.credits,
		hexes_moved = excluded.hexes_moved,
		detection = excluded.detection,
		ended_at = excluded.ended_at;
	`
	_, err := a.db.Exec(query,
		row.RunID, row.Tier, row.Seed, string(row.Outcome),
		row.LootCount, row.Credits, row.HexesMoved, row.Detection,
		row.StartedAt, row.EndedAt)
	if err != nil {
		return fmt.Errorf("record run %s: %w", row.RunID, err)
	}
	return nil
}

// Recent returns the most recent finished runs, newest first.
func (a *Archive) Recent(limit int) ([]ArchiveRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := a.db.Query(`
		SELECT run_id, tier, seed, outcome, loot_count, credits, hexes_moved, detection, started_at, ended_at
		FROM runs ORDER BY ended_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []ArchiveRow
	for rows.Next() {
		var r ArchiveRow
		var outcome string
		if err := rows.Scan(&r.RunID, &r.Tier, &r.Seed, &outcome, &r.LootCount,
			&r.Credits, &r.HexesMoved, &r.Detection, &r.StartedAt, &r.EndedAt); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		r.Outcome = Outcome(outcome)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}
