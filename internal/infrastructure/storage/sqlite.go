// Package storage persists comparison run history in SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for comparison runs.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS comparison_runs (
	id TEXT PRIMARY KEY,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL,
	duration_ms INTEGER NOT NULL,
	source_labels_json TEXT NOT NULL,
	target_labels_json TEXT NOT NULL,
	source_rows INTEGER NOT NULL,
	target_rows INTEGER NOT NULL,
	result_rows INTEGER NOT NULL,
	status_counts_json TEXT NOT NULL,
	tolerance_net_amount REAL NOT NULL,
	tolerance_price REAL NOT NULL,
	warning_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON comparison_runs(started_at);
`

// NewStorage creates a new storage instance backed by a SQLite database.
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRun stores one finished comparison run.
func (s *Storage) SaveRun(run *Run) error {
	sourceJSON, _ := json.Marshal(run.SourceLabels)
	targetJSON, _ := json.Marshal(run.TargetLabels)
	countsJSON, _ := json.Marshal(run.StatusCounts)

	query := `
	INSERT OR REPLACE INTO comparison_runs
	(id, started_at, finished_at, duration_ms,
	 source_labels_json, target_labels_json,
	 source_rows, target_rows, result_rows,
	 status_counts_json, tolerance_net_amount, tolerance_price, warning_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		run.ID,
		run.StartedAt,
		run.FinishedAt,
		run.DurationMS,
		string(sourceJSON),
		string(targetJSON),
		run.SourceRows,
		run.TargetRows,
		run.ResultRows,
		string(countsJSON),
		run.ToleranceNetAmount,
		run.TolerancePrice,
		run.WarningCount,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun retrieves one run by ID. Returns nil when not found.
func (s *Storage) GetRun(id string) (*Run, error) {
	query := `
	SELECT id, started_at, finished_at, duration_ms,
	       source_labels_json, target_labels_json,
	       source_rows, target_rows, result_rows,
	       status_counts_json, tolerance_net_amount, tolerance_price, warning_count
	FROM comparison_runs WHERE id = ?
	`
	run, err := scanRun(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Storage) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
	SELECT id, started_at, finished_at, duration_ms,
	       source_labels_json, target_labels_json,
	       source_rows, target_rows, result_rows,
	       status_counts_json, tolerance_net_amount, tolerance_price, warning_count
	FROM comparison_runs ORDER BY started_at DESC LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetStats returns aggregate history statistics.
func (s *Storage) GetStats() (*Stats, error) {
	stats := &Stats{}
	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(result_rows), 0)
		FROM comparison_runs
	`).Scan(&stats.TotalRuns, &stats.TotalResultRow)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	var lastRun time.Time
	err = s.db.QueryRow(`
		SELECT started_at FROM comparison_runs ORDER BY started_at DESC LIMIT 1
	`).Scan(&lastRun)
	if err == nil {
		stats.LastRunAt = &lastRun
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (*Run, error) {
	var run Run
	var startedAt, finishedAt time.Time
	var sourceJSON, targetJSON, countsJSON string

	err := sc.Scan(
		&run.ID,
		&startedAt,
		&finishedAt,
		&run.DurationMS,
		&sourceJSON,
		&targetJSON,
		&run.SourceRows,
		&run.TargetRows,
		&run.ResultRows,
		&countsJSON,
		&run.ToleranceNetAmount,
		&run.TolerancePrice,
		&run.WarningCount,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt = startedAt
	run.FinishedAt = finishedAt
	_ = json.Unmarshal([]byte(sourceJSON), &run.SourceLabels)
	_ = json.Unmarshal([]byte(targetJSON), &run.TargetLabels)
	_ = json.Unmarshal([]byte(countsJSON), &run.StatusCounts)
	return &run, nil
}
