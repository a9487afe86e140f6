// Package history persists collection run outcomes so past runs can be
// inspected after the fact.
package history

import (
	"database/sql"
	"time"

	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/snapshot"
)

// Run is one recorded collection run
type Run struct {
	ID         string
	Dataset    string
	SnapshotID string
	Status     string
	Records    int
	OutputFile string
	Error      string
	ElapsedMS  int64
	StartedAt  time.Time
	FinishedAt time.Time
}

// Succeeded reports whether the run reached the success status
func (r *Run) Succeeded() bool {
	return snapshot.Status(r.Status).Succeeded()
}

// FromResult converts an orchestrator result into a history record.
// runErr, when non-nil, is stored as the run's error message.
func FromResult(res *snapshot.RunResult, runErr error) *Run {
	run := &Run{
		ID:         res.ID,
		Dataset:    res.Dataset,
		SnapshotID: res.SnapshotID,
		Status:     string(res.Status),
		Records:    res.Records,
		OutputFile: res.OutputFile,
		ElapsedMS:  res.Elapsed.Milliseconds(),
		StartedAt:  res.StartedAt,
		FinishedAt: res.StartedAt.Add(res.Elapsed),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	return run
}

// Store handles persistence of collection runs
type Store struct {
	db *sql.DB
}

// NewStore creates a new run store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// RecordRun inserts a finished run
func (s *Store) RecordRun(run *Run) error {
	query := `
		INSERT INTO collection_runs (
			id, dataset, snapshot_id, status,
			records, output_file, error, elapsed_ms,
			started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	snapshotID := sql.NullString{String: run.SnapshotID, Valid: run.SnapshotID != ""}
	errMsg := sql.NullString{String: run.Error, Valid: run.Error != ""}
	outputFile := sql.NullString{String: run.OutputFile, Valid: run.OutputFile != ""}

	_, err := s.db.Exec(query,
		run.ID,
		run.Dataset,
		snapshotID,
		run.Status,
		run.Records,
		outputFile,
		errMsg,
		run.ElapsedMS,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to record run")
	}
	return nil
}

const runSelectColumns = `
	id, dataset, snapshot_id, status,
	records, output_file, error, elapsed_ms,
	started_at, finished_at
`

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var run Run
	var snapshotID, errMsg, outputFile sql.NullString

	err := row.Scan(
		&run.ID,
		&run.Dataset,
		&snapshotID,
		&run.Status,
		&run.Records,
		&outputFile,
		&errMsg,
		&run.ElapsedMS,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	run.SnapshotID = snapshotID.String
	run.Error = errMsg.String
	run.OutputFile = outputFile.String
	return &run, nil
}

// GetRun retrieves a run by ID
func (s *Store) GetRun(id string) (*Run, error) {
	query := `SELECT ` + runSelectColumns + ` FROM collection_runs WHERE id = ?`

	run, err := scanRun(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrNotFound, "run %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get run")
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means all.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `SELECT ` + runSelectColumns + ` FROM collection_runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate runs")
	}
	return runs, nil
}

// ListRunsForDataset returns the most recent runs for one dataset
func (s *Store) ListRunsForDataset(dataset string, limit int) ([]*Run, error) {
	query := `SELECT ` + runSelectColumns + ` FROM collection_runs WHERE dataset = ? ORDER BY started_at DESC`
	args := []any{dataset}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate runs")
	}
	return runs, nil
}
