package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run statuses
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one execution of a job
type Run struct {
	ID         string     `json:"id"`
	Job        string     `json:"job"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// RunRepository stores job runs in the job_runs table
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new job run repository
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Start records a run as running
func (r *RunRepository) Start(ctx context.Context, run Run) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO job_runs (id, job, status, started_at) VALUES (?, ?, ?, ?)",
		run.ID, run.Job, StatusRunning, run.StartedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record start of %s: %w", run.Job, err)
	}
	return nil
}

// Finish records the outcome of a run
func (r *RunRepository) Finish(ctx context.Context, run Run) error {
	var finishedAt sql.NullInt64
	if run.FinishedAt != nil {
		finishedAt = sql.NullInt64{Int64: run.FinishedAt.Unix(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"UPDATE job_runs SET status = ?, finished_at = ?, error = ? WHERE id = ?",
		run.Status, finishedAt, run.Error, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to record outcome of %s: %w", run.Job, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first
func (r *RunRepository) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, job, status, started_at, finished_at, error
		FROM job_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query job runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		var startedAt int64
		var finishedAt sql.NullInt64
		if err := rows.Scan(&run.ID, &run.Job, &run.Status, &startedAt, &finishedAt, &run.Error); err != nil {
			return nil, fmt.Errorf("failed to scan job run: %w", err)
		}
		run.StartedAt = time.Unix(startedAt, 0).UTC()
		if finishedAt.Valid {
			t := time.Unix(finishedAt.Int64, 0).UTC()
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
