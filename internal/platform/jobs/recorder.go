package jobs

import (
	"context"

	"hrms/internal/platform/querier"
)

// RunRecorder keeps an audit trail of job runs.
type RunRecorder interface {
	Start(ctx context.Context, jobType string) (string, error)
	Finish(ctx context.Context, runID, status string, details []byte) error
}

// NoopRecorder discards run history; used with the in-memory store.
type NoopRecorder struct{}

func (NoopRecorder) Start(context.Context, string) (string, error) { return "", nil }

func (NoopRecorder) Finish(context.Context, string, string, []byte) error { return nil }

// PGRecorder writes runs to the job_runs table.
type PGRecorder struct {
	DB querier.Querier
}

func (r PGRecorder) Start(ctx context.Context, jobType string) (string, error) {
	var runID string
	err := r.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id::text
  `, jobType, StatusRunning).Scan(&runID)
	return runID, err
}

func (r PGRecorder) Finish(ctx context.Context, runID, status string, details []byte) error {
	_, err := r.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id::text = $3
  `, status, details, runID)
	return err
}
