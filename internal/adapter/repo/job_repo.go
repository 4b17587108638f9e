package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clipcast/internal/domain"
)

const jobColumns = `id, owner_id, prompt, aspect_ratio, duration_seconds, operation_ref, status, COALESCE(artifact_ref, ''), COALESCE(failure_detail, ''), created_at, completed_at`

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// Create inserts a new job record in the pending state.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	query := `
INSERT INTO jobs (id, owner_id, prompt, aspect_ratio, duration_seconds, operation_ref, status)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.OwnerID,
		job.Prompt,
		job.Params.AspectRatio,
		job.Params.DurationSeconds,
		job.OperationRef,
		job.Status,
	)
	if err != nil {
		return fmt.Errorf("jobs: create: %w", err)
	}
	return nil
}

// Get fetches a job scoped to its owner. A job owned by another account is
// indistinguishable from a missing one.
func (r *JobRepositoryPG) Get(ctx context.Context, ownerID, jobID string) (*domain.Job, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND owner_id = $2`, jobID, ownerID)
	return scanJob(row)
}

// MarkDone transitions a pending job to done. Terminal jobs are left as they
// are; the stored row is returned either way so callers can observe the
// current state.
func (r *JobRepositoryPG) MarkDone(ctx context.Context, jobID, artifactRef string) (*domain.Job, error) {
	if _, err := r.pool.Exec(ctx, `
UPDATE jobs
SET status = $2,
    artifact_ref = $3,
    completed_at = NOW()
WHERE id = $1 AND status = $4;
`, jobID, domain.JobStatusDone, artifactRef, domain.JobStatusPending); err != nil {
		return nil, fmt.Errorf("jobs: mark done: %w", err)
	}
	return r.getByID(ctx, jobID)
}

// MarkFailed transitions a pending job to failed, recording the detail.
func (r *JobRepositoryPG) MarkFailed(ctx context.Context, jobID, detail string) (*domain.Job, error) {
	if _, err := r.pool.Exec(ctx, `
UPDATE jobs
SET status = $2,
    failure_detail = $3,
    completed_at = NOW()
WHERE id = $1 AND status = $4;
`, jobID, domain.JobStatusFailed, detail, domain.JobStatusPending); err != nil {
		return nil, fmt.Errorf("jobs: mark failed: %w", err)
	}
	return r.getByID(ctx, jobID)
}

// List returns the owner's jobs, most recent first.
func (r *JobRepositoryPG) List(ctx context.Context, ownerID string, limit int) ([]domain.Job, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("jobs: list: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (r *JobRepositoryPG) getByID(ctx context.Context, jobID string) (*domain.Job, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID)
	return scanJob(row)
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.OwnerID,
		&job.Prompt,
		&job.Params.AspectRatio,
		&job.Params.DurationSeconds,
		&job.OperationRef,
		&job.Status,
		&job.ArtifactRef,
		&job.FailureDetail,
		&job.CreatedAt,
		&job.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
