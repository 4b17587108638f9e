package domain

import "context"

// Ledger mutates credit balances. Charge and Credit each run as a single
// isolated transaction against the account row.
type Ledger interface {
	// Charge decrements the balance by amount, failing with
	// ErrInsufficientCredits when the balance is short. Concurrent charges
	// against the same account serialize.
	Charge(ctx context.Context, subjectID string, amount int) error

	// Credit increments the balance by amount at most once per distinct
	// idempotencyKey. A repeated key is a successful no-op.
	Credit(ctx context.Context, subjectID string, amount int, idempotencyKey string) error

	// Balance returns the current balance, zero for unknown subjects.
	Balance(ctx context.Context, subjectID string) (int, error)
}

// JobRepository defines persistence for render jobs.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error

	// Get returns the job only when it belongs to ownerID; a foreign or
	// unknown id fails with ErrNotFound.
	Get(ctx context.Context, ownerID, jobID string) (*Job, error)

	// MarkDone transitions pending to done. An already-terminal job is left
	// untouched and returned as stored.
	MarkDone(ctx context.Context, jobID, artifactRef string) (*Job, error)

	// MarkFailed transitions pending to failed with the same no-op
	// semantics as MarkDone.
	MarkFailed(ctx context.Context, jobID, detail string) (*Job, error)

	// List returns the owner's jobs, most recent first, capped at limit.
	List(ctx context.Context, ownerID string, limit int) ([]Job, error)
}
