package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clipcast/internal/domain"
)

// LedgerPG implements domain.Ledger backed by PostgreSQL. Every balance
// mutation runs inside a transaction that locks the account row, so
// concurrent charges serialize instead of racing on a stale read.
type LedgerPG struct {
	pool *pgxpool.Pool
}

// NewLedger creates a new ledger repository backed by PostgreSQL.
func NewLedger(pool *pgxpool.Pool) *LedgerPG {
	return &LedgerPG{pool: pool}
}

// Charge atomically deducts amount from the subject's balance. The account
// row is created on first access with a zero balance.
func (r *LedgerPG) Charge(ctx context.Context, subjectID string, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("ledger: charge amount must be positive, got %d", amount)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ledger: begin charge: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
INSERT INTO accounts (subject_id, credits)
VALUES ($1, 0)
ON CONFLICT (subject_id) DO NOTHING;
`, subjectID); err != nil {
		return fmt.Errorf("ledger: ensure account: %w", err)
	}

	var credits int
	row := tx.QueryRow(ctx, `SELECT credits FROM accounts WHERE subject_id = $1 FOR UPDATE`, subjectID)
	if err := row.Scan(&credits); err != nil {
		return fmt.Errorf("ledger: read balance: %w", err)
	}

	if credits < amount {
		return domain.ErrInsufficientCredits
	}

	if _, err := tx.Exec(ctx, `
UPDATE accounts
SET credits = credits - $2,
    updated_at = NOW()
WHERE subject_id = $1;
`, subjectID, amount); err != nil {
		return fmt.Errorf("ledger: deduct: %w", err)
	}

	return tx.Commit(ctx)
}

// Credit grants amount to the subject at most once per idempotencyKey. A key
// that was already processed commits without touching the balance.
func (r *LedgerPG) Credit(ctx context.Context, subjectID string, amount int, idempotencyKey string) error {
	if amount <= 0 {
		return fmt.Errorf("ledger: credit amount must be positive, got %d", amount)
	}
	if idempotencyKey == "" {
		return fmt.Errorf("ledger: idempotency key is required")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ledger: begin credit: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
INSERT INTO payment_events (event_id, subject_id, credits_granted)
VALUES ($1, $2, $3)
ON CONFLICT (event_id) DO NOTHING;
`, idempotencyKey, subjectID, amount)
	if err != nil {
		return fmt.Errorf("ledger: record event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Key already processed; acknowledge without re-crediting.
		return tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO accounts (subject_id, credits)
VALUES ($1, $2)
ON CONFLICT (subject_id) DO UPDATE
SET credits = accounts.credits + EXCLUDED.credits,
    updated_at = NOW();
`, subjectID, amount); err != nil {
		return fmt.Errorf("ledger: apply credit: %w", err)
	}

	return tx.Commit(ctx)
}

// Balance returns the subject's current balance, zero when no account row exists.
func (r *LedgerPG) Balance(ctx context.Context, subjectID string) (int, error) {
	var credits int
	row := r.pool.QueryRow(ctx, `SELECT credits FROM accounts WHERE subject_id = $1`, subjectID)
	if err := row.Scan(&credits); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("ledger: read balance: %w", err)
	}
	return credits, nil
}

var _ domain.Ledger = (*LedgerPG)(nil)
