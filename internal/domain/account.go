package domain

import "time"

// Account tracks the credit balance for one identity-provider subject.
// Accounts are created implicitly on first ledger access and never deleted.
type Account struct {
	SubjectID string
	Credits   int
	CreatedAt time.Time
	UpdatedAt time.Time
}
