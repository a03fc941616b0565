// Package ledger owns the persisted transaction ledger: import batches,
// bank rows with content hashes, and manual entries.
package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Transaction sources.
const (
	SourceBank   = "bank"
	SourceManual = "manual"
)

// Batch statuses.
const (
	BatchStatusCompleted = "completed"
	BatchStatusFailed    = "failed"
)

var (
	// ErrBatchNotFound is returned when a batch id does not exist for the user.
	ErrBatchNotFound = errors.New("import batch not found")
)

// Batch is one statement import. Rows created by the import reference it
// and are removed with it.
type Batch struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	SourceFileName   string    `json:"source_file_name"`
	ImportedAt       time.Time `json:"imported_at"`
	CandidateCount   int       `json:"candidate_count"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	Currency         string    `json:"currency"`
	Status           string    `json:"status"`
}

// Transaction is a single ledger row. Bank rows carry an identity hash
// and a batch reference; manual rows carry neither.
type Transaction struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	BatchID      *uuid.UUID `json:"batch_id,omitempty"`
	OccurredOn   time.Time  `json:"occurred_on"`
	AmountCents  int64      `json:"amount_cents"`
	Currency     string     `json:"currency"`
	Description  string     `json:"description"`
	MerchantName string     `json:"merchant_name,omitempty"`
	Category     string     `json:"category"`
	Source       string     `json:"source"`
	Identity     *string    `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

// MergeResult reports what happened to each candidate during a merge.
type MergeResult struct {
	Imported                int
	DuplicatesSkipped       int
	ManualDuplicatesSkipped int
	TotalAmountCents        int64
	LastTransactionDate     *time.Time
}
