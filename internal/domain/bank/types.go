// Package bank links external bank accounts and periodically pulls their
// transactions through the same import pipeline as file uploads.
package bank

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Connection statuses.
const (
	StatusActive       = "active"
	StatusDisconnected = "disconnected"
)

var ErrConnectionNotFound = errors.New("bank connection not found")

// Connection is one linked external bank account. LastSyncedAt is the
// watermark the periodic driver resumes from; nil means never synced.
type Connection struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	Provider          string     `json:"provider"`
	ExternalAccountID string     `json:"external_account_id"`
	Status            string     `json:"status"`
	LastSyncedAt      *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ProviderTransaction is one row as the upstream bank API reports it,
// before it becomes an import candidate.
type ProviderTransaction struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
}
