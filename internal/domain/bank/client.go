package bank

import (
	"context"
	"time"
)

// Client fetches transactions from an upstream bank API. The OAuth/token
// plumbing behind it lives with the provider integration, not here.
type Client interface {
	// FetchTransactions returns the account's transactions in [from, to].
	FetchTransactions(ctx context.Context, conn *Connection, from, to time.Time) ([]ProviderTransaction, error)
}
