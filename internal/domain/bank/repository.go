package bank

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the slice of pgx the repository needs. Both *pgxpool.Pool and the
// pgxmock pool satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles database access for bank connections.
type Repository struct {
	db DB
}

// NewRepository creates a bank connection repository.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// CreateConnection links a new external account for a user.
func (r *Repository) CreateConnection(ctx context.Context, conn *Connection) error {
	query := `
		INSERT INTO bank_connections (id, user_id, provider, external_account_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	if conn.Status == "" {
		conn.Status = StatusActive
	}
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, query,
		conn.ID, conn.UserID, conn.Provider, conn.ExternalAccountID, conn.Status, conn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create bank connection: %w", err)
	}
	return nil
}

// ListActiveConnections returns every connection the periodic sync should
// visit, oldest first so long-linked accounts are not starved by new ones.
func (r *Repository) ListActiveConnections(ctx context.Context) ([]Connection, error) {
	query := `
		SELECT id, user_id, provider, external_account_id, status, last_synced_at, created_at
		FROM bank_connections
		WHERE status = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanConnections(rows)
}

// ListConnections returns all of a user's connections, newest first.
func (r *Repository) ListConnections(ctx context.Context, userID uuid.UUID) ([]Connection, error) {
	query := `
		SELECT id, user_id, provider, external_account_id, status, last_synced_at, created_at
		FROM bank_connections
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanConnections(rows)
}

// MarkSynced advances the connection's watermark after a successful pull.
func (r *Repository) MarkSynced(ctx context.Context, connectionID uuid.UUID, at time.Time) error {
	query := `UPDATE bank_connections SET last_synced_at = $1 WHERE id = $2`

	tag, err := r.db.Exec(ctx, query, at, connectionID)
	if err != nil {
		return fmt.Errorf("failed to update sync watermark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConnectionNotFound
	}
	return nil
}

// Disconnect stops a connection from being synced. The row is kept so the
// account can be relinked with its watermark intact.
func (r *Repository) Disconnect(ctx context.Context, userID, connectionID uuid.UUID) error {
	query := `UPDATE bank_connections SET status = $1 WHERE id = $2 AND user_id = $3`

	tag, err := r.db.Exec(ctx, query, StatusDisconnected, connectionID, userID)
	if err != nil {
		return fmt.Errorf("failed to disconnect bank connection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConnectionNotFound
	}
	return nil
}

func scanConnections(rows pgx.Rows) ([]Connection, error) {
	var connections []Connection
	for rows.Next() {
		var c Connection
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.Provider,
			&c.ExternalAccountID,
			&c.Status,
			&c.LastSyncedAt,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		connections = append(connections, c)
	}
	return connections, rows.Err()
}
