package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/drachma-app/drachma-api/internal/domain/import/parser"
)

// DB is the slice of the pgx pool the store needs. Both *pgxpool.Pool
// and the pgxmock pool satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store persists batches and ledger rows in Postgres.
type Store struct {
	db DB
}

// NewStore creates a ledger store backed by the given pool.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const insertTransactionSQL = `
	INSERT INTO ledger_transactions (
		id, user_id, batch_id, occurred_on, amount_cents, currency,
		description, merchant_name, category, source, identity
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (user_id, identity) WHERE identity IS NOT NULL DO NOTHING
`

// CreateBatch inserts the batch row before any of its transactions, so
// a failed merge still leaves an auditable batch behind.
func (s *Store) CreateBatch(ctx context.Context, b *Batch) error {
	query := `
		INSERT INTO import_batches (
			id, user_id, source_file_name, imported_at,
			candidate_count, total_amount_cents, currency, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.ImportedAt.IsZero() {
		b.ImportedAt = time.Now().UTC()
	}
	if b.Status == "" {
		b.Status = BatchStatusCompleted
	}

	_, err := s.db.Exec(ctx, query,
		b.ID, b.UserID, b.SourceFileName, b.ImportedAt,
		b.CandidateCount, b.TotalAmountCents, b.Currency, b.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create import batch: %w", err)
	}
	return nil
}

// UpdateBatchStatus records the outcome of a merge on the batch row.
func (s *Store) UpdateBatchStatus(ctx context.Context, batchID uuid.UUID, status string, candidateCount int, totalAmountCents int64) error {
	query := `
		UPDATE import_batches
		SET status = $2, candidate_count = $3, total_amount_cents = $4
		WHERE id = $1
	`

	_, err := s.db.Exec(ctx, query, batchID, status, candidateCount, totalAmountCents)
	if err != nil {
		return fmt.Errorf("failed to update batch status: %w", err)
	}
	return nil
}

// GetBatch returns one batch owned by the user.
func (s *Store) GetBatch(ctx context.Context, userID, batchID uuid.UUID) (*Batch, error) {
	query := `
		SELECT id, user_id, source_file_name, imported_at,
			candidate_count, total_amount_cents, currency, status
		FROM import_batches
		WHERE id = $1 AND user_id = $2
	`

	var b Batch
	err := s.db.QueryRow(ctx, query, batchID, userID).Scan(
		&b.ID, &b.UserID, &b.SourceFileName, &b.ImportedAt,
		&b.CandidateCount, &b.TotalAmountCents, &b.Currency, &b.Status,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return &b, nil
}

// ListBatches returns the user's batches, newest first.
func (s *Store) ListBatches(ctx context.Context, userID uuid.UUID, limit int) ([]Batch, error) {
	query := `
		SELECT id, user_id, source_file_name, imported_at,
			candidate_count, total_amount_cents, currency, status
		FROM import_batches
		WHERE user_id = $1
		ORDER BY imported_at DESC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		err := rows.Scan(
			&b.ID, &b.UserID, &b.SourceFileName, &b.ImportedAt,
			&b.CandidateCount, &b.TotalAmountCents, &b.Currency, &b.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// MergeCandidates writes extracted candidates into the ledger under the
// given batch. Candidates matching an existing manual entry are skipped
// before the write; rows whose identity already exists are skipped by
// the database.
func (s *Store) MergeCandidates(ctx context.Context, userID, batchID uuid.UUID, candidates []parser.Candidate, defaultCurrency string) (*MergeResult, error) {
	result := &MergeResult{}
	if len(candidates) == 0 {
		return result, nil
	}

	minDate, maxDate := candidates[0].Date, candidates[0].Date
	for _, c := range candidates[1:] {
		if c.Date.Before(minDate) {
			minDate = c.Date
		}
		if c.Date.After(maxDate) {
			maxDate = c.Date
		}
	}

	manuals, err := s.manualEntriesBetween(ctx, userID, minDate.AddDate(0, 0, -1), maxDate.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	index := newManualIndex(manuals)

	batch := &pgx.Batch{}
	var queued []parser.Candidate
	for _, c := range candidates {
		cents := c.Amount.Shift(2).Round(0).IntPart()
		if index.matches(c.Date, cents, c.Description) {
			result.ManualDuplicatesSkipped++
			continue
		}

		currency := c.Currency
		if currency == "" {
			currency = defaultCurrency
		}

		batch.Queue(insertTransactionSQL,
			uuid.New(), userID, batchID, c.Date, cents, currency,
			c.Description, c.MerchantName, c.Category, SourceBank, c.Identity,
		)
		queued = append(queued, c)
	}

	if len(queued) == 0 {
		return result, nil
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	for _, c := range queued {
		tag, err := br.Exec()
		if err != nil {
			return nil, fmt.Errorf("failed to insert transaction: %w", err)
		}
		if tag.RowsAffected() == 0 {
			result.DuplicatesSkipped++
			continue
		}

		result.Imported++
		result.TotalAmountCents += c.Amount.Shift(2).Round(0).IntPart()
		if result.LastTransactionDate == nil || c.Date.After(*result.LastTransactionDate) {
			d := c.Date
			result.LastTransactionDate = &d
		}
	}

	return result, nil
}

// RevertBatch removes a batch and every transaction imported with it.
// Returns the number of transactions removed.
func (s *Store) RevertBatch(ctx context.Context, userID, batchID uuid.UUID) (int64, error) {
	txTag, err := s.db.Exec(ctx,
		`DELETE FROM ledger_transactions WHERE batch_id = $1 AND user_id = $2`,
		batchID, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete batch transactions: %w", err)
	}

	batchTag, err := s.db.Exec(ctx,
		`DELETE FROM import_batches WHERE id = $1 AND user_id = $2`,
		batchID, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete batch: %w", err)
	}
	if batchTag.RowsAffected() == 0 {
		return 0, ErrBatchNotFound
	}

	return txTag.RowsAffected(), nil
}

// AddManualEntry inserts a user-entered transaction. Manual rows have no
// identity, so they never collide with imported rows.
func (s *Store) AddManualEntry(ctx context.Context, tx *Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.Source = SourceManual
	if tx.Category == "" {
		tx.Category = parser.Uncategorized
	}

	_, err := s.db.Exec(ctx, insertTransactionSQL,
		tx.ID, tx.UserID, nil, tx.OccurredOn, tx.AmountCents, tx.Currency,
		tx.Description, tx.MerchantName, tx.Category, SourceManual, nil,
	)
	if err != nil {
		return fmt.Errorf("failed to add manual entry: %w", err)
	}
	return nil
}

// ListTransactions returns ledger rows in the window, newest first.
func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID, from, to time.Time, limit int) ([]Transaction, error) {
	query := `
		SELECT id, user_id, batch_id, occurred_on, amount_cents, currency,
			description, merchant_name, category, source, identity, created_at
		FROM ledger_transactions
		WHERE user_id = $1 AND occurred_on >= $2 AND occurred_on <= $3
		ORDER BY occurred_on DESC, created_at DESC
		LIMIT $4
	`

	rows, err := s.db.Query(ctx, query, userID, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// manualEntriesBetween returns the user's manual rows in the window,
// used by the duplicate check during merges.
func (s *Store) manualEntriesBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Transaction, error) {
	query := `
		SELECT id, user_id, batch_id, occurred_on, amount_cents, currency,
			description, merchant_name, category, source, identity, created_at
		FROM ledger_transactions
		WHERE user_id = $1 AND source = $2 AND occurred_on >= $3 AND occurred_on <= $4
	`

	rows, err := s.db.Query(ctx, query, userID, SourceManual, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load manual entries: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]Transaction, error) {
	var txs []Transaction
	for rows.Next() {
		var tx Transaction
		err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.BatchID, &tx.OccurredOn, &tx.AmountCents,
			&tx.Currency, &tx.Description, &tx.MerchantName, &tx.Category,
			&tx.Source, &tx.Identity, &tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// AmountDecimal converts stored cents back to a decimal amount.
func AmountDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
