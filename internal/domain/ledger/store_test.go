package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drachma-app/drachma-api/internal/domain/import/parser"
)

var transactionColumns = []string{
	"id", "user_id", "batch_id", "occurred_on", "amount_cents", "currency",
	"description", "merchant_name", "category", "source", "identity", "created_at",
}

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewStore(mock)
}

func TestStoreCreateBatch(t *testing.T) {
	mock, store := newMockStore(t)

	b := &Batch{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		SourceFileName: "march.csv",
		ImportedAt:     time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		Currency:       "EUR",
		Status:         BatchStatusCompleted,
	}

	mock.ExpectExec("INSERT INTO import_batches").
		WithArgs(b.ID, b.UserID, "march.csv", b.ImportedAt, 0, int64(0), "EUR", BatchStatusCompleted).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.CreateBatch(context.Background(), b))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCreateBatchFillsDefaults(t *testing.T) {
	mock, store := newMockStore(t)

	b := &Batch{UserID: uuid.New(), SourceFileName: "march.csv", Currency: "EUR"}

	mock.ExpectExec("INSERT INTO import_batches").
		WithArgs(pgxmock.AnyArg(), b.UserID, "march.csv", pgxmock.AnyArg(), 0, int64(0), "EUR", BatchStatusCompleted).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.CreateBatch(context.Background(), b))
	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.False(t, b.ImportedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetBatch(t *testing.T) {
	mock, store := newMockStore(t)

	userID := uuid.New()
	batchID := uuid.New()
	importedAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM import_batches").
		WithArgs(batchID, userID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "source_file_name", "imported_at",
			"candidate_count", "total_amount_cents", "currency", "status",
		}).AddRow(batchID, userID, "march.csv", importedAt, 42, int64(-123456), "EUR", BatchStatusCompleted))

	b, err := store.GetBatch(context.Background(), userID, batchID)
	require.NoError(t, err)
	assert.Equal(t, batchID, b.ID)
	assert.Equal(t, 42, b.CandidateCount)
	assert.Equal(t, int64(-123456), b.TotalAmountCents)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetBatchNotFound(t *testing.T) {
	mock, store := newMockStore(t)

	userID := uuid.New()
	batchID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM import_batches").
		WithArgs(batchID, userID).
		WillReturnError(pgx.ErrNoRows)

	b, err := store.GetBatch(context.Background(), userID, batchID)
	require.ErrorIs(t, err, ErrBatchNotFound)
	assert.Nil(t, b)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreListBatches(t *testing.T) {
	mock, store := newMockStore(t)

	userID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM import_batches").
		WithArgs(userID, 20).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "source_file_name", "imported_at",
			"candidate_count", "total_amount_cents", "currency", "status",
		}).
			AddRow(uuid.New(), userID, "march.csv", now, 10, int64(-5000), "EUR", BatchStatusCompleted).
			AddRow(uuid.New(), userID, "february.pdf", now.Add(-time.Hour), 7, int64(-3000), "EUR", BatchStatusFailed))

	batches, err := store.ListBatches(context.Background(), userID, 20)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "march.csv", batches[0].SourceFileName)
	assert.Equal(t, BatchStatusFailed, batches[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreUpdateBatchStatus(t *testing.T) {
	mock, store := newMockStore(t)

	batchID := uuid.New()

	mock.ExpectExec("UPDATE import_batches").
		WithArgs(batchID, BatchStatusCompleted, 12, int64(-45090)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := store.UpdateBatchStatus(context.Background(), batchID, BatchStatusCompleted, 12, -45090)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRevertBatch(t *testing.T) {
	mock, store := newMockStore(t)

	userID := uuid.New()
	batchID := uuid.New()

	mock.ExpectExec("DELETE FROM ledger_transactions").
		WithArgs(batchID, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 12))
	mock.ExpectExec("DELETE FROM import_batches").
		WithArgs(batchID, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	removed, err := store.RevertBatch(context.Background(), userID, batchID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRevertBatchNotFound(t *testing.T) {
	mock, store := newMockStore(t)

	userID := uuid.New()
	batchID := uuid.New()

	mock.ExpectExec("DELETE FROM ledger_transactions").
		WithArgs(batchID, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("DELETE FROM import_batches").
		WithArgs(batchID, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	_, err := store.RevertBatch(context.Background(), userID, batchID)
	require.ErrorIs(t, err, ErrBatchNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreAddManualEntry(t *testing.T) {
	mock, store := newMockStore(t)

	userID := uuid.New()
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	tx := &Transaction{
		UserID:      userID,
		OccurredOn:  day,
		AmountCents: -1250,
		Currency:    "EUR",
		Description: "Taverna Dinner",
	}

	mock.ExpectExec("INSERT INTO ledger_transactions").
		WithArgs(pgxmock.AnyArg(), userID, nil, day, int64(-1250), "EUR",
			"Taverna Dinner", "", parser.Uncategorized, SourceManual, nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.AddManualEntry(context.Background(), tx))
	assert.NotEqual(t, uuid.Nil, tx.ID)
	assert.Equal(t, SourceManual, tx.Source)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreListTransactions(t *testing.T) {
	mock, store := newMockStore(t)

	userID := uuid.New()
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	batchID := uuid.New()
	identity := "abc123"

	mock.ExpectQuery("SELECT (.+) FROM ledger_transactions").
		WithArgs(userID, from, to, 100).
		WillReturnRows(pgxmock.NewRows(transactionColumns).
			AddRow(uuid.New(), userID, &batchID, from.AddDate(0, 0, 4), int64(-4590), "EUR",
				"ΚΑΦΕΣ", "Coffee Island", "Dining", SourceBank, &identity, time.Now()).
			AddRow(uuid.New(), userID, nil, from, int64(-1250), "EUR",
				"Taverna Dinner", "", parser.Uncategorized, SourceManual, nil, time.Now()))

	txs, err := store.ListTransactions(context.Background(), userID, from, to, 100)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "ΚΑΦΕΣ", txs[0].Description)
	require.NotNil(t, txs[0].Identity)
	assert.Equal(t, identity, *txs[0].Identity)
	assert.Nil(t, txs[1].BatchID)
	assert.Nil(t, txs[1].Identity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreMergeCandidates(t *testing.T) {
	mock, store := newMockStore(t)

	userID := uuid.New()
	batchID := uuid.New()
	day1 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	candidates := []parser.Candidate{
		parser.NewCandidate(day1, decimal.RequireFromString("-45.90"), "ΚΑΦΕΣ"),
		parser.NewCandidate(day2, decimal.RequireFromString("960.00"), "Coffee Shop Athens"),
	}

	mock.ExpectQuery("SELECT (.+) FROM ledger_transactions").
		WithArgs(userID, SourceManual, day1.AddDate(0, 0, -1), day2.AddDate(0, 0, 1)).
		WillReturnRows(pgxmock.NewRows(transactionColumns))

	eb := mock.ExpectBatch()
	eb.ExpectExec("INSERT INTO ledger_transactions").
		WithArgs(pgxmock.AnyArg(), userID, batchID, day1, int64(-4590), "EUR",
			"ΚΑΦΕΣ", "", parser.Uncategorized, SourceBank, candidates[0].Identity).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	eb.ExpectExec("INSERT INTO ledger_transactions").
		WithArgs(pgxmock.AnyArg(), userID, batchID, day2, int64(96000), "EUR",
			"Coffee Shop Athens", "", parser.Uncategorized, SourceBank, candidates[1].Identity).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	result, err := store.MergeCandidates(context.Background(), userID, batchID, candidates, "EUR")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.DuplicatesSkipped)
	assert.Equal(t, 0, result.ManualDuplicatesSkipped)
	assert.Equal(t, int64(-4590), result.TotalAmountCents)
	require.NotNil(t, result.LastTransactionDate)
	assert.Equal(t, day1, *result.LastTransactionDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreMergeCandidatesManualDuplicate(t *testing.T) {
	mock, store := newMockStore(t)

	userID := uuid.New()
	batchID := uuid.New()
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	candidates := []parser.Candidate{
		parser.NewCandidate(day, decimal.RequireFromString("-12.50"), "Taverna Dinner"),
	}

	// A manual entry from the night before covers the candidate, so
	// nothing reaches the database.
	mock.ExpectQuery("SELECT (.+) FROM ledger_transactions").
		WithArgs(userID, SourceManual, day.AddDate(0, 0, -1), day.AddDate(0, 0, 1)).
		WillReturnRows(pgxmock.NewRows(transactionColumns).
			AddRow(uuid.New(), userID, nil, day.AddDate(0, 0, -1), int64(-1250), "EUR",
				"Taverna dinner", "", parser.Uncategorized, SourceManual, nil, time.Now()))

	result, err := store.MergeCandidates(context.Background(), userID, batchID, candidates, "EUR")
	require.NoError(t, err)

	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 0, result.DuplicatesSkipped)
	assert.Equal(t, 1, result.ManualDuplicatesSkipped)
	assert.Nil(t, result.LastTransactionDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreMergeCandidatesEmpty(t *testing.T) {
	mock, store := newMockStore(t)

	result, err := store.MergeCandidates(context.Background(), uuid.New(), uuid.New(), nil, "EUR")
	require.NoError(t, err)
	assert.Zero(t, result.Imported)
	assert.Zero(t, result.DuplicatesSkipped)
	require.NoError(t, mock.ExpectationsWereMet())
}
