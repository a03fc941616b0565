// Package service orchestrates statement imports: detect the file format,
// extract candidate transactions, enrich them, then record a batch and
// merge the rows into the ledger.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/drachma-app/drachma-api/internal/domain/import/normalizer"
	"github.com/drachma-app/drachma-api/internal/domain/import/parser"
	"github.com/drachma-app/drachma-api/internal/domain/import/sniffer"
	"github.com/drachma-app/drachma-api/internal/domain/ledger"
	"github.com/drachma-app/drachma-api/pkg/metrics"
	"github.com/drachma-app/drachma-api/pkg/money"
	"github.com/drachma-app/drachma-api/pkg/storage"
)

const tracerName = "drachma.import"

// ErrNoTransactions reports a structurally valid statement from which no
// transaction rows could be extracted.
var ErrNoTransactions = errors.New("no transactions found in file")

// Store is the slice of the ledger the import pipeline needs.
// *ledger.Store implements it.
type Store interface {
	CreateBatch(ctx context.Context, b *ledger.Batch) error
	UpdateBatchStatus(ctx context.Context, batchID uuid.UUID, status string, candidateCount int, totalAmountCents int64) error
	MergeCandidates(ctx context.Context, userID, batchID uuid.UUID, candidates []parser.Candidate, defaultCurrency string) (*ledger.MergeResult, error)
	ListBatches(ctx context.Context, userID uuid.UUID, limit int) ([]ledger.Batch, error)
	RevertBatch(ctx context.Context, userID, batchID uuid.UUID) (int64, error)
}

// Enrichment is the categorization outcome for one description. Results
// are positional: index i enriches candidate i.
type Enrichment struct {
	MerchantName string
	Category     string
}

// CategorizationService matches descriptions against the user's rules and
// the known-merchant table. The categorization domain provides it through
// an adapter; the pipeline works without one.
type CategorizationService interface {
	CategorizeBatch(ctx context.Context, userID uuid.UUID, descriptions []string) ([]Enrichment, error)
}

// UploadResult summarises one statement import. Unexpected failures during
// the merge phase land in ErrorMessages rather than aborting the upload.
type UploadResult struct {
	BatchID                 uuid.UUID  `json:"batch_id"`
	ImportedCount           int        `json:"imported_count"`
	DuplicatesSkipped       int        `json:"duplicates_skipped"`
	ManualDuplicatesSkipped int        `json:"manual_duplicates_skipped"`
	ErrorCount              int        `json:"error_count"`
	ErrorMessages           []string   `json:"error_messages,omitempty"`
	LastTransactionDate     *time.Time `json:"last_transaction_date,omitempty"`
}

// ImportService drives uploads end to end. The ledger store and logger are
// mandatory; categorization, archival and metrics attach via With methods.
type ImportService struct {
	store           Store
	logger          *slog.Logger
	sanitizer       *normalizer.MerchantSanitizer
	tracer          trace.Tracer
	defaultCurrency string

	categorization CategorizationService
	archive        storage.Archive
	metrics        *metrics.Metrics
}

// NewImportService creates an orchestrator with the mandatory collaborators.
func NewImportService(store Store, logger *slog.Logger) *ImportService {
	return &ImportService{
		store:           store,
		logger:          logger,
		sanitizer:       normalizer.NewMerchantSanitizer(),
		tracer:          otel.Tracer(tracerName),
		defaultCurrency: "EUR",
	}
}

// WithDefaultCurrency overrides the currency assigned to rows whose source
// carries none.
func (s *ImportService) WithDefaultCurrency(code string) *ImportService {
	if code != "" {
		s.defaultCurrency = code
	}
	return s
}

// WithCategorization attaches the rule matcher used to enrich candidates
// after extraction.
func (s *ImportService) WithCategorization(cs CategorizationService) *ImportService {
	s.categorization = cs
	return s
}

// WithArchive keeps a copy of every uploaded statement file.
func (s *ImportService) WithArchive(a storage.Archive) *ImportService {
	s.archive = a
	return s
}

// WithMetrics attaches the Prometheus instruments.
func (s *ImportService) WithMetrics(m *metrics.Metrics) *ImportService {
	s.metrics = m
	return s
}

// ImportFile ingests one uploaded statement. Rejected inputs (unsupported
// extension, Excel, empty file, non-text PDF) and empty statements come
// back as sentinel errors before anything is written; once candidates
// exist the batch row is created first and later failures are captured
// into the result instead of returned.
func (s *ImportService) ImportFile(ctx context.Context, userID uuid.UUID, filename string, data []byte) (*UploadResult, error) {
	ctx, span := s.tracer.Start(ctx, "ImportFile")
	defer span.End()

	start := time.Now()

	kind, delimiter, err := sniffer.Detect(filename, data)
	if err != nil {
		span.AddEvent("statement rejected")
		s.countOutcome(metrics.OutcomeRejected)
		s.logger.Info("statement rejected", "user_id", userID, "file", filename, "error", err)
		return nil, err
	}
	source := kind.String()

	var extracted *parser.ExtractResult
	switch kind {
	case sniffer.KindCSV:
		extracted, err = parser.ExtractCSV(data, delimiter)
	case sniffer.KindPDF:
		extracted, err = parser.ExtractPDF(data)
	default:
		err = sniffer.ErrUnsupportedFileType
	}
	if err != nil {
		span.AddEvent("extraction failed")
		s.countOutcome(metrics.OutcomeRejected)
		s.logger.Info("statement extraction failed", "user_id", userID, "file", filename, "source", source, "error", err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CandidatesExtracted.WithLabelValues(source).Add(float64(len(extracted.Candidates)))
		s.metrics.RowsSkipped.WithLabelValues(metrics.SkipParse).Add(float64(extracted.SkippedRows))
	}

	if len(extracted.Candidates) == 0 {
		s.countOutcome(metrics.OutcomeEmpty)
		s.logger.Info("no transactions in statement", "user_id", userID, "file", filename,
			"rows", extracted.TotalRows, "skipped", extracted.SkippedRows)
		return nil, ErrNoTransactions
	}

	result, batch, err := s.importBatch(ctx, userID, filename, extracted.Candidates)
	if err != nil {
		s.countOutcome(metrics.OutcomeFailed)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RowsSkipped.WithLabelValues(metrics.SkipDuplicate).Add(float64(result.DuplicatesSkipped))
		s.metrics.RowsSkipped.WithLabelValues(metrics.SkipManualDuplicate).Add(float64(result.ManualDuplicatesSkipped))
		s.metrics.ImportDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}
	if result.ErrorCount > 0 {
		s.countOutcome(metrics.OutcomePartiallyFailed)
	} else {
		s.countOutcome(metrics.OutcomeCompleted)
	}

	if s.archive != nil {
		if _, archiveErr := s.archive.Archive(ctx, userID, batch.ID, filename, bytes.NewReader(data)); archiveErr != nil {
			s.logger.Warn("statement archival failed", "user_id", userID, "batch_id", batch.ID, "error", archiveErr)
		}
	}

	s.logger.Info("statement imported",
		"user_id", userID,
		"file", filename,
		"source", source,
		"batch_id", batch.ID,
		"imported", result.ImportedCount,
		"duplicates", result.DuplicatesSkipped,
		"manual_duplicates", result.ManualDuplicatesSkipped,
		"errors", result.ErrorCount,
	)
	return result, nil
}

// ImportCandidates runs already-extracted candidates through the same
// batch and merge tail as a file upload. The periodic bank sync feeds its
// fetched rows through here so dedup and enrichment behave identically.
func (s *ImportService) ImportCandidates(ctx context.Context, userID uuid.UUID, sourceName string, candidates []parser.Candidate) (*UploadResult, error) {
	ctx, span := s.tracer.Start(ctx, "ImportCandidates")
	defer span.End()

	if len(candidates) == 0 {
		return nil, ErrNoTransactions
	}

	result, _, err := s.importBatch(ctx, userID, sourceName, candidates)
	return result, err
}

// importBatch records the batch row and merges the candidates. The batch
// is written before the first ledger row with its final counts taken from
// the candidate list, so even a fully-duplicate upload leaves an audit
// trail. Errors and panics past that point flip the batch to failed and
// are reported through the result, not the error return.
func (s *ImportService) importBatch(ctx context.Context, userID uuid.UUID, sourceName string, candidates []parser.Candidate) (*UploadResult, *ledger.Batch, error) {
	total := money.Zero(s.defaultCurrency)
	for _, c := range candidates {
		total = total.MustAdd(money.NewFromDecimal(c.Amount, s.defaultCurrency))
	}

	batch := &ledger.Batch{
		UserID:           userID,
		SourceFileName:   sourceName,
		CandidateCount:   len(candidates),
		TotalAmountCents: total.Amount(),
		Currency:         s.defaultCurrency,
	}
	if err := s.store.CreateBatch(ctx, batch); err != nil {
		return nil, nil, fmt.Errorf("create import batch: %w", err)
	}

	result := &UploadResult{BatchID: batch.ID}

	merged, err := s.enrichAndMerge(ctx, userID, batch.ID, candidates)
	if err != nil {
		s.logger.Error("merge failed, batch marked failed",
			"user_id", userID, "batch_id", batch.ID, "source", sourceName, "error", err)
		result.ErrorMessages = append(result.ErrorMessages, err.Error())
		result.ErrorCount = len(result.ErrorMessages)
		if statusErr := s.store.UpdateBatchStatus(ctx, batch.ID, ledger.BatchStatusFailed, batch.CandidateCount, batch.TotalAmountCents); statusErr != nil {
			s.logger.Error("failed to mark batch failed", "batch_id", batch.ID, "error", statusErr)
		}
		return result, batch, nil
	}

	result.ImportedCount = merged.Imported
	result.DuplicatesSkipped = merged.DuplicatesSkipped
	result.ManualDuplicatesSkipped = merged.ManualDuplicatesSkipped
	result.LastTransactionDate = merged.LastTransactionDate
	return result, batch, nil
}

// enrichAndMerge is the recovery boundary: a panic anywhere in enrichment
// or the ledger merge becomes an ordinary error on the batch.
func (s *ImportService) enrichAndMerge(ctx context.Context, userID, batchID uuid.UUID, candidates []parser.Candidate) (merged *ledger.MergeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("import pipeline panic: %v", r)
		}
	}()

	s.enrich(ctx, userID, candidates)
	return s.store.MergeCandidates(ctx, userID, batchID, candidates, s.defaultCurrency)
}

// enrich fills MerchantName and Category in place. User rules win over the
// built-in merchant patterns; rows neither recognises keep the extraction
// default. A failing categorization lookup degrades to the built-ins so
// the raw rows stay importable.
func (s *ImportService) enrich(ctx context.Context, userID uuid.UUID, candidates []parser.Candidate) {
	var enrichments []Enrichment
	if s.categorization != nil {
		descriptions := make([]string, len(candidates))
		for i, c := range candidates {
			descriptions[i] = c.Description
		}
		var err error
		enrichments, err = s.categorization.CategorizeBatch(ctx, userID, descriptions)
		if err != nil || len(enrichments) != len(candidates) {
			s.logger.Warn("categorization failed, using built-in merchant patterns",
				"user_id", userID, "error", err)
			enrichments = nil
		}
	}

	for i := range candidates {
		c := &candidates[i]
		if enrichments != nil {
			e := enrichments[i]
			if e.MerchantName != "" {
				c.MerchantName = e.MerchantName
			}
			if e.Category != "" {
				c.Category = e.Category
				continue
			}
		}
		info := s.sanitizer.Sanitize(c.Description)
		if info.Category != "" {
			c.Category = info.Category
		}
		if c.MerchantName == "" {
			c.MerchantName = info.NormalizedName
		}
	}
}

// RevertImport removes a batch and every transaction it created,
// restoring the ledger to its pre-import state.
func (s *ImportService) RevertImport(ctx context.Context, userID, batchID uuid.UUID) (int64, error) {
	removed, err := s.store.RevertBatch(ctx, userID, batchID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("import reverted", "user_id", userID, "batch_id", batchID, "transactions_removed", removed)
	return removed, nil
}

// Batches lists a user's import batches, newest first.
func (s *ImportService) Batches(ctx context.Context, userID uuid.UUID, limit int) ([]ledger.Batch, error) {
	return s.store.ListBatches(ctx, userID, limit)
}

func (s *ImportService) countOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.ImportsTotal.WithLabelValues(outcome).Inc()
	}
}
