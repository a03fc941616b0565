package bank

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/drachma-app/drachma-api/internal/domain/import/parser"
	"github.com/drachma-app/drachma-api/internal/domain/import/service"
	"github.com/drachma-app/drachma-api/pkg/metrics"
)

const tracerName = "drachma.sync"

const (
	defaultUserDelay    = 2 * time.Second
	defaultLookback     = 7 * 24 * time.Hour
	defaultFetchRetries = 3
	defaultRetryBase    = 500 * time.Millisecond
)

// Importer is the slice of the import pipeline the sync driver uses.
// *service.ImportService satisfies it.
type Importer interface {
	ImportCandidates(ctx context.Context, userID uuid.UUID, sourceName string, candidates []parser.Candidate) (*service.UploadResult, error)
}

// SyncService pulls transactions for every active connection through the
// import pipeline. Connections are processed strictly sequentially with a
// courtesy delay between them; one connection's failure never aborts the
// rest of the pass.
type SyncService struct {
	repo     *Repository
	client   Client
	importer Importer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	limiter      *rate.Limiter
	lookback     time.Duration
	fetchRetries int
	retryBase    time.Duration
}

// NewSyncService creates the periodic sync driver.
func NewSyncService(repo *Repository, client Client, importer Importer, logger *slog.Logger) *SyncService {
	return &SyncService{
		repo:         repo,
		client:       client,
		importer:     importer,
		logger:       logger,
		tracer:       otel.Tracer(tracerName),
		limiter:      rate.NewLimiter(rate.Every(defaultUserDelay), 1),
		lookback:     defaultLookback,
		fetchRetries: defaultFetchRetries,
		retryBase:    defaultRetryBase,
	}
}

// WithUserDelay overrides the pause between consecutive connections.
func (s *SyncService) WithUserDelay(d time.Duration) *SyncService {
	if d > 0 {
		s.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
	return s
}

// WithLookback overrides the fetch window for never-synced connections.
func (s *SyncService) WithLookback(d time.Duration) *SyncService {
	if d > 0 {
		s.lookback = d
	}
	return s
}

// WithFetchRetries overrides how many times a failed provider fetch is
// retried before the connection is skipped for this pass.
func (s *SyncService) WithFetchRetries(n int) *SyncService {
	if n >= 0 {
		s.fetchRetries = n
	}
	return s
}

// WithMetrics attaches the Prometheus instruments.
func (s *SyncService) WithMetrics(m *metrics.Metrics) *SyncService {
	s.metrics = m
	return s
}

// SyncAll runs one pass over every active connection. The limiter wait
// observes ctx, so cancellation is honoured between connections even
// mid-delay. Per-connection failures are logged and counted, never
// propagated; the returned error is reserved for enumeration failure and
// cancellation.
func (s *SyncService) SyncAll(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "SyncAll")
	defer span.End()

	connections, err := s.repo.ListActiveConnections(ctx)
	if err != nil {
		return fmt.Errorf("list active connections: %w", err)
	}

	synced, failed := 0, 0
	for _, conn := range connections {
		if err := s.limiter.Wait(ctx); err != nil {
			span.AddEvent("sync pass cancelled")
			s.logger.Info("bank sync pass cancelled", "synced", synced, "failed", failed)
			return err
		}

		if err := s.syncConnection(ctx, conn); err != nil {
			failed++
			s.countUserFailure()
			s.logger.Warn("bank sync failed for connection",
				"connection_id", conn.ID, "user_id", conn.UserID, "provider", conn.Provider, "error", err)
			continue
		}
		synced++
	}

	s.countRun()
	s.logger.Info("bank sync pass completed",
		"connections", len(connections), "synced", synced, "failed", failed)
	return nil
}

// syncConnection pulls one connection's window and merges it. The
// watermark only advances after the fetched rows are safely merged, so a
// failed pass is retried from the same point next tick.
func (s *SyncService) syncConnection(ctx context.Context, conn Connection) error {
	syncTime := time.Now().UTC()
	from := syncTime.Add(-s.lookback)
	if conn.LastSyncedAt != nil {
		from = *conn.LastSyncedAt
	}

	rows, err := s.fetchWithRetry(ctx, &conn, from, syncTime)
	if err != nil {
		return fmt.Errorf("fetch %s transactions: %w", conn.Provider, err)
	}

	candidates := make([]parser.Candidate, 0, len(rows))
	for _, r := range rows {
		if r.Date.IsZero() || r.Amount.IsZero() {
			continue
		}
		candidates = append(candidates, parser.NewCandidate(r.Date.UTC(), r.Amount, r.Description))
	}

	if len(candidates) == 0 {
		s.logger.Debug("no new transactions", "connection_id", conn.ID, "from", from)
		return s.repo.MarkSynced(ctx, conn.ID, syncTime)
	}

	sourceName := fmt.Sprintf("%s-sync-%s", conn.Provider, syncTime.Format("2006-01-02"))
	result, err := s.importer.ImportCandidates(ctx, conn.UserID, sourceName, candidates)
	if err != nil {
		return fmt.Errorf("merge synced transactions: %w", err)
	}
	if result.ErrorCount > 0 {
		return fmt.Errorf("merge synced transactions: %s", strings.Join(result.ErrorMessages, "; "))
	}

	s.logger.Info("bank connection synced",
		"connection_id", conn.ID,
		"user_id", conn.UserID,
		"provider", conn.Provider,
		"fetched", len(rows),
		"imported", result.ImportedCount,
		"duplicates", result.DuplicatesSkipped,
	)
	return s.repo.MarkSynced(ctx, conn.ID, syncTime)
}

// fetchWithRetry retries transient provider failures with exponential
// backoff. fetchRetries caps the retries after the first attempt.
func (s *SyncService) fetchWithRetry(ctx context.Context, conn *Connection, from, to time.Time) ([]ProviderTransaction, error) {
	var rows []ProviderTransaction
	backoff := retry.WithMaxRetries(uint64(s.fetchRetries), retry.NewExponential(s.retryBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var fetchErr error
		rows, fetchErr = s.client.FetchTransactions(ctx, conn, from, to)
		if fetchErr != nil {
			return retry.RetryableError(fetchErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *SyncService) countRun() {
	if s.metrics != nil {
		s.metrics.SyncRuns.Inc()
	}
}

func (s *SyncService) countUserFailure() {
	if s.metrics != nil {
		s.metrics.SyncUserFailures.Inc()
	}
}
