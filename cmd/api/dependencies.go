package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drachma-app/drachma-api/internal/domain/bank"
	"github.com/drachma-app/drachma-api/internal/domain/categorization"
	importservice "github.com/drachma-app/drachma-api/internal/domain/import/service"
	"github.com/drachma-app/drachma-api/internal/domain/ledger"
	"github.com/drachma-app/drachma-api/pkg/config"
	"github.com/drachma-app/drachma-api/pkg/cron"
	"github.com/drachma-app/drachma-api/pkg/db"
	"github.com/drachma-app/drachma-api/pkg/metrics"
	"github.com/drachma-app/drachma-api/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Pool   *pgxpool.Pool
	Logger *slog.Logger

	Metrics *metrics.Metrics
	Archive storage.Archive

	// Repositories
	LedgerStore        *ledger.Store
	CategorizationRepo *categorization.Repository
	BankRepo           *bank.Repository

	// Services
	CategorizationService *categorization.Service
	ImportService         *importservice.ImportService
	SyncService           *bank.SyncService
	Scheduler             *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase connects the pool and runs the embedded migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	pool, err := db.Connect(ctx, d.Config.Database)
	if err != nil {
		return err
	}
	d.Pool = pool

	if err := db.Migrate(ctx, d.Config.Database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.LedgerStore = ledger.NewStore(d.Pool)
	d.CategorizationRepo = categorization.NewRepository(d.Pool)
	d.BankRepo = bank.NewRepository(d.Pool)

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	d.Metrics = metrics.New(d.Config.Observability.MetricsNamespace)

	// Categorization service for candidate enrichment
	d.CategorizationService = categorization.NewService(d.CategorizationRepo, d.Logger)

	// Import orchestrator with categorization wired in
	d.ImportService = importservice.NewImportService(d.LedgerStore, d.Logger).
		WithDefaultCurrency(d.Config.Import.DefaultCurrency).
		WithCategorization(newCategorizationAdapter(d.CategorizationService)).
		WithMetrics(d.Metrics)

	// Statement archive keeps the raw uploads for audits and re-imports
	if d.Config.Import.ArchiveUploads {
		archive, err := storage.New(&storage.Config{
			Type:      storage.ArchiveType(d.Config.Storage.Type),
			LocalPath: d.Config.Storage.LocalPath,
		})
		if err != nil {
			return fmt.Errorf("failed to init statement archive: %w", err)
		}
		d.Archive = archive
		d.ImportService.WithArchive(archive)
	}

	// Periodic bank sync reuses the same merge path as uploads
	if d.Config.Sync.Enabled {
		client := bank.NewProviderClient(d.Config.Sync.ProviderURL, d.Config.Sync.ProviderToken, d.Logger)
		d.SyncService = bank.NewSyncService(d.BankRepo, client, d.ImportService, d.Logger).
			WithUserDelay(d.Config.Sync.UserDelay).
			WithLookback(d.Config.Sync.Lookback).
			WithFetchRetries(d.Config.Sync.FetchRetries).
			WithMetrics(d.Metrics)
		d.Scheduler = cron.NewScheduler(d.SyncService, d.Config.Sync.Interval, d.Logger)
	}

	d.Logger.Info("services initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Pool != nil {
		d.Pool.Close()
	}
	d.Logger.Info("cleanup completed")
}
