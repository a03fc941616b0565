// Package cron schedules the periodic bank sync using robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// defaultRunTimeout bounds one sync pass so a wedged provider cannot hold
// a tick open forever.
const defaultRunTimeout = 30 * time.Minute

// SyncRunner is implemented by bank.SyncService.
type SyncRunner interface {
	SyncAll(ctx context.Context) error
}

// Scheduler triggers sync passes on a fixed interval. Stop cancels the
// base context, so an in-flight pass winds down between connections
// instead of running to completion.
type Scheduler struct {
	cron    *cron.Cron
	runner  SyncRunner
	logger  *slog.Logger
	spec    string
	timeout time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler that runs the sync every interval.
func NewScheduler(runner SyncRunner, interval time.Duration, logger *slog.Logger) *Scheduler {
	// Standard 5-field format, no seconds; the cron's own chatter goes
	// through slog at debug level.
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    c,
		runner:  runner,
		logger:  logger,
		spec:    fmt.Sprintf("@every %s", interval),
		timeout: defaultRunTimeout,
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Start begins the scheduled sync job.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.runSync)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("schedule", s.spec),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop cancels any in-flight pass and stops scheduling. The returned
// context completes when running cron jobs have finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	s.cancel()
	return s.cron.Stop()
}

// RunNow triggers a sync pass outside the schedule (admin/testing).
func (s *Scheduler) RunNow() {
	go s.runSync()
}

func (s *Scheduler) runSync() {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.timeout)
	defer cancel()

	s.logger.Info("starting bank sync pass")

	if err := s.runner.SyncAll(ctx); err != nil {
		s.logger.Error("bank sync pass failed", slog.Any("error", err))
	}
}
