package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigilo/internal/batch"
)

// BatchRunner runs one crawl-and-diff batch.
type BatchRunner interface {
	Run(ctx context.Context) (*batch.Summary, error)
}

// Service schedules recurring batch runs with cron. Overlapping runs are
// skipped - the source system supports exactly one crawl session at a time.
type Service struct {
	runner BatchRunner
	cron   *cron.Cron
	logger arbor.ILogger

	mu           sync.Mutex
	isProcessing bool
	running      bool
	entryID      cron.EntryID
}

// NewService creates a scheduler service.
func NewService(runner BatchRunner, logger arbor.ILogger) *Service {
	return &Service{
		runner: runner,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start begins scheduling with the given cron expression.
func (s *Service) Start(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	entryID, err := s.cron.AddFunc(cronExpr, s.runBatch)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", cronExpr).
		Str("next_run", s.cron.Entry(entryID).Next.Format("2006-01-02 15:04:05")).
		Msg("Batch scheduler started")

	return nil
}

// Stop halts scheduling and waits for a running batch to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info().Msg("Batch scheduler stopped")
}

func (s *Service) runBatch() {
	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous batch still running, skipping scheduled run")
		return
	}
	s.isProcessing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isProcessing = false
		s.mu.Unlock()
	}()

	s.logger.Info().Msg("Scheduled batch run starting")

	summary, err := s.runner.Run(context.Background())
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled batch run failed")
		return
	}

	s.logger.Info().
		Int("organizations", summary.OrganizationsAttempted).
		Int("change_events", summary.TotalEvents).
		Msg("Scheduled batch run finished")
}
