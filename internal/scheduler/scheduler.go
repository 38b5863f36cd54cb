// Package scheduler runs the settlement pipeline on a fixed cron schedule
// for self-hosted deployments without a platform trigger.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/raceday/internal/service"
)

// Runner is the slice of the pipeline the scheduler invokes.
type Runner interface {
	Run(ctx context.Context, opts service.RunOptions) (*service.RunSummary, error)
}

// Scheduler manages periodic settlement runs.
type Scheduler struct {
	cron       *cron.Cron
	pipeline   Runner
	logger     *logrus.Logger
	runTimeout time.Duration
	mu         sync.RWMutex
	isRunning  bool
	jobIDs     []cron.EntryID
}

// NewScheduler creates a scheduler. runTimeout bounds each invocation so a
// hung run cannot overlap indefinitely with the next tick.
func NewScheduler(pipeline Runner, runTimeout time.Duration, logger *logrus.Logger) *Scheduler {
	if runTimeout <= 0 {
		runTimeout = 10 * time.Minute
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		pipeline:   pipeline,
		logger:     logger,
		runTimeout: runTimeout,
		jobIDs:     make([]cron.EntryID, 0),
	}
}

// Schedule registers a settlement run on the given cron expression, e.g.
// "@every 2m". Overlapping ticks are harmless: the pipeline's idempotent
// writes make concurrent runs converge, they just waste provider quota.
func (s *Scheduler) Schedule(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()

		summary, err := s.pipeline.Run(ctx, service.RunOptions{})
		if err != nil {
			s.logger.WithError(err).Error("Scheduled settlement run failed")
			return
		}
		s.logger.WithFields(logrus.Fields{
			"processed": summary.ProcessedCount,
			"not_ready": summary.NotReadyCount,
			"failed":    summary.FailedCount,
		}).Info("Scheduled settlement run complete")
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled settlement job")
	return nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Info("Scheduler started")
	return nil
}

// Stop stops the scheduler, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn("Timed out waiting for running job to finish")
	}
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
}
