package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"feed_ranker/internal/domain"
)

// Runner executes one ranking cycle.
type Runner interface {
	Run(ctx context.Context) (*domain.RunStats, error)
}

type Scheduler struct {
	runner     Runner
	interval   time.Duration
	runTimeout time.Duration
	logger     *slog.Logger
}

func NewScheduler(runner Runner, interval, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:     runner,
		interval:   interval,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

// Start runs one cycle immediately, then one per tick until the
// context is cancelled. A run that overruns its timeout is cut off;
// stats written so far stay valid and the next tick re-aggregates.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	if _, err := s.runner.Run(runCtx); err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			s.logger.Warn("skipping cycle, previous run still active")
			return
		}
		s.logger.Error("ranking run failed", "error", err)
	}
}
