// Package scheduler rebuilds cached dashboards on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/baylab/nitrogen-dashboard/internal/observability"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one warm-up run.
const DefaultTimeout = 2 * time.Minute

// Warmer rebuilds every registered scenario.
type Warmer interface {
	Warm(ctx context.Context) error
}

// Scheduler runs cache warm-ups.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
	warmer   Warmer
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// New creates a scheduler for a standard five-field cron schedule or a
// descriptor such as "@hourly". An empty schedule disables periodic runs;
// RunOnce still works.
func New(schedule string, warmer Warmer, logger *zap.Logger, metrics *observability.Metrics) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		schedule: schedule,
		timeout:  DefaultTimeout,
		warmer:   warmer,
		logger:   logger,
		metrics:  metrics,
	}
}

// Start registers the warm-up job and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("warm schedule not set, periodic warm-up disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("schedule warm-up %q: %w", s.schedule, err)
	}
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop halts the runner and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info("stopping scheduler")
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce warms the cache now.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	err := s.warmer.Warm(ctx)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.WarmRuns.WithLabelValues(outcome).Inc()

	if err != nil {
		s.logger.Error("warm-up failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return err
	}
	s.logger.Info("warm-up complete", zap.Duration("duration", time.Since(start)))
	return nil
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_ = s.RunOnce(ctx) //nolint:errcheck // logged and counted in RunOnce
}
