// Package scheduler triggers sync runs on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/tournevent/invoicebridge/internal/syncer"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// DefaultInterval is used when no positive interval is configured.
const DefaultInterval = 60 * time.Second

// Runner executes one sync run.
type Runner interface {
	Run(ctx context.Context) (*syncer.Summary, error)
}

// Scheduler calls Runner.Run every Interval until its context is done.
// The first run happens one interval after start.
type Scheduler struct {
	interval time.Duration
	runner   Runner
	logger   *otelzap.Logger
}

// New creates a scheduler.
func New(interval time.Duration, runner Runner, logger *otelzap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		interval: interval,
		runner:   runner,
		logger:   logger,
	}
}

// Run blocks, triggering runs until ctx is cancelled. A failing run never
// stops the loop. It always returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Sync scheduler started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sync scheduler stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	summary, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, syncer.ErrRunInProgress):
		s.logger.Ctx(ctx).Info("Previous sync run still in progress, skipping tick")
	case err != nil:
		s.logger.Ctx(ctx).Error("Scheduled sync run failed", zap.Error(err))
	case summary != nil:
		s.logger.Ctx(ctx).Debug("Scheduled sync run done",
			zap.String("run_id", summary.RunID),
			zap.Int("processed", summary.Processed),
			zap.Int("errors", summary.Errors),
		)
	}
}
