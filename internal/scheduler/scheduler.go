package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/firewatch/env-data-aggregation/internal/interpret"
)

// Scheduler periodically re-attempts authoritative attribute table loads for
// products that settled on their fallback tables.
type Scheduler struct {
	scheduler *gocron.Scheduler
	decoder   *interpret.Decoder
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a Scheduler. A non-positive interval disables refresh, which
// leaves fallback tables active for the process lifetime.
func New(decoder *interpret.Decoder, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		decoder:   decoder,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("attribute table refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		promoted := s.decoder.RefreshFallbacks(ctx)
		if promoted > 0 {
			s.logger.Info("attribute table refresh promoted tables",
				zap.Int("promoted", promoted))
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
