package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/air-quality-collector/internal/airquality"
)

// Collector runs one collection cycle.
type Collector interface {
	Collect(ctx context.Context) (airquality.CycleReport, error)
}

// Scheduler runs a collection immediately and then on a fixed interval.
// Cycles never overlap; a failed cycle is logged and the next one still runs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	collector Collector
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a Scheduler. Each cycle is bounded by the interval itself.
func New(collector Collector, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		collector: collector,
		interval:  interval,
		timeout:   interval,
		logger:    logger,
	}
}

// Start runs the first cycle synchronously, then schedules the rest.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("scheduler: interval must be positive")
	}

	s.run(ctx)

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		s.run(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) run(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	report, err := s.collector.Collect(ctx)
	if err != nil {
		s.logger.Warn("scheduled cycle failed; retrying next interval",
			zap.String("cycle_id", report.ID),
			zap.Error(err))
		return
	}
	s.logger.Debug("scheduled cycle done", zap.String("cycle_id", report.ID))
}

// Stop cancels future cycles. A running cycle finishes on its own context.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
