// Package scheduler re-runs the forecast pipeline on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/couchcryptid/forecast-ranker/internal/domain"
	"github.com/couchcryptid/forecast-ranker/internal/pipeline"
)

// Runner executes a single pipeline run.
type Runner interface {
	Run(ctx context.Context, locations []domain.Location) (pipeline.Result, error)
}

// Scheduler triggers a Runner every interval. The first run starts
// immediately, and a run never overlaps the previous one.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	locations []domain.Location
	interval  time.Duration
	logger    *slog.Logger
	cancel    context.CancelFunc
}

// New creates a Scheduler. It does nothing until Start is called.
func New(runner Runner, locations []domain.Location, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		locations: locations,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// Runs observe ctx; Stop cancels any run still in flight.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("invalid run interval")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(func() {
		s.runOnce(runCtx)
	})
	if err != nil {
		cancel()
		return err
	}

	s.logger.Info("scheduler started", "interval", s.interval, "locations", len(s.locations))
	s.scheduler.StartAsync()
	return nil
}

// Stop cancels the in-flight run and stops future ones.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.scheduler.Stop()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res, err := s.runner.Run(ctx, s.locations)
	if err != nil {
		s.logger.Error("scheduled run failed", "error", err)
		return
	}
	s.logger.Info("scheduled run complete",
		"run_id", res.RunID,
		"favorites", len(res.Favorites),
		"failures", len(res.Failures),
	)
}
