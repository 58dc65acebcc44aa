package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/pricesync/pkg/logger"
	"github.com/angelmondragon/pricesync/pkg/metrics"
)

const defaultPollInterval = time.Minute

// ErrJobSkipped marks a job run that deliberately did nothing.
var ErrJobSkipped = errors.New("job skipped")

// Schedule reports the next activation time; ok=false means disabled.
type Schedule interface {
	NextRun(ctx context.Context, now time.Time) (time.Time, bool, error)
}

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger       *logger.Logger
	Registry     *Registry
	Lock         Lock
	Schedule     Schedule
	Metrics      *metrics.CronJobMetrics
	PollInterval time.Duration
}

// Service executes registered jobs whenever the configured schedule fires.
type Service struct {
	logg         *logger.Logger
	registry     *Registry
	lock         Lock
	schedule     Schedule
	metrics      *metrics.CronJobMetrics
	pollInterval time.Duration
	now          func() time.Time
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	if params.Schedule == nil {
		return nil, fmt.Errorf("schedule required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	poll := params.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &Service{
		logg:         params.Logger,
		registry:     registry,
		lock:         params.Lock,
		schedule:     params.Schedule,
		metrics:      params.Metrics,
		pollInterval: poll,
		now:          time.Now,
	}, nil
}

// Run waits for each scheduled activation until the context is canceled.
// Settings are re-read every poll interval, so a changed schedule takes effect
// on the next wake up.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var announced time.Time
	for {
		next, ok := s.nextRun(ctx)
		if ok && !next.Equal(announced) {
			s.logg.Info(s.logg.WithField(ctx, "next_run", next.Format(time.RFC3339)), "sync scheduled")
			announced = next
		}
		if !ok {
			announced = time.Time{}
		}

		timer := time.NewTimer(s.waitFor(next, ok))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-timer.C:
		}

		if ok && !s.now().Before(next) {
			if err := s.runCycle(ctx); err != nil {
				s.logg.Error(ctx, "scheduled run failed", err)
			}
		}
	}
}

func (s *Service) nextRun(ctx context.Context) (time.Time, bool) {
	next, ok, err := s.schedule.NextRun(ctx, s.now())
	if err != nil {
		s.logg.Error(ctx, "failed to load schedule", err)
		s.metrics.SetNextRun(time.Time{})
		return time.Time{}, false
	}
	if !ok {
		s.metrics.SetNextRun(time.Time{})
		return time.Time{}, false
	}
	s.metrics.SetNextRun(next)
	return next, true
}

func (s *Service) waitFor(next time.Time, ok bool) time.Duration {
	if !ok {
		return s.pollInterval
	}
	until := next.Sub(s.now())
	if until < 0 {
		return 0
	}
	if until < s.pollInterval {
		return until
	}
	return s.pollInterval
}

func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another cron instance is running; skipping this cycle")
		s.metrics.IncSkipped("locked")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	s.logg.Info(ctx, "scheduled run starting")
	for _, job := range s.registry.Jobs() {
		s.runJob(ctx, job)
	}
	s.logg.Info(ctx, "scheduled run complete")
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	jobCtx = s.logg.WithField(jobCtx, "event", "cron.job")
	s.logg.Info(jobCtx, "job start")
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveDuration(job.Name(), duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	switch {
	case errors.Is(err, ErrJobSkipped):
		s.logg.Warn(jobCtx, err.Error())
		s.metrics.IncSkipped(job.Name())
	case err != nil:
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(job.Name())
	default:
		s.logg.Info(jobCtx, "job completed")
		s.metrics.IncSuccess(job.Name())
	}
}
