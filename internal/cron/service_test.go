package cron

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/pricesync/pkg/logger"
	"github.com/angelmondragon/pricesync/pkg/metrics"
)

type fakeLock struct {
	acquired bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	mu   sync.Mutex
	name string
	err  error
	runs int
	ran  chan struct{}
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.mu.Lock()
	t.runs++
	t.mu.Unlock()
	if t.ran != nil {
		select {
		case t.ran <- struct{}{}:
		default:
		}
	}
	return t.err
}

func (t *testJob) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runs
}

type fakeSchedule struct {
	mu   sync.Mutex
	next func(now time.Time) (time.Time, bool, error)
}

func (f *fakeSchedule) NextRun(_ context.Context, now time.Time) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next(now)
}

func disabledSchedule() *fakeSchedule {
	return &fakeSchedule{next: func(time.Time) (time.Time, bool, error) { return time.Time{}, false, nil }}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: &bytes.Buffer{}})
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	registry := NewRegistry(&testJob{name: "success"}, &testJob{name: "fail", err: errors.New("boom")})
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: registry,
		Lock:     &fakeLock{},
		Schedule: disabledSchedule(),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	for _, job := range registry.Jobs() {
		if runs := job.(*testJob).count(); runs != 1 {
			t.Fatalf("expected %s to run once, ran %d", job.Name(), runs)
		}
	}
}

func TestServiceRunCycleSkipsWhenLocked(t *testing.T) {
	reg := prometheus.NewRegistry()
	job := &testJob{name: "price_sync"}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{acquired: true},
		Schedule: disabledSchedule(),
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.count() != 0 {
		t.Fatalf("expected job to be skipped")
	}
	if got := skippedCount(t, reg, "locked"); got != 1 {
		t.Fatalf("expected one locked skip, got %v", got)
	}
}

func TestServiceRunJobCountsSkips(t *testing.T) {
	reg := prometheus.NewRegistry()
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Lock:     &fakeLock{},
		Schedule: disabledSchedule(),
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	service.runJob(context.Background(), &testJob{name: "price_sync", err: ErrJobSkipped})
	if got := skippedCount(t, reg, "price_sync"); got != 1 {
		t.Fatalf("expected one skip for price_sync, got %v", got)
	}
}

func TestServiceWaitFor(t *testing.T) {
	now := time.Date(2026, 10, 19, 1, 59, 0, 0, time.UTC)
	service := &Service{pollInterval: time.Minute, now: func() time.Time { return now }}

	if got := service.waitFor(time.Time{}, false); got != time.Minute {
		t.Fatalf("disabled schedule should poll, got %v", got)
	}
	if got := service.waitFor(now.Add(10*time.Second), true); got != 10*time.Second {
		t.Fatalf("expected to wake at next run, got %v", got)
	}
	if got := service.waitFor(now.Add(time.Hour), true); got != time.Minute {
		t.Fatalf("expected to poll before a distant run, got %v", got)
	}
	if got := service.waitFor(now.Add(-time.Second), true); got != 0 {
		t.Fatalf("expected overdue run to fire immediately, got %v", got)
	}
}

func TestServiceRunFiresScheduledJob(t *testing.T) {
	job := &testJob{name: "price_sync", ran: make(chan struct{}, 1)}
	var once sync.Once
	var fireAt time.Time
	schedule := &fakeSchedule{next: func(now time.Time) (time.Time, bool, error) {
		once.Do(func() { fireAt = now.Add(20 * time.Millisecond) })
		if now.Before(fireAt) {
			return fireAt, true, nil
		}
		return time.Time{}, false, nil
	}}
	reg := prometheus.NewRegistry()
	service, err := NewService(ServiceParams{
		Logger:       testLogger(),
		Registry:     NewRegistry(job),
		Lock:         &fakeLock{},
		Schedule:     schedule,
		Metrics:      metrics.NewCronJobMetrics(reg),
		PollInterval: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	select {
	case <-job.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job never ran")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if job.count() != 1 {
		t.Fatalf("expected exactly one run, got %d", job.count())
	}
}

func TestServiceScheduleErrorClearsNextRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCronJobMetrics(reg)
	m.SetNextRun(time.Unix(1_800_000_000, 0))
	service, err := NewService(ServiceParams{
		Logger: testLogger(),
		Lock:   &fakeLock{},
		Schedule: &fakeSchedule{next: func(time.Time) (time.Time, bool, error) {
			return time.Time{}, false, errors.New("db down")
		}},
		Metrics: m,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if _, ok := service.nextRun(context.Background()); ok {
		t.Fatal("expected schedule error to disable the run")
	}
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == "pricesync_schedule_next_run_timestamp_seconds" {
			if v := mf.GetMetric()[0].GetGauge().GetValue(); v != 0 {
				t.Fatalf("expected gauge cleared, got %v", v)
			}
		}
	}
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService(ServiceParams{Lock: &fakeLock{}, Schedule: disabledSchedule()}); err == nil {
		t.Fatal("expected logger requirement")
	}
	if _, err := NewService(ServiceParams{Logger: testLogger(), Schedule: disabledSchedule()}); err == nil {
		t.Fatal("expected lock requirement")
	}
	if _, err := NewService(ServiceParams{Logger: testLogger(), Lock: &fakeLock{}}); err == nil {
		t.Fatal("expected schedule requirement")
	}
}

func skippedCount(t *testing.T, reg *prometheus.Registry, reason string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "pricesync_job_skipped_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "reason" && label.GetValue() == reason {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
