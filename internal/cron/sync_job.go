package cron

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/pricesync/internal/pricesync"
	"github.com/angelmondragon/pricesync/pkg/logger"
)

type syncRunner interface {
	ExecuteSync(ctx context.Context) (*pricesync.Report, error)
}

// SyncJob runs the full price sync pipeline.
type SyncJob struct {
	engine syncRunner
	logg   *logger.Logger
}

func NewSyncJob(engine syncRunner, logg *logger.Logger) (*SyncJob, error) {
	if engine == nil {
		return nil, errors.New("sync engine required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &SyncJob{engine: engine, logg: logg}, nil
}

func (j *SyncJob) Name() string { return "price_sync" }

func (j *SyncJob) Run(ctx context.Context) error {
	report, err := j.engine.ExecuteSync(ctx)
	if err != nil {
		if pricesync.IsConflict(err) {
			return fmt.Errorf("%w: sync already in progress", ErrJobSkipped)
		}
		return err
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"products_synced": report.ProductsSynced,
		"prices_updated":  report.PricesUpdated,
		"errors":          len(report.Errors),
	}), report.Message)
	for _, msg := range report.Errors {
		j.logg.Warn(ctx, msg)
	}
	return nil
}
