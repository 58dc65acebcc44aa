package pricesync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pricesync/internal/catalog"
	"github.com/angelmondragon/pricesync/internal/prices"
	"github.com/angelmondragon/pricesync/pkg/enums"
	pkgerrors "github.com/angelmondragon/pricesync/pkg/errors"
	"github.com/angelmondragon/pricesync/pkg/logger"
	"github.com/angelmondragon/pricesync/pkg/metrics"
)

const (
	defaultLockWait = 10 * time.Second
	defaultLockPoll = 100 * time.Millisecond
)

// RunLock serializes sync runs across processes.
type RunLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type relationshipStore interface {
	activeChecker
	DeleteByProduct(ctx context.Context, productID int64) (int64, error)
}

// EngineParams configure the sync engine.
type EngineParams struct {
	Prices        prices.Service
	Relationships relationshipStore
	Catalog       catalogWriter
	Lock          RunLock
	Reports       ReportCache
	Metrics       *metrics.SyncMetrics
	Logger        *logger.Logger
}

// Engine runs the rebuild, recompute and propagate pipeline.
type Engine struct {
	prices     prices.Service
	rels       relationshipStore
	catalog    catalogWriter
	propagator *Propagator
	lock       RunLock
	reports    ReportCache
	metrics    *metrics.SyncMetrics
	logg       *logger.Logger
	now        func() time.Time

	lockWait time.Duration
	lockPoll time.Duration
}

// NewEngine builds a sync engine. Reports and Metrics are optional.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Prices == nil {
		return nil, fmt.Errorf("price service required")
	}
	if params.Relationships == nil {
		return nil, fmt.Errorf("relationship service required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	propagator, err := NewPropagator(params.Prices, params.Relationships, params.Catalog, params.Logger, params.Metrics)
	if err != nil {
		return nil, err
	}
	return &Engine{
		prices:     params.Prices,
		rels:       params.Relationships,
		catalog:    params.Catalog,
		propagator: propagator,
		lock:       params.Lock,
		reports:    params.Reports,
		metrics:    params.Metrics,
		logg:       params.Logger,
		now:        time.Now,
		lockWait:   defaultLockWait,
		lockPoll:   defaultLockPoll,
	}, nil
}

// ExecuteSync rebuilds the price table, recomputes prices and propagates them
// to the catalog. A run already holding the lock yields a CONFLICT error. When
// a step fails the partial report is returned alongside the error. Once the
// lock is held the run is detached from ctx cancellation.
func (e *Engine) ExecuteSync(ctx context.Context) (*Report, error) {
	ctx = context.WithoutCancel(ctx)
	locked, err := e.lock.Acquire(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire sync lock")
	}
	if !locked {
		e.metrics.ObserveRun(metrics.OutcomeConflict, 0)
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "sync already in progress")
	}
	defer e.release(ctx)

	report := &Report{
		RunID:     uuid.NewString(),
		Errors:    []string{},
		StartedAt: e.now().UTC(),
	}
	ctx = e.logg.WithRunID(ctx, report.RunID)
	e.logg.Info(ctx, "sync run starting")
	start := time.Now()

	rebuild, err := e.prices.RebuildFromRelationships(e.logg.WithField(ctx, "step", "rebuild"))
	if err != nil {
		return e.fail(ctx, report, start, err)
	}
	report.Rebuild = rebuild

	updated, err := e.prices.Recompute(e.logg.WithField(ctx, "step", "recompute"))
	if err != nil {
		return e.fail(ctx, report, start, err)
	}
	report.PricesUpdated = updated
	e.metrics.AddPricesRecomputed(updated)

	propagation, err := e.propagator.SyncToCatalog(e.logg.WithField(ctx, "step", "propagate"))
	if err != nil {
		return e.fail(ctx, report, start, err)
	}
	report.ProductsSynced = propagation.Synced
	report.Errors = append(report.Errors, propagation.Errors...)

	report.Success = true
	report.Message = fmt.Sprintf(
		"Prices table: %d added, %d updated, %d removed. Recalculated %d prices. Synced %d products.",
		rebuild.Added, rebuild.Updated, rebuild.Removed, updated, propagation.Synced,
	)
	report.FinishedAt = e.now().UTC()

	duration := time.Since(start)
	e.metrics.ObserveRun(metrics.OutcomeSuccess, duration)
	e.saveReport(ctx, report)
	e.logg.Info(e.logg.WithFields(ctx, map[string]any{
		"products_synced": report.ProductsSynced,
		"prices_updated":  report.PricesUpdated,
		"errors":          len(report.Errors),
		"duration_ms":     duration.Milliseconds(),
	}), "sync run complete")
	return report, nil
}

func (e *Engine) release(ctx context.Context) {
	if err := e.lock.Release(ctx); err != nil {
		e.logg.Error(ctx, "failed to release sync lock", err)
	}
}

// guard waits up to lockWait for the run lock so price table writers never
// overlap a sync. The returned context is detached from cancellation and must
// be used for the guarded work and passed to release.
func (e *Engine) guard(ctx context.Context) (context.Context, error) {
	deadline := time.NewTimer(e.lockWait)
	defer deadline.Stop()
	ticker := time.NewTicker(e.lockPoll)
	defer ticker.Stop()

	for {
		locked, err := e.lock.Acquire(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire sync lock")
		}
		if locked {
			return context.WithoutCancel(ctx), nil
		}
		select {
		case <-ctx.Done():
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, ctx.Err(), "sync in progress")
		case <-deadline.C:
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sync in progress, retry later")
		case <-ticker.C:
		}
	}
}

func (e *Engine) fail(ctx context.Context, report *Report, start time.Time, err error) (*Report, error) {
	report.Success = false
	report.Message = "Sync failed: " + errorMessage(err)
	report.Errors = append(report.Errors, errorMessage(err))
	report.FinishedAt = e.now().UTC()

	e.metrics.ObserveRun(metrics.OutcomeFailure, time.Since(start))
	e.saveReport(ctx, report)
	e.logg.Error(ctx, "sync run failed", err)
	return report, err
}

func (e *Engine) saveReport(ctx context.Context, report *Report) {
	if e.reports == nil {
		return
	}
	if err := e.reports.SaveLast(ctx, report); err != nil {
		e.logg.Warn(ctx, fmt.Sprintf("failed to cache sync report: %v", err))
	}
}

// LastReport returns the most recent cached report.
func (e *Engine) LastReport(ctx context.Context) (*Report, error) {
	if e.reports == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no sync report available")
	}
	return e.reports.Last(ctx)
}

// SyncSingleProduct writes one slave's stored price to the catalog without
// rebuilding or recomputing. The write happens even when the value is unchanged.
func (e *Engine) SyncSingleProduct(ctx context.Context, productID int64) (*SingleResult, error) {
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	ctx = e.logg.WithProductID(ctx, productID)

	entry, err := e.prices.GetBySlave(ctx, productID)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNoPriceEntry, "No price found for this product")
		}
		return nil, err
	}

	active, err := e.rels.HasActive(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrNoActiveRelationship, "Product has no active relationship")
	}

	if _, err := e.catalog.Resolve(ctx, productID); err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrProductNotFound, "Product not found")
		}
		return nil, err
	}

	price := entry.CalculatedPrice.Round(2)
	if err := e.catalog.SetRegularPrice(ctx, productID, price, enums.PriceChangeReasonSingleSync); err != nil {
		return nil, err
	}
	e.metrics.AddCatalogWrites(enums.PriceChangeReasonSingleSync.String(), 1)

	formatted := catalog.FormatPrice(price)
	e.logg.Info(e.logg.WithField(ctx, "price", formatted), "single product synced")
	return &SingleResult{
		ProductID: productID,
		Price:     formatted,
		Message:   fmt.Sprintf("Product synced. New price: %s", formatted),
	}, nil
}

// HandleProductDeleted removes every relationship that references the product
// and its price entry, then rebuilds the price table. Running it twice is safe.
func (e *Engine) HandleProductDeleted(ctx context.Context, productID int64) (*CleanupResult, error) {
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	ctx, err := e.guard(e.logg.WithProductID(ctx, productID))
	if err != nil {
		return nil, err
	}
	defer e.release(ctx)

	removed, err := e.rels.DeleteByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	entryRemoved, err := e.prices.DeleteBySlave(ctx, productID)
	if err != nil {
		return nil, err
	}
	rebuild, err := e.prices.RebuildFromRelationships(ctx)
	if err != nil {
		return nil, err
	}

	e.logg.Info(e.logg.WithFields(ctx, map[string]any{
		"relationships_removed": removed,
		"price_entry_removed":   entryRemoved,
	}), "product deletion cleanup complete")
	return &CleanupResult{
		ProductID:            productID,
		RelationshipsRemoved: removed,
		PriceEntryRemoved:    entryRemoved,
		Rebuild:              rebuild,
	}, nil
}

// DeletionHook adapts HandleProductDeleted to the catalog hook signature.
func (e *Engine) DeletionHook() catalog.DeletionHook {
	return func(ctx context.Context, productID int64) error {
		_, err := e.HandleProductDeleted(ctx, productID)
		return err
	}
}

// RefreshAfterAdd rebuilds the price table after a relationship is created.
func (e *Engine) RefreshAfterAdd(ctx context.Context) (*RefreshResult, error) {
	ctx, err := e.guard(ctx)
	if err != nil {
		return nil, err
	}
	defer e.release(ctx)

	rebuild, err := e.prices.RebuildFromRelationships(ctx)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{Rebuild: rebuild}, nil
}

// RefreshAfterBulkDelete rebuilds then recomputes after relationships are removed.
func (e *Engine) RefreshAfterBulkDelete(ctx context.Context) (*RefreshResult, error) {
	ctx, err := e.guard(ctx)
	if err != nil {
		return nil, err
	}
	defer e.release(ctx)

	rebuild, err := e.prices.RebuildFromRelationships(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := e.prices.Recompute(ctx)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{Rebuild: rebuild, PricesUpdated: updated}, nil
}

// IsConflict reports whether err is the run guard rejecting a concurrent sync.
func IsConflict(err error) bool {
	return pkgerrors.Is(err, pkgerrors.CodeConflict)
}
