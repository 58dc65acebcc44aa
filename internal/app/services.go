package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/pricesync/internal/catalog"
	"github.com/angelmondragon/pricesync/internal/cron"
	"github.com/angelmondragon/pricesync/internal/prices"
	"github.com/angelmondragon/pricesync/internal/pricesync"
	"github.com/angelmondragon/pricesync/internal/relationships"
	"github.com/angelmondragon/pricesync/internal/settings"
	"github.com/angelmondragon/pricesync/pkg/config"
	"github.com/angelmondragon/pricesync/pkg/db"
	"github.com/angelmondragon/pricesync/pkg/logger"
	"github.com/angelmondragon/pricesync/pkg/metrics"
	"github.com/angelmondragon/pricesync/pkg/redis"
)

// ServicesParams carries the process-level clients shared by every binary.
// Redis is optional; without it the run lock is process-local and no report
// is cached.
type ServicesParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *db.Client
	Redis      *redis.Client
	Registerer prometheus.Registerer
}

// Services is the wired domain graph.
type Services struct {
	Catalog       catalog.Service
	Relationships relationships.Service
	Prices        prices.Service
	Settings      settings.Service
	Engine        *pricesync.Engine
}

// NewServices builds the catalog, relationship, price and settings services
// and the sync engine, and registers the engine's product deletion cascade.
func NewServices(params ServicesParams) (*Services, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	gdb := params.DB.DB()

	catalogSvc, err := catalog.NewService(catalog.NewRepository(gdb), params.DB)
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}
	relSvc, err := relationships.NewService(relationships.NewRepository(gdb), catalogSvc)
	if err != nil {
		return nil, fmt.Errorf("relationship service: %w", err)
	}
	priceSvc, err := prices.NewService(prices.NewRepository(gdb), relSvc, catalogSvc, params.Logger)
	if err != nil {
		return nil, fmt.Errorf("price service: %w", err)
	}
	settingsSvc, err := settings.NewService(settings.NewRepository(gdb), params.Config.Scheduler.Location())
	if err != nil {
		return nil, fmt.Errorf("settings service: %w", err)
	}

	lock, reports, err := runGuard(params.Config.Sync, params.Redis)
	if err != nil {
		return nil, err
	}

	var syncMetrics *metrics.SyncMetrics
	if params.Registerer != nil {
		syncMetrics = metrics.NewSyncMetrics(params.Registerer)
	}

	engine, err := pricesync.NewEngine(pricesync.EngineParams{
		Prices:        priceSvc,
		Relationships: relSvc,
		Catalog:       catalogSvc,
		Lock:          lock,
		Reports:       reports,
		Metrics:       syncMetrics,
		Logger:        params.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("sync engine: %w", err)
	}
	catalogSvc.OnProductDeleted(engine.DeletionHook())

	return &Services{
		Catalog:       catalogSvc,
		Relationships: relSvc,
		Prices:        priceSvc,
		Settings:      settingsSvc,
		Engine:        engine,
	}, nil
}

func runGuard(cfg config.SyncConfig, client *redis.Client) (pricesync.RunLock, pricesync.ReportCache, error) {
	if client == nil {
		return cron.NewLocalLock(), nil, nil
	}
	lock, err := cron.NewRedisLock(client, client.LockKey(cfg.LockKey), cfg.LockTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("sync lock: %w", err)
	}
	reports, err := pricesync.NewRedisReportCache(client, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("report cache: %w", err)
	}
	return lock, reports, nil
}
