package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/pricesync/pkg/config"
	"github.com/angelmondragon/pricesync/pkg/db"
	"github.com/angelmondragon/pricesync/pkg/logger"
)

// autoRunAllowed reports whether a binary may apply the embedded schema on
// boot: the flag must be on and the target must be dev or a sqlite file.
// Production postgres is migrated only through cmd/migrate.
func autoRunAllowed(cfg *config.Config) bool {
	if !cfg.FeatureFlags.AutoMigrate {
		return false
	}
	return cfg.App.IsDev() || cfg.DB.IsSQLite()
}

// MaybeRunDev applies the embedded migrations when autoRunAllowed permits it.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !autoRunAllowed(cfg) {
		if cfg.FeatureFlags.AutoMigrate {
			logg.Warn(logg.WithField(ctx, "env", cfg.App.Env), "auto-migrate ignored outside dev for postgres")
		}
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	dialect := DialectFor(cfg.DB)
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": dialect})
	logg.Info(ctx, "applying embedded migrations")

	if err := UpEmbedded(ctx, sqlDB, dialect); err != nil {
		return fmt.Errorf("auto-migrate (%s): %w", dialect, err)
	}
	logg.Info(ctx, "embedded migrations applied")
	return nil
}
