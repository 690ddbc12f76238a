package migrate

import (
	"context"

	"github.com/RedAvocado22/quadzone-checkout/pkg/config"
	"github.com/RedAvocado22/quadzone-checkout/pkg/db"
	"github.com/RedAvocado22/quadzone-checkout/pkg/logger"
)

// MaybeRunDev applies pending migrations on startup in development when the
// auto-migrate feature flag is set. Production deploys always migrate via the
// dedicated migrate binary.
func MaybeRunDev(ctx context.Context, cfg *config.Config, client *db.Client, log *logger.Logger) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}

	log.Info(log.WithField(ctx, "dir", DefaultDir), "running startup migrations")
	return Run(ctx, sqlDB, DefaultDir, "up")
}
