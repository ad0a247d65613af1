// Package database opens the configured store backend.
package database

import (
	"context"
	"fmt"

	"github.com/flathunt/platform/shared/config"
	"github.com/flathunt/platform/shared/store"
	"github.com/flathunt/platform/shared/store/mongo"
	"github.com/flathunt/platform/shared/store/postgres"
)

// Open connects to the database selected by cfg's runtime mode and driver.
// The caller owns the returned store and must Close it.
func Open(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return mongo.Open(ctx, cfg.DatabaseURL(), cfg.DatabaseName)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.DatabaseURL())
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
