package storage

import (
	"context"
	"fmt"

	"github.com/platinummonkey/catalog/pkg/auth"
	"github.com/platinummonkey/catalog/pkg/config"
)

// Open creates the configured store and the model the authorization layer should read from
// (the store itself, or the store behind a cache)
func Open(ctx context.Context, cfg config.StorageConfig) (Store, auth.Model, error) {
	var store Store
	switch cfg.Type {
	case "memory", "":
		store = NewMemoryStore()
	case "sqlite":
		s, err := OpenSQL(ctx, DriverSQLite, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		store = s
	case "postgres":
		s, err := OpenSQL(ctx, DriverPostgres, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		store = s
	default:
		return nil, nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}

	if cfg.CacheEnabled {
		return store, NewCachedModel(store, cfg.CacheSize, cfg.CacheTTL), nil
	}
	return store, store, nil
}
