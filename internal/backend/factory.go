// Package backend selects and wires a ledger store implementation from
// configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"ledgerd/internal/config"
	"ledgerd/internal/storage"
)

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// OpenStore creates the store named by cfg.DataBackend. The caller owns the
// returned store and must Close it.
func (f *Factory) OpenStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DataBackend {
	case "sqlite":
		store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return store, nil

	case "mongo":
		store, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("initialize mongo store: %w", err)
		}
		f.logger.Info("Initialized MongoDB backend", "database", cfg.MongoDatabase)
		return store, nil

	case "memory":
		f.logger.Info("Initialized memory backend")
		return storage.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}
