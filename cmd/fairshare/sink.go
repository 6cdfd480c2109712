package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/fairshare/internal/config"
	"github.com/mmynk/fairshare/internal/storage"
	"github.com/mmynk/fairshare/internal/storage/postgres"
	"github.com/mmynk/fairshare/internal/storage/sqlite"
)

// openSink opens the configured snapshot sink. It returns nil when
// persistence is disabled.
func openSink(ctx context.Context, cfg config.PersistenceConfig) (storage.Sink, error) {
	switch cfg.Driver {
	case config.DriverNone:
		slog.Warn("Persistence disabled, state will be lost on exit")
		return nil, nil

	case config.DriverSQLite:
		sink, err := sqlite.New(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "driver", cfg.Driver, "database", cfg.SQLite.Path)
		return sink, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		sink := postgres.NewSnapshotStore(pool, pool.Close)
		if err := sink.EnsureSchema(ctx); err != nil {
			sink.Close()
			return nil, err
		}
		slog.Info("Storage initialized", "driver", cfg.Driver, "host", cfg.Postgres.Host, "database", cfg.Postgres.Name)
		return sink, nil

	default:
		return nil, fmt.Errorf("unknown persistence driver %q", cfg.Driver)
	}
}
