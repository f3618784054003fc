// Package database opens the configured store and builds its repositories.
package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/ckbfs-faucet/internal/config"
	"github.com/prn-tf/ckbfs-faucet/internal/repository"
	"github.com/prn-tf/ckbfs-faucet/internal/repository/postgres"
	"github.com/prn-tf/ckbfs-faucet/internal/repository/sqlite"
)

// DB is the lifecycle surface shared by the SQLite and PostgreSQL stores.
type DB interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Migrate(ctx context.Context) error
	Version(ctx context.Context) (current, latest int, err error)
	Close() error
}

var (
	_ DB = (*sqlite.DB)(nil)
	_ DB = (*postgres.DB)(nil)
)

// Open connects to the database selected by cfg.Driver and returns its
// repositories. Migrations are not applied.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (DB, *repository.Repositories, error) {
	logger = logger.With().Str("component", "database").Str("driver", cfg.Driver).Logger()

	switch cfg.Driver {
	case "sqlite":
		sqliteCfg := sqlite.DefaultConfig(cfg.Path)
		if cfg.JournalMode != "" {
			sqliteCfg.JournalMode = cfg.JournalMode
		}
		if cfg.BusyTimeout > 0 {
			sqliteCfg.BusyTimeout = cfg.BusyTimeout
		}

		db, err := sqlite.NewDB(ctx, sqliteCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return db, &repository.Repositories{
			Product:    sqlite.NewProductRepository(db),
			AccessKey:  sqlite.NewAccessKeyRepository(db),
			ClaimEvent: sqlite.NewClaimEventRepository(db),
		}, nil

	case "postgres":
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return db, &repository.Repositories{
			Product:    postgres.NewProductRepository(db),
			AccessKey:  postgres.NewAccessKeyRepository(db),
			ClaimEvent: postgres.NewClaimEventRepository(db),
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
