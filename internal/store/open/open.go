// Package open selects and constructs the configured store driver.
package open

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatline-server/internal/config"
	"github.com/vovakirdan/chatline-server/internal/store"
	"github.com/vovakirdan/chatline-server/internal/store/badger"
	"github.com/vovakirdan/chatline-server/internal/store/postgres"
	"github.com/vovakirdan/chatline-server/internal/store/sqlite"
)

// Store opens the driver named in cfg.Driver.
func Store(ctx context.Context, cfg config.StoreConfig, logger *zerolog.Logger) (store.Store, error) {
	switch cfg.Driver {
	case store.DriverSQLite, "":
		st, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", store.DriverSQLite).Str("db_path", cfg.SQLitePath).Msg("database initialized")
		return st, nil
	case store.DriverBadger:
		st, err := badger.New(cfg.BadgerDir, logger)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", store.DriverBadger).Str("dir", cfg.BadgerDir).Msg("database initialized")
		return st, nil
	case store.DriverPostgres:
		st, err := postgres.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", store.DriverPostgres).Msg("database initialized")
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
