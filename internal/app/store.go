package app

import (
	"context"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"paymenthub/internal/config"
	"paymenthub/internal/repository"
	"paymenthub/internal/repository/boltdb"
	"paymenthub/internal/repository/postgres"
)

// NewStore opens the configured ledger backend. The returned Store owns the
// underlying connection and closes it on Close.
func NewStore(ctx context.Context, cfg config.Config, nrApp *newrelic.Application, logger *zap.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case "bolt":
		store, err := boltdb.New(cfg.Store.BoltPath)
		if err != nil {
			return nil, err
		}
		logger.Info("opened bolt store", zap.String("path", cfg.Store.BoltPath))
		return store, nil

	case "postgres":
		db, err := NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			return nil, err
		}
		if cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		logger.Info("connected to postgres",
			zap.String("host", cfg.Database.Host),
			zap.String("dbname", cfg.Database.DBName),
			zap.Bool("nrpq", nrApp != nil),
		)
		return postgres.NewStore(db), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
