package cmd

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"lotto/config"
	"lotto/database"
	"lotto/events"
	"lotto/repository"
	"lotto/repository/sqlitestore"
	"lotto/service"
)

// accountCreator is the operator-side write used by the seed command
type accountCreator interface {
	Create(ctx context.Context, userID string, balance int64) error
}

// store is the ledger backend selected by DATABASE_DRIVER
type store struct {
	driver     string
	uowFactory service.UnitOfWorkFactory
	accounts   accountCreator
	close      func()
}

func openStore(ctx context.Context, cfg *config.Config, bus *events.Bus) (*store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath, cfg.LockTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		log.WithField("path", cfg.SQLitePath).Info("SQLite ledger opened")
		return &store{
			driver:     config.DriverSQLite,
			uowFactory: sqlitestore.NewUnitOfWorkFactory(db, bus),
			accounts:   sqlitestore.NewUserRepository(db),
			close:      func() { _ = db.Close() },
		}, nil

	case config.DriverPostgres:
		db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("Postgres ledger connected")
		return &store{
			driver:     config.DriverPostgres,
			uowFactory: repository.NewUnitOfWorkFactory(db, bus, cfg.LockTimeout),
			accounts:   repository.NewUserRepository(db),
			close:      db.Close,
		}, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
}

// newLotteryService builds the engine from configuration
func newLotteryService(cfg *config.Config, uowFactory service.UnitOfWorkFactory) (service.LotteryService, error) {
	policy, err := service.ParsePolicy(strings.TrimSpace(cfg.Outcomes))
	if err != nil {
		return nil, fmt.Errorf("invalid LOTTO_OUTCOMES: %w", err)
	}

	return service.NewLotteryService(uowFactory, service.LotteryConfig{
		MaxDailyAttempts: cfg.MaxDailyAttempts,
		Policy:           policy,
		CurrencyName:     cfg.CurrencyName,
	}), nil
}
