package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// MigrationTarget identifies the database a migration run applies to.
// DSN is a postgres URL or a SQLite file path depending on Driver.
type MigrationTarget struct {
	Driver string
	DSN    string
}

// MigrationStatus reports the schema version of a target
type MigrationStatus struct {
	Version uint
	Dirty   bool
	Applied bool
}

// MigrateUp runs all pending migrations
func MigrateUp(target MigrationTarget) error {
	m, err := getMigrate(target)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.WithField("driver", target.Driver).Info("No new migrations to apply")
		return nil
	}

	version, _, _ := m.Version()
	log.WithFields(log.Fields{
		"driver":  target.Driver,
		"version": version,
	}).Info("Successfully migrated")
	return nil
}

// MigrateDown rolls back the given number of migrations
func MigrateDown(target MigrationTarget, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}

	m, err := getMigrate(target)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Steps(-steps)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.WithField("driver", target.Driver).Info("No migrations to rollback")
		return nil
	}

	version, _, verr := m.Version()
	if errors.Is(verr, migrate.ErrNilVersion) {
		log.WithField("driver", target.Driver).Info("Rolled back all migrations")
		return nil
	}
	log.WithFields(log.Fields{
		"driver":  target.Driver,
		"version": version,
	}).Info("Successfully rolled back")
	return nil
}

// MigrateStatus returns the current migration version
func MigrateStatus(target MigrationTarget) (MigrationStatus, error) {
	m, err := getMigrate(target)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, nil
	}
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to get migration version: %w", err)
	}

	return MigrationStatus{Version: version, Dirty: dirty, Applied: true}, nil
}

// getMigrate builds a migrate instance over the embedded migrations for the
// target's driver. The instance owns its own connection.
func getMigrate(target MigrationTarget) (*migrate.Migrate, error) {
	var (
		driver database.Driver
		dir    string
		err    error
	)

	switch target.Driver {
	case DriverPostgres:
		driver, err = postgresDriver(target.DSN)
		dir = "migrations/postgres"
	case DriverSQLite:
		driver, err = sqliteDriver(target.DSN)
		dir = "migrations/sqlite"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", target.Driver)
	}
	if err != nil {
		return nil, err
	}

	sourceDriver, err := iofs.New(migrationsFS, dir)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, target.Driver, driver)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, nil
}

func postgresDriver(databaseURL string) (database.Driver, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	db := stdlib.OpenDB(*config.ConnConfig)
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	return driver, nil
}

func sqliteDriver(path string) (database.Driver, error) {
	db, err := sql.Open("sqlite", SQLiteDSN(path, 5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	return driver, nil
}
