package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/migrations"
)

// RunMigrations applies every pending embedded migration over the pool.
// An up-to-date schema is not an error.
func RunMigrations(db *DB, logger *zap.Logger) error {
	m, closeFn, err := newMigrator(db, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("Schema up to date")
		return nil
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	logger.Info("Applied migrations", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// newMigrator builds a migrate instance on a database/sql view of the pool.
// The returned close func releases the migrator without closing the pool.
func newMigrator(db *DB, logger *zap.Logger) (*migrate.Migrate, func(), error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	return m, func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("Failed to close migrator",
				zap.NamedError("source_error", srcErr),
				zap.NamedError("database_error", dbErr))
		}
		_ = sqlDB.Close()
	}, nil
}
