// File: internal/platform/database/migrate.go
package database

import (
	"errors"
	"fmt"

	"kanoonwise_backend/internal/config"
	"kanoonwise_backend/migrations"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// MigrateUp applies all pending migrations from the embedded migration set.
// Running it against an up-to-date database is a no-op.
func MigrateUp(cfg *config.Config, logger *zap.Logger) error {
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer closeMigrator(m, logger)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("Database schema already up to date.")
			return nil
		}
		return fmt.Errorf("migrate up failed: %w", err)
	}
	logger.Info("Database migrations applied.")
	return nil
}

// MigrateDown rolls back the most recent migration. Note that the role-enum
// migration's down step is a documented no-op: Postgres cannot drop enum values.
func MigrateDown(cfg *config.Config, logger *zap.Logger) error {
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer closeMigrator(m, logger)

	if err := m.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("No migration to roll back.")
			return nil
		}
		return fmt.Errorf("migrate down failed: %w", err)
	}
	logger.Info("Rolled back one migration.")
	return nil
}

func newMigrator(cfg *config.Config) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.MigrateURL())
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate, logger *zap.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("Migration source close error", zap.Error(srcErr))
	}
	if dbErr != nil {
		logger.Warn("Migration database close error", zap.Error(dbErr))
	}
}
