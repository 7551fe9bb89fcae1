/**
 * @description
 * Versioned schema migrations applied automatically at startup.
 * Each migration is a forward-only, re-runnable SQL step embedded in the
 * binary; golang-migrate tracks the applied version so restarts are no-ops.
 *
 * @dependencies
 * - github.com/golang-migrate/migrate/v4
 * - standard "embed"
 */

package db

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/P2PPERU/sportbackend2-sub001/internal/config"
	"github.com/P2PPERU/sportbackend2-sub001/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies all pending schema migrations against cfg.DB.URL.
// Safe to run while the service is live: every step is additive.
func Migrate(cfg *config.Config) error {
	migrationsDir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to access migrations directory: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsDir, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, cfg.DB.URL)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration version %d is dirty, manual intervention required", version)
	}

	logger.Info("✅ Schema migrations applied (version %d)", version)
	return nil
}
