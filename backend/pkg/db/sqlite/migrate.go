package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"microblog/backend/db"
	migrations "microblog/backend/pkg/db/migrations/sqlite"
)

// Connect opens the database at path and brings its schema up to date.
func Connect(path string) (*sql.DB, error) {
	sqlDB, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

// ApplyMigrations runs every pending up migration.
func ApplyMigrations(sqlDB *sql.DB) error {
	m, err := newMigrate(sqlDB)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}
	log.Printf("[Migrate] schema at version %d", version)
	return nil
}

// RollbackLastMigration reverts the most recently applied migration.
func RollbackLastMigration(sqlDB *sql.DB) error {
	m, err := newMigrate(sqlDB)
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback migration: %w", err)
	}
	log.Printf("[Migrate] rolled back last migration")
	return nil
}

// newMigrate binds golang-migrate to an existing handle. The returned
// instance is never closed: closing it would close sqlDB as well.
func newMigrate(sqlDB *sql.DB) (*migrate.Migrate, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("init migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return m, nil
}
