package database

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

func migrationDir(driver string) (dialect, dir string, err error) {
	switch driver {
	case DriverSQLite:
		return "sqlite3", "migrations/sqlite", nil
	case DriverPostgres:
		return "postgres", "migrations/postgres", nil
	default:
		return "", "", fmt.Errorf("no migrations for driver %q", driver)
	}
}

// Migrate applies every pending embedded migration for the active driver.
func Migrate(ctx context.Context, db *DB) error {
	dialect, dir, err := migrationDir(db.Driver)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.DB, dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the latest applied migration version.
func MigrationVersion(ctx context.Context, db *DB) (int64, error) {
	dialect, _, err := migrationDir(db.Driver)
	if err != nil {
		return 0, err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("goose dialect: %w", err)
	}
	v, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return 0, fmt.Errorf("migration version: %w", err)
	}
	return v, nil
}
