// Package dbtest opens migrated throwaway databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"leadaudit/pkg/database"
)

// New returns a migrated SQLite database stored under t.TempDir.
func New(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// Empty returns an unmigrated SQLite database.
func Empty(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "empty.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
