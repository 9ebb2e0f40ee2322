package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadaudit/pkg/database"
	"leadaudit/pkg/database/dbtest"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		in     string
		want   string
	}{
		{"sqlite untouched", database.DriverSQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{"postgres numbered", database.DriverPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"quoted marks kept", database.DriverPostgres, "SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
		{"no placeholders", database.DriverPostgres, "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, database.Rebind(tt.driver, tt.in))
		})
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	require.NoError(t, database.Migrate(ctx, db))

	v, err := database.MigrationVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prospects`).Scan(&n))
	assert.Zero(t, n)
}

func TestIsSchemaMissing(t *testing.T) {
	db := dbtest.Empty(t)

	_, err := db.ExecContext(context.Background(), `SELECT id FROM prospects`)
	require.Error(t, err)
	assert.True(t, database.IsSchemaMissing(err))
	assert.False(t, database.IsSchemaMissing(errors.New("connection refused")))
	assert.False(t, database.IsSchemaMissing(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	insert := `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, 'x', CURRENT_TIMESTAMP)`
	_, err := db.ExecContext(ctx, insert, "u1", "a@example.com")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "u2", "a@example.com")
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(tx *database.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, 'x', CURRENT_TIMESTAMP)`, "u1", "a@example.com")
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n))
	assert.Zero(t, n)
}
