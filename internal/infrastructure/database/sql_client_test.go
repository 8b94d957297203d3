package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLClient_Rebind(t *testing.T) {
	pg := &SQLClient{Driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM photos WHERE pin_id = $1 AND position > $2",
		pg.Rebind("SELECT * FROM photos WHERE pin_id = ? AND position > ?"))

	lite := &SQLClient{Driver: DriverSQLite}
	assert.Equal(t, "DELETE FROM pins WHERE id = ?", lite.Rebind("DELETE FROM pins WHERE id = ?"))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_foreign_keys=on", sqliteDSN("a.db"))
	assert.Equal(t, "a.db?cache=shared&_foreign_keys=on", sqliteDSN("a.db?cache=shared"))
	assert.Equal(t, "a.db?_foreign_keys=off", sqliteDSN("a.db?_foreign_keys=off"))
}

func TestNewSQLClient_SQLiteMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	client, err := NewSQLClient(ctx, DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Migrate(ctx))
	require.NoError(t, client.HealthCheck(ctx))

	var n int
	require.NoError(t, client.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('pins', 'photos')`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestNewSQLClient_Errors(t *testing.T) {
	_, err := NewSQLClient(context.Background(), DriverSQLite, "")
	assert.Error(t, err)

	_, err = NewSQLClient(context.Background(), "mysql", "x")
	assert.Error(t, err)
}
