package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, 21, cfg.PhotosPerPage)
	assert.Equal(t, 40, cfg.MaxRandomPage)
	assert.Equal(t, ViewportStoreFile, cfg.ViewportStore)
	assert.GreaterOrEqual(t, cfg.DownloadWorkers, 2)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "10s", cfg.HTTPTimeout().String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("PHOTOS_PER_PAGE", "9")
	t.Setenv("SERVER_PORT", ":9090")
	t.Setenv("SEARCH_RADIUS_KM", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, 9, cfg.PhotosPerPage)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.InDelta(t, 2.5, cfg.SearchRadiusKm, 1e-9)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "DATABASE_DRIVER", "mysql"},
		{"unknown viewport store", "VIEWPORT_STORE", "s3"},
		{"firestore without project", "VIEWPORT_STORE", "firestore"},
		{"zero page size", "PHOTOS_PER_PAGE", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ExplicitEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "app.env")
	require.NoError(t, os.WriteFile(path, []byte("MAX_RANDOM_PAGE=7\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MAX_RANDOM_PAGE") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxRandomPage)
}
