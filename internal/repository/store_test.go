package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rpattn/assetscan/internal/config"
	"github.com/rpattn/assetscan/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteFromConfig(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	store, err := Open(ctx, config.StoreConfig{Driver: config.DriverSQLite, SQLitePath: path})
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, config.DriverSQLite, store.Driver)
	stats, err := store.Assets.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.FileAssets)
}

func TestOpenPostgresFromConfigUnreachable(t *testing.T) {
	cfg := db.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1

	store, err := Open(context.Background(), config.StoreConfig{Driver: config.DriverPostgres, Postgres: cfg})
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "oracle")
}
