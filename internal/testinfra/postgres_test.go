package testinfra

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestStartPostgresReportsDockerPanicAsError(t *testing.T) {
	original := runPostgres
	defer func() { runPostgres = original }()

	runPostgres = func(ctx context.Context, img string, opts ...testcontainers.ContainerCustomizer) (*postgres.PostgresContainer, error) {
		panic("rootless Docker not found")
	}

	ctr, conn, err := StartPostgres(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rootless Docker not found")
	assert.Nil(t, ctr)
	assert.Empty(t, conn)
}

func TestRequirePostgresUsesEnvironmentOverride(t *testing.T) {
	if testing.Short() {
		t.Skip("RequirePostgres skips in short mode")
	}
	t.Setenv(ConnEnv, "postgres://u:p@db.test:5432/x")
	assert.Equal(t, "postgres://u:p@db.test:5432/x", RequirePostgres(t))
}
