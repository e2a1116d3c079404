// Package testinfra starts throwaway infrastructure for integration tests.
package testinfra

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "postgres:16-alpine"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "assetscan"

	// ConnEnv overrides the container with an existing database.
	ConnEnv = "ASSETSCAN_TEST_CONN"
)

var (
	containerOnce sync.Once
	containerConn string
	containerErr  error
)

// runPostgres starts the container. Replaced in tests.
var runPostgres = postgres.Run

// StartPostgres runs a disposable PostgreSQL container and returns its URL.
// A missing Docker daemon is reported as an error; testcontainers panics
// while resolving the Docker host in that case.
func StartPostgres(ctx context.Context) (ctr *postgres.PostgresContainer, connStr string, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctr, connStr, err = nil, "", fmt.Errorf("start postgres: docker unavailable: %v", r)
		}
	}()

	ctr, err = runPostgres(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("start postgres: %w", err)
	}

	connStr, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, "", fmt.Errorf("get connection string: %w", err)
	}
	return ctr, connStr, nil
}

// RequirePostgres returns a connection string for integration tests.
// Priority: ASSETSCAN_TEST_CONN > shared testcontainer > skip.
// Skips in -short mode.
func RequirePostgres(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if conn := os.Getenv(ConnEnv); conn != "" {
		return conn
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	containerOnce.Do(func() {
		_, containerConn, containerErr = StartPostgres(context.Background())
	})
	if containerErr != nil {
		t.Skipf("%s not set and Docker unavailable: %v", ConnEnv, containerErr)
	}
	return containerConn
}
