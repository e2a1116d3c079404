package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

// MigratePostgres creates the catalog tables if they are absent. It opens its
// own database/sql handle so the pgx pool used for data writes stays untouched.
func MigratePostgres(config Config) error {
	return MigratePostgresDSN(config.DSN())
}

// MigratePostgresDSN is MigratePostgres for an already rendered connection string.
func MigratePostgresDSN(dsn string) error {
	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}
	conn := stdlib.OpenDB(*connConfig)

	driver, err := migratepgx.WithInstance(conn, &migratepgx.Config{})
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to prepare postgres migrations: %w", err)
	}

	m, err := newMigrator("migrations/postgres", "pgx5", driver)
	if err != nil {
		driver.Close()
		return err
	}
	defer m.Close()

	return runUp(m)
}

// MigrateSQLite creates the catalog tables if they are absent. The caller keeps
// ownership of conn.
func MigrateSQLite(conn *sql.DB) error {
	driver, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to prepare sqlite migrations: %w", err)
	}

	m, err := newMigrator("migrations/sqlite", "sqlite", driver)
	if err != nil {
		return err
	}
	// Closing m would close conn through the driver.
	return runUp(m)
}

func newMigrator(dir, driverName string, driver database.Driver) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFiles, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

func runUp(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
