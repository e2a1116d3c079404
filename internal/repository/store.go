package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpattn/assetscan/internal/config"
	"github.com/rpattn/assetscan/internal/db"
)

// Store bundles the repositories of one backend with the handle behind them.
type Store struct {
	Assets AssetRepository
	Audits AuditRepository
	Driver string

	close func()
}

// Open connects to the configured backend and makes sure the schema exists
// before returning. No data is written here.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return OpenPostgresConfig(ctx, cfg.Postgres)
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// OpenPostgresConfig connects through pgxpool and runs the postgres
// migrations, using the configured connection parameters.
func OpenPostgresConfig(ctx context.Context, cfg db.Config) (*Store, error) {
	if err := db.MigratePostgres(cfg); err != nil {
		return nil, err
	}

	conn, err := db.NewConnection(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newPostgresStore(conn), nil
}

// OpenPostgres is OpenPostgresConfig for a connection string or URL.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	if err := db.MigratePostgresDSN(dsn); err != nil {
		return nil, err
	}

	conn, err := db.NewConnectionFromDSN(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return newPostgresStore(conn), nil
}

func newPostgresStore(conn *db.Connection) *Store {
	return &Store{
		Assets: NewAssetRepository(conn.Pool),
		Audits: NewAuditRepository(conn.Pool),
		Driver: config.DriverPostgres,
		close:  conn.Close,
	}
}

// OpenSQLite opens the SQLite database at path and runs the sqlite migrations.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	conn, err := db.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateSQLite(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return NewSQLiteStore(conn), nil
}

// NewSQLiteStore wraps an already migrated SQLite handle.
func NewSQLiteStore(conn *sql.DB) *Store {
	return &Store{
		Assets: NewSQLiteAssetRepository(conn),
		Audits: NewSQLiteAuditRepository(conn),
		Driver: config.DriverSQLite,
		close:  func() { conn.Close() },
	}
}

// Close releases the underlying connection.
func (s *Store) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}
