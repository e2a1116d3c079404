// Package config loads the immutable run configuration from the environment,
// an optional .env file and an optional config.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rpattn/assetscan/internal/db"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is built once at startup and handed to every component.
type Config struct {
	Scan  ScanConfig
	Store StoreConfig
	Log   LogConfig
}

// ScanConfig drives the scanner, classifier and introspector.
type ScanConfig struct {
	Extensions            []string
	SensitiveMarkers      []string
	RecencyDays           int
	MinRows               int
	SpreadsheetExtensions []string
	ExcludeFSTypes        []string
}

// StoreConfig selects and parameterizes the relational store.
type StoreConfig struct {
	Driver     string
	SQLitePath string
	Postgres   db.Config
}

// LogConfig controls the error log sink.
type LogConfig struct {
	ErrorFile string
	Verbose   bool
}

var envBindings = map[string]string{
	"scan.extensions":             "FILE_EXTENSIONS",
	"scan.sensitive_markers":      "SENSITIVE_PATTERNS",
	"scan.recency_days":           "N_DAYS",
	"scan.min_rows":               "MIN_ROW",
	"scan.spreadsheet_extensions": "SPREADSHEET_EXTENSIONS",
	"scan.exclude_fstypes":        "EXCLUDE_FSTYPES",
	"store.driver":                "STORE_DRIVER",
	"store.sqlite_path":           "SQLITE_PATH",
	"database.host":               "DB_HOST",
	"database.port":               "DB_PORT",
	"database.user":               "DB_USER",
	"database.password":           "DB_PASSWORD",
	"database.dbname":             "DB_NAME",
	"database.sslmode":            "DB_SSLMODE",
	"log.error_file":              "ERROR_LOG",
	"log.verbose":                 "VERBOSE",
}

// DefaultExcludeFSTypes lists pseudo filesystems that never hold user files.
var DefaultExcludeFSTypes = []string{
	"proc", "sysfs", "devtmpfs", "devpts", "cgroup", "cgroup2", "securityfs",
	"debugfs", "tracefs", "mqueue", "pstore", "bpf", "configfs", "fusectl",
	"hugetlbfs", "autofs", "binfmt_misc", "overlay", "squashfs", "nsfs",
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Scan: ScanConfig{
			Extensions:            []string{".xlsx", ".xls", ".xlsm", ".csv"},
			RecencyDays:           30,
			MinRows:               3,
			SpreadsheetExtensions: []string{".xlsx", ".xls", ".xlsm", ".xltx", ".xltm", ".csv"},
			ExcludeFSTypes:        append([]string(nil), DefaultExcludeFSTypes...),
		},
		Store: StoreConfig{
			Driver:     DriverPostgres,
			SQLitePath: "assetscan.db",
			Postgres:   db.DefaultConfig(),
		},
		Log: LogConfig{
			ErrorFile: "error.log",
		},
	}
}

// Load reads .env and config.yaml from configPath (both optional), applies
// environment overrides on top of Default and validates the result.
func Load(configPath string) (Config, error) {
	if err := loadDotEnv(filepath.Join(configPath, ".env")); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Default()

	ints := []struct {
		key    string
		target *int
	}{
		{"scan.recency_days", &cfg.Scan.RecencyDays},
		{"scan.min_rows", &cfg.Scan.MinRows},
		{"database.port", &cfg.Store.Postgres.Port},
	}
	for _, field := range ints {
		if !v.IsSet(field.key) {
			continue
		}
		value, err := intValue(v, field.key)
		if err != nil {
			return Config{}, err
		}
		*field.target = value
	}

	if v.IsSet("scan.extensions") {
		cfg.Scan.Extensions = listValue(v, "scan.extensions")
	}
	if v.IsSet("scan.sensitive_markers") {
		cfg.Scan.SensitiveMarkers = listValue(v, "scan.sensitive_markers")
	}
	if v.IsSet("scan.spreadsheet_extensions") {
		cfg.Scan.SpreadsheetExtensions = listValue(v, "scan.spreadsheet_extensions")
	}
	if v.IsSet("scan.exclude_fstypes") {
		cfg.Scan.ExcludeFSTypes = listValue(v, "scan.exclude_fstypes")
	}
	if v.IsSet("store.driver") {
		cfg.Store.Driver = strings.ToLower(strings.TrimSpace(v.GetString("store.driver")))
	}
	if v.IsSet("store.sqlite_path") {
		cfg.Store.SQLitePath = v.GetString("store.sqlite_path")
	}
	if v.IsSet("database.host") {
		cfg.Store.Postgres.Host = v.GetString("database.host")
	}
	if v.IsSet("database.user") {
		cfg.Store.Postgres.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Store.Postgres.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Store.Postgres.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Store.Postgres.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("log.error_file") {
		cfg.Log.ErrorFile = v.GetString("log.error_file")
	}
	if v.IsSet("log.verbose") {
		cfg.Log.Verbose = v.GetBool("log.verbose")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if len(c.Scan.Extensions) == 0 {
		return errors.New("at least one file extension is required")
	}
	if c.Scan.RecencyDays < 0 {
		return fmt.Errorf("recency window must not be negative, got %d", c.Scan.RecencyDays)
	}
	if c.Scan.MinRows < 0 {
		return fmt.Errorf("minimum sample rows must not be negative, got %d", c.Scan.MinRows)
	}
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.Postgres.Port <= 0 {
			return fmt.Errorf("invalid database port %d", c.Store.Postgres.Port)
		}
	case DriverSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return errors.New("sqlite path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	if strings.TrimSpace(c.Log.ErrorFile) == "" {
		return errors.New("error log path is required")
	}
	return nil
}

// intValue rejects values that are not integers instead of reading them as 0.
func intValue(v *viper.Viper, key string) (int, error) {
	raw := v.Get(key)
	if s, ok := raw.(string); ok {
		raw = strings.TrimSpace(s)
	}
	value, err := cast.ToIntE(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q for %s: %w", v.Get(key), key, err)
	}
	return value, nil
}

// listValue accepts both a YAML sequence and a comma separated string.
func listValue(v *viper.Viper, key string) []string {
	var raw []string
	if s, ok := v.Get(key).(string); ok {
		raw = strings.Split(s, ",")
	} else {
		raw = v.GetStringSlice(key)
	}
	return normalizeList(raw)
}

func normalizeList(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
