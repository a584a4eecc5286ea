// Package common provides shared utilities for navcheck
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for navcheck
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Engine      EngineConfig    `toml:"engine"`
	Cache       CacheConfig     `toml:"cache"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	ReadTimeout  string   `toml:"read_timeout"`
	WriteTimeout string   `toml:"write_timeout"`
	IdleTimeout  string   `toml:"idle_timeout"`
	RateLimit    float64  `toml:"rate_limit"` // requests per second, 0 disables limiting
	RateBurst    int      `toml:"rate_burst"`
	CORSOrigins  []string `toml:"cors_origins"`
}

// GetReadTimeout parses and returns the read timeout
func (c *ServerConfig) GetReadTimeout() time.Duration {
	return parseDuration(c.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout parses and returns the write timeout
func (c *ServerConfig) GetWriteTimeout() time.Duration {
	return parseDuration(c.WriteTimeout, 120*time.Second)
}

// GetIdleTimeout parses and returns the idle timeout
func (c *ServerConfig) GetIdleTimeout() time.Duration {
	return parseDuration(c.IdleTimeout, 60*time.Second)
}

// StorageConfig selects and configures the storage backends.
type StorageConfig struct {
	Data      string          `toml:"data"` // "postgres" or "sqlite"
	KPIs      string          `toml:"kpis"` // "database" or "catalog"
	Runs      string          `toml:"runs"` // "badger", "surrealdb" or "none"
	Postgres  PostgresConfig  `toml:"postgres"`
	SQLite    SQLiteConfig    `toml:"sqlite"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Badger    BadgerConfig    `toml:"badger"`
	SurrealDB SurrealDBConfig `toml:"surrealdb"`
}

// PostgresConfig holds the Postgres connection settings.
type PostgresConfig struct {
	URL      string `toml:"url"`
	MaxConns int32  `toml:"max_conns"`
}

// SQLiteConfig holds the embedded SQLite database path.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// CatalogConfig points at a YAML KPI catalog.
type CatalogConfig struct {
	Path string `toml:"path"`
}

// BadgerConfig holds the run history directory.
type BadgerConfig struct {
	Path string `toml:"path"`
}

// SurrealDBConfig holds the SurrealDB connection settings.
type SurrealDBConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// EngineConfig holds settings consumed by the validation engine and the
// returns resolver. Fallback tables live here rather than in code.
type EngineConfig struct {
	ProductName        string             `toml:"product_name"`
	DefaultBenchmark   string             `toml:"default_benchmark"`
	NAVFallbackSources []string           `toml:"nav_fallback_sources"`
	BaselineNAVs       []BaselineNAV      `toml:"baseline_navs"`
	BenchmarkValues    []BenchmarkValue   `toml:"benchmark_values"`
	Annotations        []AnnotationConfig `toml:"annotations"`
}

// BaselineNAV pins a known NAV for a fund at a month-end.
type BaselineNAV struct {
	Fund string  `toml:"fund"` // empty matches any fund
	Date string  `toml:"date"`
	NAV  float64 `toml:"nav"`
}

// BenchmarkValue is one point of the fallback benchmark series.
type BenchmarkValue struct {
	Benchmark string  `toml:"benchmark"`
	Date      string  `toml:"date"`
	Value     float64 `toml:"value"`
}

// AnnotationConfig attaches display information to items whose description
// contains Match (case-insensitive).
type AnnotationConfig struct {
	Category string `toml:"category"` // "pricing" or "positions"
	Match    string `toml:"match"`
	Info     string `toml:"info"`
}

// CacheConfig holds the response cache settings.
type CacheConfig struct {
	Enabled         bool   `toml:"enabled"`
	TTL             string `toml:"ttl"`
	CleanupInterval string `toml:"cleanup_interval"`
}

// GetTTL parses and returns the cache entry lifetime
func (c *CacheConfig) GetTTL() time.Duration {
	return parseDuration(c.TTL, 15*time.Minute)
}

// GetCleanupInterval parses and returns the expired-entry sweep interval
func (c *CacheConfig) GetCleanupInterval() time.Duration {
	return parseDuration(c.CleanupInterval, 30*time.Minute)
}

// SchedulerConfig holds the cron schedule for unattended runs.
type SchedulerConfig struct {
	Enabled  bool           `toml:"enabled"`
	Schedule string         `toml:"schedule"`
	Timezone string         `toml:"timezone"`
	Jobs     []ScheduledJob `toml:"jobs"`
}

// ScheduledJob describes one recurring validation run.
type ScheduledJob struct {
	Fund       string   `toml:"fund"`
	FundID     string   `toml:"fund_id"`
	SourceA    string   `toml:"source_a"`
	SourceB    string   `toml:"source_b"`
	Categories []string `toml:"categories"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `toml:"level"`
	Output   string `toml:"output"` // "console" or "file"
	FilePath string `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  "30s",
			WriteTimeout: "120s",
			IdleTimeout:  "60s",
			RateLimit:    20,
			RateBurst:    40,
			CORSOrigins:  []string{"*"},
		},
		Storage: StorageConfig{
			Data: "sqlite",
			KPIs: "database",
			Runs: "badger",
			Postgres: PostgresConfig{
				MaxConns: 10,
			},
			SQLite:  SQLiteConfig{Path: "data/navcheck.db"},
			Catalog: CatalogConfig{Path: "config/kpis.yaml"},
			Badger:  BadgerConfig{Path: "data/runs"},
			SurrealDB: SurrealDBConfig{
				Address:   "ws://localhost:8000/rpc",
				Namespace: "navcheck",
				Database:  "navcheck",
				Username:  "root",
				Password:  "root",
			},
		},
		Engine: EngineConfig{
			ProductName:      "validus",
			DefaultBenchmark: "S&P 500 Index",
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             "15m",
			CleanupInterval: "30m",
		},
		Scheduler: SchedulerConfig{
			Schedule: "0 6 2 * *",
			Timezone: "UTC",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "./logs/navcheck.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NAVCHECK_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("NAVCHECK_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("NAVCHECK_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("NAVCHECK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if v := os.Getenv("NAVCHECK_RATE_LIMIT"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			config.Server.RateLimit = r
		}
	}

	// Storage overrides
	if v := os.Getenv("NAVCHECK_STORAGE_DATA"); v != "" {
		config.Storage.Data = strings.ToLower(v)
	}
	if v := os.Getenv("NAVCHECK_STORAGE_KPIS"); v != "" {
		config.Storage.KPIs = strings.ToLower(v)
	}
	if v := os.Getenv("NAVCHECK_STORAGE_RUNS"); v != "" {
		config.Storage.Runs = strings.ToLower(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		config.Storage.Postgres.URL = v
	}
	if v := os.Getenv("NAVCHECK_POSTGRES_URL"); v != "" {
		config.Storage.Postgres.URL = v
	}
	if v := os.Getenv("NAVCHECK_SQLITE_PATH"); v != "" {
		config.Storage.SQLite.Path = v
	}
	if v := os.Getenv("NAVCHECK_CATALOG_PATH"); v != "" {
		config.Storage.Catalog.Path = v
	}
	if v := os.Getenv("NAVCHECK_SURREALDB_ADDRESS"); v != "" {
		config.Storage.SurrealDB.Address = v
	}
	if v := os.Getenv("NAVCHECK_SURREALDB_PASSWORD"); v != "" {
		config.Storage.SurrealDB.Password = v
	}

	if v := os.Getenv("NAVCHECK_PRODUCT_NAME"); v != "" {
		config.Engine.ProductName = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
