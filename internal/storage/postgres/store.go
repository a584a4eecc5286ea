// Package postgres reads snapshots, the KPI catalog, thresholds and
// benchmark levels from a shared Postgres database.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/interfaces"
)

// Store wraps a pgx connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *common.Logger
}

// NewStore connects to the database described by cfg and verifies the
// connection.
func NewStore(ctx context.Context, logger *common.Logger, cfg common.PostgresConfig) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("postgres url is not configured (set DATABASE_URL)")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	logger.Info().
		Str("host", poolCfg.ConnConfig.Host).
		Str("database", poolCfg.ConnConfig.Database).
		Int32("max_conns", poolCfg.MaxConns).
		Msg("Postgres store connected")

	return &Store{pool: pool, logger: logger}, nil
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Migrate creates the tables the store reads from when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	s.logger.Debug().Int("statements", len(schema)).Msg("Postgres schema ensured")
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS nav_packs (
		id         BIGSERIAL PRIMARY KEY,
		fund       TEXT NOT NULL,
		source     TEXT NOT NULL,
		file_date  DATE NOT NULL,
		version    INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (fund, source, file_date, version)
	)`,
	`CREATE TABLE IF NOT EXISTS snapshot_records (
		id         BIGSERIAL PRIMARY KEY,
		navpack_id BIGINT NOT NULL REFERENCES nav_packs(id) ON DELETE CASCADE,
		kind       TEXT NOT NULL,
		position   INTEGER NOT NULL,
		fields     JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshot_records_pack ON snapshot_records (navpack_id, kind, position)`,
	`CREATE TABLE IF NOT EXISTS kpi_library (
		id                BIGSERIAL PRIMARY KEY,
		kpi_code          TEXT NOT NULL UNIQUE,
		kpi_name          TEXT NOT NULL,
		category          TEXT,
		numerator_field   TEXT,
		denominator_field TEXT,
		precision_type    TEXT NOT NULL DEFAULT 'PERCENTAGE',
		description       TEXT,
		default_threshold NUMERIC(18, 6),
		is_active         BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS kpi_thresholds (
		id              BIGSERIAL PRIMARY KEY,
		kpi_id          BIGINT NOT NULL REFERENCES kpi_library(id) ON DELETE CASCADE,
		fund_id         TEXT NOT NULL DEFAULT '',
		threshold_value NUMERIC(18, 6) NOT NULL,
		is_active       BOOLEAN NOT NULL DEFAULT TRUE,
		UNIQUE (kpi_id, fund_id)
	)`,
	`CREATE TABLE IF NOT EXISTS benchmark_values (
		benchmark  TEXT NOT NULL,
		value_date DATE NOT NULL,
		value      DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (benchmark, value_date)
	)`,
}

// Compile-time checks
var (
	_ interfaces.DataSource     = (*Store)(nil)
	_ interfaces.KPIStore       = (*Store)(nil)
	_ interfaces.BenchmarkStore = (*Store)(nil)
)
