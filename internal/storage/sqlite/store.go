// Package sqlite is the embedded snapshot store used for local runs and as
// the target of workbook imports.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/interfaces"
)

// Store wraps a SQLite database handle.
type Store struct {
	db     *sql.DB
	path   string
	logger *common.Logger
}

// NewStore opens (creating when needed) the database at path and ensures
// the schema exists.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database at %s: %w", path, err)
	}
	// PRAGMA foreign_keys is per connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, logger: logger}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug().Str("path", path).Msg("SQLite store opened")
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS nav_packs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	fund TEXT NOT NULL,
	source TEXT NOT NULL,
	file_date TEXT NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(fund, source, file_date, version)
);

CREATE TABLE IF NOT EXISTS snapshot_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	navpack_id INTEGER NOT NULL,
	kind TEXT NOT NULL,
	position INTEGER NOT NULL,
	fields TEXT NOT NULL,
	FOREIGN KEY(navpack_id) REFERENCES nav_packs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_snapshot_records_pack ON snapshot_records(navpack_id, kind, position);

CREATE TABLE IF NOT EXISTS kpi_library (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kpi_code TEXT NOT NULL UNIQUE,
	kpi_name TEXT NOT NULL,
	category TEXT,
	numerator_field TEXT,
	denominator_field TEXT,
	precision_type TEXT NOT NULL DEFAULT 'PERCENTAGE',
	description TEXT,
	default_threshold REAL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS kpi_thresholds (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kpi_id INTEGER NOT NULL,
	fund_id TEXT NOT NULL DEFAULT '',
	threshold_value REAL NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	FOREIGN KEY(kpi_id) REFERENCES kpi_library(id) ON DELETE CASCADE,
	UNIQUE(kpi_id, fund_id)
);

CREATE TABLE IF NOT EXISTS benchmark_values (
	benchmark TEXT NOT NULL,
	value_date TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (benchmark, value_date)
);
`

// Compile-time checks
var (
	_ interfaces.DataSource     = (*Store)(nil)
	_ interfaces.KPIStore       = (*Store)(nil)
	_ interfaces.BenchmarkStore = (*Store)(nil)
	_ interfaces.SnapshotWriter = (*Store)(nil)
)
