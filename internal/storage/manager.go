// Package storage provides the top-level StorageManager that selects the
// snapshot, KPI and run-history backends from configuration.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/interfaces"
	"github.com/bobmcallan/navcheck/internal/storage/badger"
	"github.com/bobmcallan/navcheck/internal/storage/catalog"
	"github.com/bobmcallan/navcheck/internal/storage/postgres"
	"github.com/bobmcallan/navcheck/internal/storage/sqlite"
	"github.com/bobmcallan/navcheck/internal/storage/surrealdb"
)

// Backend names accepted in [storage].
const (
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendDatabase  = "database"
	BackendCatalog   = "catalog"
	BackendBadger    = "badger"
	BackendSurrealDB = "surrealdb"
	BackendNone      = "none"
)

// ErrReadOnly is returned when a write is requested from a data backend
// that does not accept imports.
var ErrReadOnly = errors.New("storage backend is read-only")

// snapshotStore is what every data backend provides.
type snapshotStore interface {
	interfaces.DataSource
	interfaces.KPIStore
	interfaces.BenchmarkStore
	io.Closer
}

// Manager implements interfaces.StorageManager.
type Manager struct {
	data   snapshotStore
	kpis   interfaces.KPIStore
	writer interfaces.SnapshotWriter
	runs   interfaces.RunStore
	closer []io.Closer
	logger *common.Logger
}

// NewManager opens the backends named in config.Storage.
func NewManager(ctx context.Context, logger *common.Logger, config *common.Config) (*Manager, error) {
	cfg := config.Storage
	m := &Manager{logger: logger}

	switch backend(cfg.Data, BackendSQLite) {
	case BackendPostgres:
		store, err := postgres.NewStore(ctx, logger, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres store: %w", err)
		}
		m.data = store
	case BackendSQLite:
		store, err := sqlite.NewStore(logger, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite store: %w", err)
		}
		m.data = store
		m.writer = store
	default:
		return nil, fmt.Errorf("unknown data backend: %s (supported: postgres, sqlite)", cfg.Data)
	}
	m.closer = append(m.closer, m.data)

	switch backend(cfg.KPIs, BackendDatabase) {
	case BackendDatabase:
		m.kpis = m.data
	case BackendCatalog:
		store, err := catalog.Load(logger, cfg.Catalog.Path)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("failed to load KPI catalog: %w", err)
		}
		m.kpis = store
	default:
		m.Close()
		return nil, fmt.Errorf("unknown KPI backend: %s (supported: database, catalog)", cfg.KPIs)
	}

	switch backend(cfg.Runs, BackendBadger) {
	case BackendBadger:
		store, err := badger.OpenRunStore(logger, cfg.Badger.Path)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("failed to create run store: %w", err)
		}
		m.runs = store
		m.closer = append(m.closer, store)
	case BackendSurrealDB:
		store, err := surrealdb.Connect(ctx, logger, cfg.SurrealDB)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("failed to create run store: %w", err)
		}
		m.runs = store
		m.closer = append(m.closer, store)
	case BackendNone:
	default:
		m.Close()
		return nil, fmt.Errorf("unknown run backend: %s (supported: badger, surrealdb, none)", cfg.Runs)
	}

	logger.Info().
		Str("data", backend(cfg.Data, BackendSQLite)).
		Str("kpis", backend(cfg.KPIs, BackendDatabase)).
		Str("runs", backend(cfg.Runs, BackendBadger)).
		Bool("writable", m.writer != nil).
		Msg("Storage manager initialized")

	return m, nil
}

func backend(name, fallback string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fallback
	}
	return name
}

func (m *Manager) DataSource() interfaces.DataSource {
	return m.data
}

func (m *Manager) KPIStore() interfaces.KPIStore {
	return m.kpis
}

func (m *Manager) BenchmarkStore() interfaces.BenchmarkStore {
	return m.data
}

// RunStore returns nil when run history is disabled.
func (m *Manager) RunStore() interfaces.RunStore {
	return m.runs
}

// SnapshotWriter returns nil when the data backend is read-only.
func (m *Manager) SnapshotWriter() interfaces.SnapshotWriter {
	return m.writer
}

// Close closes every opened backend, returning the first error.
func (m *Manager) Close() error {
	var firstErr error
	for i := len(m.closer) - 1; i >= 0; i-- {
		if err := m.closer[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.closer = nil
	return firstErr
}

// Writer returns sm's snapshot writer or ErrReadOnly.
func Writer(sm interfaces.StorageManager) (interfaces.SnapshotWriter, error) {
	if w := sm.SnapshotWriter(); w != nil {
		return w, nil
	}
	return nil, ErrReadOnly
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
