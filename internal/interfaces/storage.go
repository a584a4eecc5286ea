// Package interfaces defines service contracts for navcheck
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/navcheck/internal/models"
)

// DataSource returns raw snapshot records for a (fund, source, date).
type DataSource interface {
	TrialBalance(ctx context.Context, fund, source string, date time.Time) ([]models.Record, error)
	PortfolioValuation(ctx context.Context, fund, source string, date time.Time) ([]models.Record, error)
	Dividends(ctx context.Context, fund, source string, date time.Time) ([]models.Record, error)
}

// KPIStore looks up the KPI catalog and per-fund thresholds.
type KPIStore interface {
	// ActiveKPIs returns active KPIs in category, or all when category is "".
	ActiveKPIs(ctx context.Context, category string) ([]models.KPI, error)

	// KPIThreshold resolves the threshold for a KPI and fund. A nil result
	// means the KPI is not configured for the fund.
	KPIThreshold(ctx context.Context, kpiID int64, fundID string) (*float64, error)
}

// BenchmarkStore returns index levels for benchmark return calculation.
type BenchmarkStore interface {
	BenchmarkValue(ctx context.Context, benchmark string, date time.Time) (float64, bool, error)
}

// SnapshotWriter persists ingested records. Implemented by the embedded
// stores used for local imports.
type SnapshotWriter interface {
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error
	SaveKPI(ctx context.Context, kpi models.KPI) error
	SaveThreshold(ctx context.Context, threshold models.KPIThreshold) error
	SaveBenchmarkValue(ctx context.Context, benchmark string, date time.Time, value float64) error
}

// RunStore persists completed validation runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *models.ValidationRun) error
	GetRun(ctx context.Context, id string) (*models.ValidationRun, error)
	ListRuns(ctx context.Context, fund string, limit int) ([]models.RunSummary, error)
	DeleteRun(ctx context.Context, id string) error
}

// StorageManager coordinates all storage backends
type StorageManager interface {
	DataSource() DataSource
	KPIStore() KPIStore
	BenchmarkStore() BenchmarkStore
	RunStore() RunStore

	// SnapshotWriter returns nil when the data backend is read-only.
	SnapshotWriter() SnapshotWriter

	Close() error
}
