package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/navcheck/internal/models"
)

// RunService executes and records validation runs.
type RunService interface {
	Run(ctx context.Context, req models.RunRequest) (*models.ValidationRun, error)
	Evaluate(ctx context.Context, input EvaluateInput) ([]models.ValidationResult, error)
	Metrics(ctx context.Context, fund, source string, date time.Time) (models.MetricSet, error)
	InvalidateCache(fund string) int
}

// ReportService renders stored runs for download.
type ReportService interface {
	Workbook(ctx context.Context, runID string) ([]byte, error)
	Chart(ctx context.Context, runID string) ([]byte, error)
	Markdown(ctx context.Context, runID string) (string, error)
}

// EvaluateInput carries fully materialised inputs for a storage-free run.
// Thresholds are keyed by KPI id; a missing key means "not configured".
type EvaluateInput struct {
	SnapshotA  models.Snapshot     `json:"snapshot_a"`
	SnapshotB  *models.Snapshot    `json:"snapshot_b,omitempty"`
	KPIs       []models.KPI        `json:"kpis"`
	Thresholds map[int64]float64   `json:"thresholds"`
	DualSource bool                `json:"dual_source"`
	FundID     string              `json:"fund_id,omitempty"`
	Returns    *ReturnContextInput `json:"returns,omitempty"`
	FileChecks bool                `json:"file_checks,omitempty"`
}

// ReturnContextInput overrides return resolution for EvaluateInput.
type ReturnContextInput struct {
	PreviousNAVA     float64 `json:"previous_nav_a"`
	PreviousNAVB     float64 `json:"previous_nav_b"`
	BenchmarkReturnA float64 `json:"benchmark_return_a"`
	BenchmarkReturnB float64 `json:"benchmark_return_b"`
}
