// Package validation runs the category validators for a pair of snapshots
// and routes catalog KPIs to them.
package validation

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/navcheck/internal/models"
	"github.com/bobmcallan/navcheck/internal/services/metrics"
	"github.com/bobmcallan/navcheck/internal/services/result"
)

// Annotation attaches display information to pricing or position items
// whose description contains Match (case-insensitive).
type Annotation struct {
	Category string
	Match    string
	Info     string
}

// Input is everything a validation pass needs. Snapshots are fetched and
// thresholds resolved by the caller; the engine performs no I/O.
type Input struct {
	SnapshotA *models.Snapshot
	SnapshotB *models.Snapshot

	// MetricsA/MetricsB are computed from the snapshots and the return
	// contexts when left nil.
	MetricsA models.MetricSet
	MetricsB models.MetricSet
	ReturnA  metrics.ReturnContext
	ReturnB  metrics.ReturnContext

	KPIs []models.KPI

	// Thresholds holds the resolved threshold per KPI id. A KPI without an
	// entry is not configured for the fund and is skipped.
	Thresholds map[int64]float64

	DualSource bool
	FundID     string
}

func (in Input) normalize() Input {
	if in.SnapshotA == nil {
		in.SnapshotA = &models.Snapshot{}
	}
	if in.SnapshotB == nil {
		in.SnapshotB = in.SnapshotA
	}
	if in.MetricsA == nil {
		in.MetricsA = metrics.Compute(in.SnapshotA, in.ReturnA)
	}
	if in.MetricsB == nil {
		in.MetricsB = metrics.Compute(in.SnapshotB, in.ReturnB)
	}
	return in
}

func (in Input) threshold(kpi models.KPI) (float64, bool) {
	t, ok := in.Thresholds[kpi.ID]
	return t, ok
}

// Engine evaluates KPIs against snapshot pairs.
type Engine struct {
	results     result.Builder
	annotations []Annotation
	table       map[Category]validatorFunc
}

// NewEngine creates an engine stamping results through b.
func NewEngine(b result.Builder, annotations []Annotation) *Engine {
	return &Engine{
		results:     b,
		annotations: annotations,
		table:       validators,
	}
}

// annotate marks items of the given category matching a configured entity.
func (e *Engine) annotate(category string, items []models.ValidationItem) {
	for i := range items {
		desc := items[i].Description
		if desc == "" {
			continue
		}
		for _, a := range e.annotations {
			if !strings.EqualFold(a.Category, category) || a.Match == "" {
				continue
			}
			if metrics.Contains(desc, a.Match) {
				items[i].IsCorpAction = true
				items[i].CorpActionInfo = a.Info
				break
			}
		}
	}
}

// guard evaluates fn, converting a panic into a System error result scoped
// to category.
func (e *Engine) guard(category, what string, fn func() []models.ValidationResult) (out []models.ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			out = []models.ValidationResult{
				e.results.Error("System", "Error", category, fmt.Sprintf("%s: %v", what, r)),
			}
		}
	}()
	return fn()
}

func kpiName(kpi models.KPI, fallback string) string {
	if kpi.Name != "" {
		return kpi.Name
	}
	return fallback
}

func kpiLabel(kpi models.KPI) string {
	if kpi.Code != "" {
		return kpi.Code
	}
	return kpi.Name
}
