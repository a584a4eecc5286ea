package validation

import (
	"errors"
	"fmt"

	"github.com/bobmcallan/navcheck/internal/models"
)

// ErrNoData is reported when neither trial balance nor portfolio rows exist
// for side A.
var ErrNoData = errors.New("no database data found")

const noDataMessage = "No database data found"

// Run groups the KPIs by category and runs each category's validator on
// the shared snapshots. A failing category yields one error result and the
// remaining categories still run.
func (e *Engine) Run(in Input) []models.ValidationResult {
	in = in.normalize()
	if len(in.SnapshotA.TrialBalance) == 0 && len(in.SnapshotA.Portfolio) == 0 {
		return []models.ValidationResult{
			e.results.Error("PnL", "Error", "Data Availability", noDataMessage),
		}
	}

	results := []models.ValidationResult{}
	for _, g := range groupByCategory(in.KPIs) {
		results = append(results, e.runCategory(g.category, in, g.kpis)...)
	}
	return results
}

func (e *Engine) runCategory(c Category, in Input, kpis []models.KPI) (out []models.ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			out = []models.ValidationResult{
				e.results.Error("PnL", "Error", c.String(), fmt.Sprintf("Error in %s validations: %v", c, r)),
			}
		}
	}()

	fn, ok := e.table[c]
	if !ok {
		return nil
	}
	return fn(e, in, kpis)
}
