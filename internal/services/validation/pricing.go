package validation

import (
	"github.com/bobmcallan/navcheck/internal/models"
	"github.com/bobmcallan/navcheck/internal/services/compare"
)

const (
	issueMajorPrice   = "major_price_change"
	issueUnchanged    = "unchanged_price"
	issueMissingPrice = "missing_price_null"
)

func (e *Engine) pricing(in Input, kpis []models.KPI) []models.ValidationResult {
	a, b := in.SnapshotA.Portfolio, in.SnapshotB.Portfolio
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	var out []models.ValidationResult
	for _, kpi := range kpis {
		threshold, ok := in.threshold(kpi)
		if !ok {
			continue
		}

		var keep func(models.Record) bool
		switch kpi.NumeratorField {
		case "current_price":
			keep = compare.NotCash
		case "fx_rate":
			keep = compare.IsCashF
		default:
			continue
		}

		out = append(out, e.guard("Pricing", "Error processing KPI "+kpiLabel(kpi), func() []models.ValidationResult {
			o := compare.Compare(a, b, compare.Options{
				Field:     models.FieldEndPrice,
				Threshold: threshold,
				Precision: kpi.PrecisionType,
				Composite: true,
				Issue:     issueMajorPrice,
				Keep:      keep,
			})
			e.annotate("pricing", o.Failed)
			e.annotate("pricing", o.Passed)
			return []models.ValidationResult{
				e.results.Detailed("PnL", "Pricing", kpiName(kpi, "Unknown Price Validation"), o.Failed, o.Passed, threshold, &kpi),
			}
		})...)
	}

	// Period-over-period only; two sources quoting the same price is expected.
	if !in.DualSource {
		out = append(out, e.guard("Pricing", "Error in unchanged price validation", func() []models.ValidationResult {
			o := compare.Unchanged(a, b, compare.Options{
				Field: models.FieldEndPrice,
				Issue: issueUnchanged,
				Keep:  compare.NotCash,
			})
			return []models.ValidationResult{e.results.Default("PnL", "Pricing", "Unchanged Price", o.Failed, o.Passed)}
		})...)
	}

	out = append(out, e.guard("Pricing", "Error in missing price validation", func() []models.ValidationResult {
		o := compare.MissingPrice(a, b, models.FieldEndPrice, models.FieldEndQty, compare.Options{
			Issue: issueMissingPrice,
			Keep:  compare.NotCash,
		})
		return []models.ValidationResult{e.results.Default("PnL", "Pricing", "Missing Price", o.Failed, o.Passed)}
	})...)

	return out
}
