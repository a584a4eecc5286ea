package validation

import (
	"github.com/bobmcallan/navcheck/internal/models"
	"github.com/bobmcallan/navcheck/internal/services/compare"
)

func (e *Engine) positions(in Input, kpis []models.KPI) []models.ValidationResult {
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
		switch kpi.NumeratorField {
		case "trade_volume", "corp_action_volume":
		default:
			continue
		}

		out = append(out, e.guard("Positions", "Error processing KPI "+kpiLabel(kpi), func() []models.ValidationResult {
			o := compare.Compare(a, b, compare.Options{
				Field:     models.FieldEndQty,
				Threshold: threshold,
				Precision: kpi.PrecisionType,
				Composite: true,
				Issue:     "major_position_change",
			})
			e.annotate("positions", o.Failed)
			e.annotate("positions", o.Passed)
			compare.SortCashLast(o.Failed)
			compare.SortCashLast(o.Passed)
			return []models.ValidationResult{
				e.results.Detailed("PnL", "Positions", "Major Position Changes", o.Failed, o.Passed, threshold, &kpi),
			}
		})...)
	}

	out = append(out, e.guard("Positions", "Error in missing FX/MV validation", func() []models.ValidationResult {
		o := compare.NullMissing(b, models.FieldEndLocalMV, compare.Options{Issue: "missing_fx_mv_data"})
		return []models.ValidationResult{e.results.Default("PnL", "Positions", "Missing FX/MV Data", o.Failed, o.Passed)}
	})...)

	return out
}

func (e *Engine) marketValue(in Input, kpis []models.KPI) []models.ValidationResult {
	a, b := in.SnapshotA.Portfolio, in.SnapshotB.Portfolio
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	var out []models.ValidationResult
	for _, kpi := range kpis {
		threshold, ok := in.threshold(kpi)
		if !ok || kpi.NumeratorField != "market_value" {
			continue
		}

		out = append(out, e.guard("Market Value", "Error processing KPI "+kpiLabel(kpi), func() []models.ValidationResult {
			o := compare.Compare(a, b, compare.Options{
				Field:     models.FieldEndBookMV,
				Threshold: threshold,
				Precision: kpi.PrecisionType,
				Composite: true,
				Issue:     "major_mv_change",
			})
			compare.SortCashLast(o.Failed)
			compare.SortCashLast(o.Passed)
			return []models.ValidationResult{
				e.results.Detailed("PnL", "Market Value", kpiName(kpi, "Major MV Change"), o.Failed, o.Passed, threshold, &kpi),
			}
		})...)
	}
	return out
}
