package validation

import (
	"math"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/models"
	"github.com/bobmcallan/navcheck/internal/services/compare"
)

const (
	idMajorDividends = "MAJOR_DIVIDENDS"
	idTotalDividends = "TOTAL_DIVIDENDS"
)

func (e *Engine) tradingIE(in Input, kpis []models.KPI) []models.ValidationResult {
	divA, divB := in.SnapshotA.Dividends, in.SnapshotB.Dividends
	tbA, tbB := in.SnapshotA.TrialBalance, in.SnapshotB.TrialBalance
	if len(divA) == 0 && len(divB) == 0 && len(tbA) == 0 && len(tbB) == 0 {
		return nil
	}

	var out []models.ValidationResult
	for _, kpi := range kpis {
		threshold, ok := in.threshold(kpi)
		if !ok {
			continue
		}

		var run func() []models.ValidationResult
		switch kpi.NumeratorField {
		case "dividend_amount":
			if len(divA) == 0 && len(divB) == 0 {
				continue
			}
			run = func() []models.ValidationResult {
				var failed, passed []models.ValidationItem
				if in.DualSource {
					failed, passed = dividendsBySecurity(divA, divB, threshold, kpi.PrecisionType)
				} else {
					failed, passed = partition(dividendTotals(divA, divB, threshold, kpi.PrecisionType))
				}
				return []models.ValidationResult{
					e.results.Detailed("PnL", "Trading I&E", kpiName(kpi, "Major Dividends"), failed, passed, threshold, &kpi),
				}
			}
		case models.MetricSwapFinancing:
			run = e.metricCheck(in, kpi, threshold, "Total Swap Financing", "Material Swap Financing")
		case models.MetricInterestAccruals:
			run = e.metricCheck(in, kpi, threshold, "Total Interest Accruals", "Material Interest Accruals")
		default:
			continue
		}

		out = append(out, e.guard("Trading I&E", "Error processing KPI "+kpiLabel(kpi), run)...)
	}
	return out
}

// metricCheck compares the KPI's numerator metric across the two sides.
func (e *Engine) metricCheck(in Input, kpi models.KPI, threshold float64, identifier, fallbackName string) func() []models.ValidationResult {
	return func() []models.ValidationResult {
		va := in.MetricsA.Get(kpi.NumeratorField)
		vb := in.MetricsB.Get(kpi.NumeratorField)
		item := metricItem(identifier, models.FieldEndingBalance, va, vb, threshold, kpi.PrecisionType)
		failed, passed := partition(item)
		return []models.ValidationResult{
			e.results.Detailed("PnL", "Trading I&E", kpiName(kpi, fallbackName), failed, passed, threshold, &kpi),
		}
	}
}

type securityKey struct {
	id   string
	name string
}

func (k securityKey) label() string {
	if k.name != "" {
		return k.name
	}
	return k.id
}

func dividendKey(r models.Record) securityKey {
	return securityKey{
		id:   r.FirstString(models.SecurityIDFields...),
		name: r.FirstString(models.SecurityNameFields...),
	}
}

// dividendAmount reads the amount column; null or unparsable is zero.
func dividendAmount(r models.Record) float64 {
	for _, f := range []string{models.FieldAmount, "amount"} {
		if v, err := r.Float(f); err == nil {
			return v
		}
	}
	return 0
}

// dividendsBySecurity compares each security present on either side. Only
// securities present on both sides can fail.
func dividendsBySecurity(a, b []models.Record, threshold float64, precision models.PrecisionType) (failed, passed []models.ValidationItem) {
	byA := map[securityKey]models.Record{}
	byB := map[securityKey]models.Record{}
	var order []securityKey
	for _, r := range a {
		k := dividendKey(r)
		if _, seen := byA[k]; !seen {
			order = append(order, k)
		}
		byA[k] = r
	}
	for _, r := range b {
		k := dividendKey(r)
		_, inA := byA[k]
		_, seen := byB[k]
		if !inA && !seen {
			order = append(order, k)
		}
		byB[k] = r
	}

	precision = precision.OrDefault()
	absolute := precision == models.PrecisionAbsolute
	for _, k := range order {
		ra, inA := byA[k]
		rb, inB := byB[k]
		item := models.ValidationItem{
			Identifier:    k.label(),
			InvID:         k.id,
			Description:   k.name,
			AssetType:     "-",
			Field:         models.FieldAmount,
			PrecisionType: precision,
			Threshold:     threshold,
			Comparison:    "greater_than",
			DisplayChange: "-",
		}
		var va, vb float64
		if inA {
			va = dividendAmount(ra)
			item.ValueA = compare.Float(va)
		}
		if inB {
			vb = dividendAmount(rb)
			item.ValueB = compare.Float(vb)
		}
		item.TooltipChange = common.FormatMoney(vb - va)

		if inA && inB {
			unsigned, signed := compare.PercentChange(va, vb)
			magnitude := unsigned
			if absolute {
				magnitude = math.Abs(vb - va)
				item.AbsoluteChange = compare.Float(magnitude)
			}
			item.Change = compare.Float(signed)
			item.ChangeValue = compare.Float(magnitude)
			item.PercentageChange = compare.Float(signed)
			item.DisplayChange = common.FormatPercent(signed)
			item.IsFailed = compare.Exceeds(magnitude, threshold)
			item.ThresholdExceeded = item.IsFailed
		} else if !inA {
			item.Note = "Item not found in dataset A"
		} else {
			item.Note = "Item not found in dataset B"
		}

		if item.IsFailed {
			item.Issue = "major_dividend_change"
			failed = append(failed, item)
		} else {
			passed = append(passed, item)
		}
	}
	return failed, passed
}

// dividendTotals builds the single-source summary: the total comparison
// with a "Total Dividends" child listing each paying security.
func dividendTotals(a, b []models.Record, threshold float64, precision models.PrecisionType) models.ValidationItem {
	perA := map[securityKey]float64{}
	perB := map[securityKey]float64{}
	var order []securityKey
	var totalA, totalB float64
	for _, r := range a {
		k := dividendKey(r)
		if _, seen := perA[k]; !seen {
			order = append(order, k)
		}
		v := dividendAmount(r)
		perA[k] += v
		totalA += v
	}
	for _, r := range b {
		k := dividendKey(r)
		_, inA := perA[k]
		_, seen := perB[k]
		if !inA && !seen {
			order = append(order, k)
		}
		v := dividendAmount(r)
		perB[k] += v
		totalB += v
	}

	precision = precision.OrDefault()
	unsigned, signed := compare.RelativeChange(totalA, totalB)
	diff := math.Abs(totalB - totalA)
	magnitude := unsigned
	if precision == models.PrecisionAbsolute {
		magnitude = diff
	}
	major := compare.Exceeds(magnitude, threshold)

	summary := func(identifier, invID, field, issue string) models.ValidationItem {
		return models.ValidationItem{
			Identifier:        identifier,
			InvID:             invID,
			Description:       identifier,
			AssetType:         "-",
			Field:             field,
			ValueA:            compare.Float(totalA),
			ValueB:            compare.Float(totalB),
			Change:            compare.Float(signed),
			ChangeValue:       compare.Float(magnitude),
			AbsoluteChange:    compare.Float(diff),
			PercentageChange:  compare.Float(signed),
			PrecisionType:     precision,
			Threshold:         threshold,
			IsFailed:          major,
			ThresholdExceeded: major,
			IsMajorChange:     compare.Bool(major),
			DisplayChange:     common.FormatPercent(signed),
			TooltipChange:     common.FormatMoney(totalB - totalA),
			Issue:             issue,
		}
	}

	total := summary("Total Dividends", idTotalDividends, "Total Amount", "total_dividend_change")
	total.IsChild = true
	total.ParentID = idMajorDividends
	for _, k := range order {
		total.Children = append(total.Children, models.ValidationItem{
			Identifier:    k.label(),
			InvID:         k.id,
			Description:   k.name,
			AssetType:     "-",
			Field:         "Dividend Amount",
			ValueA:        positiveOrNil(perA[k]),
			ValueB:        positiveOrNil(perB[k]),
			PrecisionType: precision,
			DisplayChange: "-",
			TooltipChange: "-",
			Issue:         "dividend_source",
			IsChild:       true,
			IsGrandchild:  true,
			ParentID:      idTotalDividends,
		})
	}

	parent := summary("Major Dividends", idMajorDividends, "Summary", "major_dividend_summary")
	parent.Children = []models.ValidationItem{total}
	return parent
}

func positiveOrNil(v float64) *float64 {
	if v > 0 {
		return compare.Float(v)
	}
	return nil
}
