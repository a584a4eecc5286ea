package validation

import (
	"math"
	"strings"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/models"
	"github.com/bobmcallan/navcheck/internal/services/compare"
)

// metricItem compares two aggregate values. Change carries the signed move
// in the KPI's unit and ChangeValue its magnitude; the tooltip shows the
// other unit.
func metricItem(identifier, field string, va, vb, threshold float64, precision models.PrecisionType) models.ValidationItem {
	precision = precision.OrDefault()
	absolute := precision == models.PrecisionAbsolute
	magnitude, signed := compare.Measure(va, vb, absolute)
	_, pct := compare.RelativeChange(va, vb)
	failed := compare.Exceeds(magnitude, threshold)

	item := models.ValidationItem{
		Identifier:        identifier,
		Field:             field,
		ValueA:            compare.Float(va),
		ValueB:            compare.Float(vb),
		Change:            compare.Float(signed),
		ChangeValue:       compare.Float(magnitude),
		PercentageChange:  compare.Float(pct),
		PrecisionType:     precision,
		Threshold:         threshold,
		IsFailed:          failed,
		ThresholdExceeded: failed,
	}
	if absolute {
		item.AbsoluteChange = compare.Float(magnitude)
		item.Comparison = "absolute_change"
		item.DisplayChange = common.FormatMoney(vb - va)
		item.TooltipChange = common.FormatPercent(pct)
	} else {
		item.Comparison = "percentage_change"
		item.DisplayChange = common.FormatPercent(pct)
		item.TooltipChange = common.FormatMoney(vb - va)
	}
	return item
}

func partition(item models.ValidationItem) (failed, passed []models.ValidationItem) {
	if item.IsFailed {
		return []models.ValidationItem{item}, nil
	}
	return nil, []models.ValidationItem{item}
}

// titleCase turns "other_admin_expenses" into "Other Admin Expenses".
func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// breakdownChange returns a child's change in the given precision.
func breakdownChange(va, vb float64, absolute bool) float64 {
	if absolute {
		return math.Abs(vb - va)
	}
	magnitude, _ := compare.RelativeChange(va, vb)
	return magnitude
}
