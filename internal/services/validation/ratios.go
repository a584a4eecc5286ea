package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/models"
	"github.com/bobmcallan/navcheck/internal/services/compare"
	"github.com/bobmcallan/navcheck/internal/services/metrics"
)

const excessReturnCode = "excess_return_over_benchmark"

var metricDisplayNames = map[string]string{
	"nav":                       "NAV",
	"NAV":                       "NAV",
	"investments":               "MV of Investments",
	"concentrated_assets_value": "Concentrated Assets",
	"largest_position_mv":       "Largest Position MV",
	"top_5_positions_mv":        "Top 5 Positions MV",
}

// MetricDisplayName returns the label shown for a metric field.
func MetricDisplayName(field string) string {
	if name, ok := metricDisplayNames[field]; ok {
		return name
	}
	return titleCase(field)
}

// metricKey maps a catalog field name ("Total Assets", "NAV") to its
// metric key.
func metricKey(field string) string {
	if field == "NAV" {
		return models.MetricNAV
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(field)), " ", "_")
}

// ratioType returns the ratio group reported as the result subType.
func ratioType(kpi models.KPI) string {
	c := strings.ToLower(kpi.Category)
	switch {
	case strings.Contains(c, "financial"):
		return "Financial"
	case strings.Contains(c, "liquidity"):
		return "Liquidity"
	case strings.Contains(c, "concentration"):
		return "Concentration"
	case strings.Contains(c, "sentiment"):
		return "Sentiment"
	case strings.Contains(c, "activity"):
		return "Activity"
	case metrics.Contains(kpi.Name, "asset", "concentration"):
		return "Concentration"
	}
	return "Financial"
}

func (e *Engine) ratios(in Input, kpis []models.KPI) []models.ValidationResult {
	if len(in.SnapshotA.TrialBalance) == 0 {
		return []models.ValidationResult{
			e.results.Error("Ratio", "Error", "Data Availability", "No trial balance data found"),
		}
	}

	var out []models.ValidationResult
	for _, kpi := range kpis {
		threshold, ok := in.threshold(kpi)
		if !ok || kpi.NumeratorField == "" || kpi.DenominatorField == "" {
			continue
		}
		out = append(out, e.guard("Ratios", "Error processing KPI "+kpiLabel(kpi), func() []models.ValidationResult {
			return []models.ValidationResult{e.ratio(in, kpi, threshold)}
		})...)
	}
	return out
}

func (e *Engine) ratio(in Input, kpi models.KPI, threshold float64) models.ValidationResult {
	num, den := metricKey(kpi.NumeratorField), metricKey(kpi.DenominatorField)
	d := &models.RatioDetail{
		RatioType:              ratioType(kpi),
		RatioSubType:           kpiName(kpi, "Unknown Ratio"),
		NumeratorField:         kpi.NumeratorField,
		DenominatorField:       kpi.DenominatorField,
		NumeratorA:             in.MetricsA.Get(num),
		NumeratorB:             in.MetricsB.Get(num),
		DenominatorA:           in.MetricsA.Get(den),
		DenominatorB:           in.MetricsB.Get(den),
		NumeratorDescription:   MetricDisplayName(kpi.NumeratorField),
		DenominatorDescription: MetricDisplayName(kpi.DenominatorField),
	}

	if strings.EqualFold(kpi.Code, excessReturnCode) {
		excessReturn(d)
	} else {
		divideRatio(d, in.DualSource)
	}
	if d.Change != nil {
		d.IsMajor = math.Abs(*d.Change) > threshold
	}

	item := models.ValidationItem{
		Identifier:        d.RatioSubType,
		Field:             d.Formula,
		ValueA:            d.SourceA,
		ValueB:            d.SourceB,
		Change:            d.Change,
		PrecisionType:     kpi.PrecisionType.OrDefault(),
		Threshold:         threshold,
		IsFailed:          d.IsMajor,
		ThresholdExceeded: d.IsMajor,
		IsMajorChange:     compare.Bool(d.IsMajor),
		Comparison:        "ratio_change",
		DisplayChange:     "-",
	}
	if d.Change != nil {
		item.ChangeValue = compare.Float(math.Abs(*d.Change))
		item.DisplayChange = common.FormatPercent(*d.Change)
	}
	failed, passed := partition(item)
	res := e.results.Detailed("Ratio", d.RatioType, d.RatioSubType, failed, passed, threshold, &kpi)
	res.Data.Ratio = d
	return res
}

// divideRatio fills the ratio pair and its change. A zero denominator leaves
// that side's ratio nil and the change undefined.
func divideRatio(d *models.RatioDetail, dual bool) {
	d.Formula = fmt.Sprintf("= %s / %s", d.NumeratorDescription, d.DenominatorDescription)
	if d.DenominatorA != 0 {
		d.SourceA = compare.Float(d.NumeratorA / d.DenominatorA)
	}
	if d.DenominatorB != 0 {
		d.SourceB = compare.Float(d.NumeratorB / d.DenominatorB)
	}
	if d.SourceA == nil || d.SourceB == nil {
		return
	}

	a, b := *d.SourceA, *d.SourceB
	var change float64
	switch {
	case a == 0 && b != 0:
		change = 100
	case a == 0:
		change = 0
	case dual:
		change = math.Abs(b-a) / a * 100
	default:
		change = (b/a - 1) * 100
	}
	d.Change = compare.Float(change)
}

// excessReturn compares numerator minus denominator (fund return less
// benchmark return) instead of their quotient.
func excessReturn(d *models.RatioDetail) {
	d.Formula = fmt.Sprintf("= %s - %s", d.NumeratorDescription, d.DenominatorDescription)
	a := d.NumeratorA - d.DenominatorA
	b := d.NumeratorB - d.DenominatorB
	d.SourceA = compare.Float(a)
	d.SourceB = compare.Float(b)

	var change float64
	if a != 0 {
		change = (b - a) / math.Abs(a) * 100
	} else {
		change = b * 100
	}
	d.Change = compare.Float(change)
}
