// Package metrics derives the normalized metric set for one snapshot.
package metrics

import (
	"math"
	"sort"

	"github.com/bobmcallan/navcheck/internal/models"
)

// ReturnContext carries the externally resolved inputs to the return
// metrics. Zero values disable the corresponding calculation.
type ReturnContext struct {
	PreviousNAV     float64 `json:"previous_nav"`
	BenchmarkReturn float64 `json:"benchmark_return"`
}

// Compute derives every metric for a snapshot. It never fails: a panic
// while reading a record set leaves the metrics gathered so far in place
// and every key present.
func Compute(s *models.Snapshot, rc ReturnContext) models.MetricSet {
	m := models.NewMetricSet()
	if s == nil {
		return m
	}

	safely(func() { trialBalance(m, s.TrialBalance) })
	safely(func() { portfolio(m, s.Portfolio) })
	safely(func() { dividends(m, s.Dividends) })
	safely(func() { derived(m, s.TrialBalance, rc) })
	return m
}

// ComputeTrialBalance derives metrics from a trial balance alone.
func ComputeTrialBalance(records []models.Record) models.MetricSet {
	return Compute(&models.Snapshot{TrialBalance: records}, ReturnContext{})
}

func safely(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}

func derived(m models.MetricSet, tb []models.Record, rc ReturnContext) {
	m[models.MetricLiquidAssets] = m[models.MetricCashAndEquivalents]

	var concentrated float64
	for _, r := range tb {
		if Contains(r.String(models.FieldCategory), "Investment") {
			concentrated += balance(r)
		}
	}
	m[models.MetricConcentratedAssetsValue] = concentrated

	var fundReturn float64
	if rc.PreviousNAV > 0 {
		fundReturn = (m[models.MetricNAV] - rc.PreviousNAV) / rc.PreviousNAV * 100
	}
	m[models.MetricFundReturn] = fundReturn
	m[models.MetricPortfolioReturn] = fundReturn
	m[models.MetricBenchmarkReturn] = rc.BenchmarkReturn
	m[models.MetricExcessReturn] = fundReturn - rc.BenchmarkReturn
}

func dividends(m models.MetricSet, records []models.Record) {
	if len(records) == 0 {
		return
	}
	var total float64
	for _, r := range records {
		total += r.FloatOr(models.FieldAmount, 0)
	}
	m[models.MetricTotalDividendsReceived] = total
	m[models.MetricIncomeFromInvestments] = total
	if tmv := m[models.MetricTotalMarketValue]; tmv > 0 {
		m[models.MetricDividendYield] = total / tmv
	}
}

func portfolio(m models.MetricSet, records []models.Record) {
	if len(records) == 0 {
		return
	}

	var tmv, qty, long, short float64
	var magnitudes []float64
	var sectorOrder []string
	var haveMV bool
	largest := math.Inf(-1)
	sectors := map[string]float64{}
	for _, r := range records {
		if mv, err := r.Float(models.FieldEndLocalMV); err == nil {
			haveMV = true
			tmv += mv
			if mv > largest {
				largest = mv
			}
			magnitudes = append(magnitudes, math.Abs(mv))

			sector := r.String(models.FieldInvType)
			if _, seen := sectors[sector]; !seen {
				sectorOrder = append(sectorOrder, sector)
			}
			sectors[sector] += mv
		}

		q := r.FloatOr(models.FieldEndQty, 0)
		qty += q
		book := r.FloatOr(models.FieldEndBookMV, 0)
		if q >= 0 {
			long += book
		} else {
			short += book
		}
	}

	if haveMV {
		count := float64(len(records))
		m[models.MetricTotalMarketValue] = tmv
		m[models.MetricTotalPortfolioValue] = tmv
		m[models.MetricInvestments] = tmv
		m[models.MetricTotalPositions] = count
		m[models.MetricAveragePositionSize] = tmv / count
		m[models.MetricLargestPositionMV] = largest
		if tmv > 0 {
			m[models.MetricSingleAssetConcentration] = largest / tmv
		}

		sort.Sort(sort.Reverse(sort.Float64Slice(magnitudes)))
		m[models.MetricTopHoldingsValue] = sumFirst(magnitudes, 10)
		m[models.MetricTop5PositionsMV] = sumFirst(magnitudes, 5)

		largestSector := math.Inf(-1)
		for _, s := range sectorOrder {
			if sectors[s] > largestSector {
				largestSector = sectors[s]
			}
		}
		m[models.MetricSectorAssets] = largestSector
		if tmv > 0 {
			m[models.MetricSectorConcentration] = largestSector / tmv
		}
	}

	m[models.MetricTotalQuantity] = qty

	long, short = math.Abs(long), math.Abs(short)
	m[models.MetricNetLongExposure] = long
	m[models.MetricNetLongPositions] = long + short
	m[models.MetricNetShortPositions] = long - short
	m[models.MetricGrossExposure] = m[models.MetricNetLongPositions] + math.Abs(m[models.MetricNetShortPositions])
	m[models.MetricNetExposure] = m[models.MetricNetLongPositions] - math.Abs(m[models.MetricNetShortPositions])
}

func sumFirst(values []float64, n int) float64 {
	var total float64
	for i := 0; i < n && i < len(values); i++ {
		total += values[i]
	}
	return total
}
