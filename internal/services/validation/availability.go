package validation

import (
	"fmt"
	"math"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/models"
	"github.com/bobmcallan/navcheck/internal/services/compare"
)

// balanceTolerance is the largest trial balance sum still treated as
// balanced.
const balanceTolerance = 0.01

// FileChecks reports data availability, file receipt and data quality for
// the run's snapshots. These checks do not depend on the KPI catalog.
func (e *Engine) FileChecks(in Input) []models.ValidationResult {
	a, b := in.SnapshotA, in.SnapshotB
	if a == nil {
		a = &models.Snapshot{}
	}
	distinct := b != nil && b != a && (b.Source != a.Source || !b.Date.Equal(a.Date))
	if !distinct {
		b = a
	}

	var out []models.ValidationResult
	out = append(out, e.availability(a, "sourceA")...)
	if distinct {
		out = append(out, e.availability(b, "sourceB")...)
	}
	out = append(out, e.fileReceived(a, b))
	out = append(out, e.quality(a, "sourceA")...)
	if distinct {
		out = append(out, e.quality(b, "sourceB")...)
	}
	return out
}

func (e *Engine) availability(s *models.Snapshot, label string) []models.ValidationResult {
	date := common.FormatDate(s.Date)
	return []models.ValidationResult{
		e.availabilityResult(s, label, "Trial Balance", len(s.TrialBalance),
			fmt.Sprintf("Trial balance data for %s on %s", s.Source, date)),
		e.availabilityResult(s, label, "Portfolio Valuation", len(s.Portfolio),
			fmt.Sprintf("Portfolio valuation data for %s on %s", s.Source, date)),
	}
}

func (e *Engine) availabilityResult(s *models.Snapshot, label, dataType string, count int, description string) models.ValidationResult {
	has := count > 0
	item := models.ValidationItem{
		Identifier:        dataType,
		Field:             "record_count",
		ValueB:            compare.Float(float64(count)),
		IsFailed:          !has,
		ThresholdExceeded: !has,
		Comparison:        "greater_than_zero",
		Note:              description,
	}
	failed, passed := partition(item)
	res := e.results.Default("Data Availability", dataType, label, failed, passed)
	res.Data.Availability = &models.AvailabilityDetail{
		DataType:    dataType,
		SourceLabel: label,
		Source:      s.Source,
		Date:        common.FormatDate(s.Date),
		RecordCount: count,
		HasData:     has,
		Description: description,
	}
	return res
}

func (e *Engine) fileReceived(a, b *models.Snapshot) models.ValidationResult {
	hasA, hasB := !a.Empty(), !b.Empty()
	received := hasA && hasB
	item := models.ValidationItem{
		Identifier:        "File Received",
		IsFailed:          !received,
		ThresholdExceeded: !received,
		Comparison:        "exists",
	}
	if !received {
		item.Issue = "file_not_received"
	}
	failed, passed := partition(item)

	// "file_revieved" is the type string existing consumers filter on.
	res := e.results.Default("file_revieved", "File Status", "File Received", failed, passed)
	res.Data.FileStatus = &models.FileStatusDetail{
		SourceA:      a.Source,
		SourceB:      b.Source,
		DateA:        common.FormatDate(a.Date),
		DateB:        common.FormatDate(b.Date),
		HasDataA:     hasA,
		HasDataB:     hasB,
		FileReceived: received,
		DataSource:   "database",
	}
	return res
}

// quality runs the structural checks: the trial balance nets to zero and
// no position carries a negative local market value.
func (e *Engine) quality(s *models.Snapshot, label string) []models.ValidationResult {
	var out []models.ValidationResult
	date := common.FormatDate(s.Date)

	if len(s.TrialBalance) > 0 {
		var total float64
		for _, r := range s.TrialBalance {
			total += r.FloatOr(models.FieldEndingBalance, 0)
		}
		balanced := math.Abs(total) < balanceTolerance
		out = append(out, e.qualityResult(s, label, "Trial Balance Balance", balanced, total, balanceTolerance,
			fmt.Sprintf("Trial balance balances for %s on %s", s.Source, date)))
	}

	if len(s.Portfolio) > 0 {
		var negative int
		for _, r := range s.Portfolio {
			if v, err := r.Float(models.FieldEndLocalMV); err == nil && v < 0 {
				negative++
			}
		}
		out = append(out, e.qualityResult(s, label, "Portfolio Market Values", negative == 0, float64(negative), 0,
			fmt.Sprintf("No negative market values in portfolio for %s on %s", s.Source, date)))
	}
	return out
}

func (e *Engine) qualityResult(s *models.Snapshot, label, check string, ok bool, value, tolerance float64, description string) models.ValidationResult {
	item := models.ValidationItem{
		Identifier:        check,
		ValueB:            compare.Float(value),
		IsFailed:          !ok,
		ThresholdExceeded: !ok,
		Note:              description,
	}
	failed, passed := partition(item)
	res := e.results.Default("Data Quality", check, label, failed, passed)
	res.Data.Quality = &models.QualityDetail{
		Check:       check,
		Source:      s.Source,
		Date:        common.FormatDate(s.Date),
		Value:       value,
		Tolerance:   tolerance,
		Description: description,
	}
	return res
}
