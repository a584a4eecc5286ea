package compare

import (
	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/models"
)

// Options configures a paired comparison.
type Options struct {
	Field     string // value field compared on both sides
	IDField   string // identifier field, default "Inv Id"
	Threshold float64
	Precision models.PrecisionType
	Composite bool   // match on (id, description) instead of id alone
	Issue     string // issue tag stamped on failed items
	Keep      func(models.Record) bool
}

func (o Options) idField() string {
	if o.IDField == "" {
		return models.FieldInvID
	}
	return o.IDField
}

// Outcome is the partitioned result of a comparison. Matched counts B items
// that found a partner in A.
type Outcome struct {
	Failed  []models.ValidationItem
	Passed  []models.ValidationItem
	Matched int
}

// Checked returns the number of items emitted.
func (o Outcome) Checked() int {
	return len(o.Failed) + len(o.Passed)
}

func (o *Outcome) add(item models.ValidationItem) {
	if item.IsFailed {
		o.Failed = append(o.Failed, item)
	} else {
		o.Passed = append(o.Passed, item)
	}
}

// Compare dispatches to Percentage or Absolute by opts.Precision.
func Compare(a, b []models.Record, opts Options) Outcome {
	if opts.Precision == models.PrecisionAbsolute {
		return Absolute(a, b, opts)
	}
	return Percentage(a, b, opts)
}

// Percentage pairs B records with A by identity and fails pairs whose
// unsigned percentage change exceeds the threshold. Pairs where either value
// is null are skipped. B records with no partner in A are passed with no
// change.
func Percentage(a, b []models.Record, opts Options) Outcome {
	return pairwise(a, b, opts, func(base models.ValidationItem, va, vb float64) models.ValidationItem {
		unsigned, signed := PercentChange(va, vb)
		failed := Exceeds(unsigned, opts.Threshold)

		base.Change = Float(signed)
		base.ChangeValue = Float(unsigned)
		base.PercentageChange = Float(signed)
		base.PrecisionType = models.PrecisionPercentage
		base.IsFailed = failed
		base.ThresholdExceeded = failed
		base.DisplayChange = common.FormatPercent(signed)
		base.TooltipChange = common.FormatMoney(vb - va)
		return base
	})
}

// Absolute pairs records like Percentage but fails on |B-A| > threshold.
func Absolute(a, b []models.Record, opts Options) Outcome {
	return pairwise(a, b, opts, func(base models.ValidationItem, va, vb float64) models.ValidationItem {
		diff, _ := Measure(va, vb, true)
		_, signed := PercentChange(va, vb)
		failed := Exceeds(diff, opts.Threshold)

		base.Change = Float(vb - va)
		base.ChangeValue = Float(diff)
		base.AbsoluteChange = Float(diff)
		base.PercentageChange = Float(signed)
		base.PrecisionType = models.PrecisionAbsolute
		base.IsFailed = failed
		base.ThresholdExceeded = failed
		base.DisplayChange = common.FormatMoney(diff)
		base.TooltipChange = common.FormatPercent(signed)
		return base
	})
}

type measureFunc func(base models.ValidationItem, va, vb float64) models.ValidationItem

func pairwise(a, b []models.Record, opts Options, measure measureFunc) Outcome {
	a = Filter(a, opts.Keep)
	b = Filter(b, opts.Keep)
	lookup := index(a, opts.idField(), opts.Composite)

	var out Outcome
	for _, rb := range b {
		id := Identifier(rb, opts.idField())
		identifier, description := label(rb, id)
		base := models.ValidationItem{
			Identifier:    identifier,
			InvID:         id,
			Description:   description,
			AssetType:     AssetType(rb),
			Field:         opts.Field,
			PrecisionType: opts.Precision.OrDefault(),
			Threshold:     opts.Threshold,
			Comparison:    "greater_than",
		}

		ra, ok := lookup[keyOf(rb, opts.idField(), opts.Composite)]
		if !ok {
			if vb, err := rb.Float(opts.Field); err == nil {
				base.ValueB = Float(vb)
			}
			base.DisplayChange = "-"
			base.Note = "Item not found in dataset A"
			out.add(base)
			continue
		}
		out.Matched++

		va, errA := ra.Float(opts.Field)
		vb, errB := rb.Float(opts.Field)
		if errA != nil || errB != nil {
			continue
		}
		base.ValueA = Float(va)
		base.ValueB = Float(vb)

		item := measure(base, va, vb)
		if item.IsFailed && opts.Issue != "" {
			item.Issue = opts.Issue
		}
		out.add(item)
	}
	return out
}
