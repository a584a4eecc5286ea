package compare

import (
	"errors"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/models"
)

const (
	noteNotInA    = "Item not found in dataset A"
	noteNullA     = "Source A has null value - not an unchanged price exception"
	errInvalidNum = "Invalid numeric value"
	errInvalidQty = "Invalid quantity value"
)

// Unchanged fails B records whose value equals the A value exactly. A null
// A value is passed with a note; a null B value is skipped.
func Unchanged(a, b []models.Record, opts Options) Outcome {
	a = Filter(a, opts.Keep)
	b = Filter(b, opts.Keep)
	lookup := index(a, opts.idField(), opts.Composite)

	var out Outcome
	for _, rb := range b {
		if rb.IsNull(opts.Field) {
			continue
		}
		id := Identifier(rb, opts.idField())
		identifier, description := label(rb, id)
		item := models.ValidationItem{
			Identifier:    identifier,
			InvID:         id,
			Description:   description,
			AssetType:     AssetType(rb),
			Field:         opts.Field,
			PrecisionType: models.PrecisionPercentage,
			Threshold:     0,
			Comparison:    "equal",
		}

		ra, ok := lookup[keyOf(rb, opts.idField(), opts.Composite)]
		if !ok {
			item.Note = noteNotInA
			item.DisplayChange = "-"
			if vb, err := rb.Float(opts.Field); err == nil {
				item.ValueB = Float(vb)
			}
			out.add(item)
			continue
		}
		out.Matched++

		if ra.IsNull(opts.Field) {
			item.Note = noteNullA
			item.DisplayChange = "-"
			if vb, err := rb.Float(opts.Field); err == nil {
				item.ValueB = Float(vb)
			}
			out.add(item)
			continue
		}

		va, errA := ra.Float(opts.Field)
		vb, errB := rb.Float(opts.Field)
		if errA != nil || errB != nil {
			item.IsFailed = true
			item.ThresholdExceeded = true
			item.Error = errInvalidNum
			out.add(item)
			continue
		}

		item.ValueA = Float(va)
		item.ValueB = Float(vb)
		unsigned, signed := PercentChange(va, vb)
		item.Change = Float(signed)
		item.ChangeValue = Float(unsigned)
		item.PercentageChange = Float(signed)
		if va == vb {
			item.IsFailed = true
			item.ThresholdExceeded = true
			item.Issue = opts.Issue
		}
		item.DisplayChange = formatPercentOrDash(item.Change)
		out.add(item)
	}
	return out
}

// MissingPrice fails B positions whose price field is null while the
// quantity is non-zero. A zero price is not an exception. Only B is checked;
// A supplies the prior price for display.
func MissingPrice(a, b []models.Record, priceField, qtyField string, opts Options) Outcome {
	a = Filter(a, opts.Keep)
	b = Filter(b, opts.Keep)
	prior := index(a, opts.idField(), false)

	var out Outcome
	for _, rb := range b {
		id := Identifier(rb, opts.idField())
		identifier, description := label(rb, id)
		item := models.ValidationItem{
			Identifier:  identifier,
			InvID:       id,
			Description: description,
			AssetType:   AssetType(rb),
			Field:       priceField,
			Threshold:   0,
			Comparison:  "is_null",
		}
		if ra, ok := prior[Key{ID: id}]; ok {
			out.Matched++
			if va, err := ra.Float(priceField); err == nil {
				item.ValueA = Float(va)
			}
		}

		if !rb.IsNull(priceField) {
			if vb, err := rb.Float(priceField); err == nil {
				item.ValueB = Float(vb)
			}
			out.add(item)
			continue
		}

		qty, err := rb.Float(qtyField)
		switch {
		case err != nil:
			item.IsFailed = true
			item.Error = errInvalidQty
		case qty != 0:
			item.IsFailed = true
			item.Issue = opts.Issue
		}
		item.ThresholdExceeded = item.IsFailed
		out.add(item)
	}
	return out
}

// NullMissing fails records whose field is null.
func NullMissing(records []models.Record, field string, opts Options) Outcome {
	records = Filter(records, opts.Keep)

	var out Outcome
	for _, r := range records {
		id := Identifier(r, opts.idField())
		identifier, description := label(r, id)
		item := models.ValidationItem{
			Identifier:  identifier,
			InvID:       id,
			Description: description,
			AssetType:   AssetType(r),
			Field:       field,
			Comparison:  "is_null",
		}
		if r.IsNull(field) {
			item.IsFailed = true
			item.ThresholdExceeded = true
			item.Issue = opts.Issue
		} else if v, err := r.Float(field); err == nil {
			item.ValueB = Float(v)
		}
		out.add(item)
	}
	return out
}

// ZeroQuantity fails records whose field is exactly zero. Non-numeric values
// fail with an error annotation.
func ZeroQuantity(records []models.Record, field string, opts Options) Outcome {
	records = Filter(records, opts.Keep)

	var out Outcome
	for _, r := range records {
		id := Identifier(r, opts.idField())
		identifier, description := label(r, id)
		item := models.ValidationItem{
			Identifier:  identifier,
			InvID:       id,
			Description: description,
			AssetType:   AssetType(r),
			Field:       field,
			Comparison:  "equal_zero",
		}
		v, err := r.Float(field)
		switch {
		case err != nil:
			item.IsFailed = true
			item.Error = errInvalidNum
			if errors.Is(err, models.ErrNullValue) {
				item.Note = "null value"
			}
		case v == 0:
			item.IsFailed = true
			item.Issue = opts.Issue
			item.ValueB = Float(v)
		default:
			item.ValueB = Float(v)
		}
		item.ThresholdExceeded = item.IsFailed
		out.add(item)
	}
	return out
}

func formatPercentOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return common.FormatPercent(*v)
}
