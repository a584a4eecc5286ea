package compare

import (
	"strings"

	"github.com/bobmcallan/navcheck/internal/models"
)

// Key identifies a record within a snapshot. Composite keys carry the
// extra_data description so that records sharing an id stay distinct.
type Key struct {
	ID          string
	Description string
	HasDesc     bool
}

// Identifier returns the plain identifier of r.
func Identifier(r models.Record, field string) string {
	return r.String(field)
}

// CompositeIdentifier returns (id, description) for r. HasDesc is false
// when extra_data carried no description.
func CompositeIdentifier(r models.Record, field string) Key {
	k := Key{ID: r.String(field)}
	if r.Extra.Description != nil {
		k.Description = *r.Extra.Description
		k.HasDesc = true
	}
	return k
}

// keyOf builds the lookup key for r under the given mode.
func keyOf(r models.Record, field string, composite bool) Key {
	if composite {
		return CompositeIdentifier(r, field)
	}
	return Key{ID: Identifier(r, field)}
}

// index maps keys to records; later duplicates win.
func index(records []models.Record, field string, composite bool) map[Key]models.Record {
	m := make(map[Key]models.Record, len(records))
	for _, r := range records {
		m[keyOf(r, field, composite)] = r
	}
	return m
}

// AssetType returns the investment type of r, or "-".
func AssetType(r models.Record) string {
	if s := r.FirstString(models.AssetTypeFields...); s != "" {
		return s
	}
	return "-"
}

// IsCash reports whether r is a CASH or CASHF position.
func IsCash(r models.Record) bool {
	switch strings.ToUpper(r.String(models.FieldInvType)) {
	case "CASH", "CASHF":
		return true
	}
	return false
}

// IsCashF reports whether r is a CASHF (FX cash) position.
func IsCashF(r models.Record) bool {
	return strings.EqualFold(r.String(models.FieldInvType), "CASHF")
}

// Filter returns the records for which keep is true. A nil keep returns
// records unchanged.
func Filter(records []models.Record, keep func(models.Record) bool) []models.Record {
	if keep == nil {
		return records
	}
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// NotCash keeps everything except CASH and CASHF.
func NotCash(r models.Record) bool { return !IsCash(r) }

// label returns the display identifier for a record: its description when
// present, else its id.
func label(r models.Record, id string) (identifier, description string) {
	description = r.Description()
	if description != "" {
		return description, description
	}
	return id, ""
}
