// Package models defines data structures for navcheck
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one flat line of a trial balance, portfolio valuation or
// dividend extract. The extra_data blob is decoded once into Extra.
type Record struct {
	Fields map[string]any
	Extra  ExtraData
}

// NewRecord builds a Record from a flat field map. An extra_data entry is
// removed from the map and decoded.
func NewRecord(fields map[string]any) Record {
	r := Record{Fields: make(map[string]any, len(fields))}
	for k, v := range fields {
		if k == FieldExtraData {
			r.Extra = ExtraDataFrom(v)
			continue
		}
		r.Fields[k] = v
	}
	return r
}

// Get returns the raw value of field.
func (r Record) Get(field string) (any, bool) {
	v, ok := r.Fields[field]
	return v, ok
}

// IsNull reports whether field is absent or holds a null marker: nil, "",
// "nan", "null", "none" (any case) or a NaN float.
func (r Record) IsNull(field string) bool {
	return IsNullValue(r.Fields[field])
}

// IsNullValue applies the null rules of Record.IsNull to a bare value.
func IsNullValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "nan", "null", "none":
			return true
		}
	case float64:
		return math.IsNaN(t)
	case float32:
		return math.IsNaN(float64(t))
	case json.Number:
		return t == ""
	}
	return false
}

// String returns field rendered as text, or "" when it is null.
func (r Record) String(field string) string {
	v := r.Fields[field]
	if IsNullValue(v) {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// FirstString returns the first non-empty value among fields.
func (r Record) FirstString(fields ...string) string {
	for _, f := range fields {
		if s := r.String(f); s != "" {
			return s
		}
	}
	return ""
}

// Float parses field as a number. It returns ErrNullValue for null markers
// and a parse error for anything else that is not numeric.
func (r Record) Float(field string) (float64, error) {
	return ToFloat(r.Fields[field])
}

// FloatOr parses field as a number, falling back to def for null or
// unparsable values.
func (r Record) FloatOr(field string, def float64) float64 {
	f, err := r.Float(field)
	if err != nil {
		return def
	}
	return f
}

// ToFloat converts a raw field value to float64. Infinite values are
// rejected as invalid numbers.
func ToFloat(v any) (float64, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid number %v", v)
	}
	return f, nil
}

func toFloat(v any) (float64, error) {
	if IsNullValue(v) {
		return 0, ErrNullValue
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		s = strings.TrimPrefix(s, "$")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", t)
		}
		if math.IsNaN(f) {
			return 0, ErrNullValue
		}
		return f, nil
	default:
		return 0, fmt.Errorf("invalid number of type %T", v)
	}
}

// Description returns the description carried in extra_data, falling back
// to the Description column.
func (r Record) Description() string {
	if r.Extra.Description != nil && *r.Extra.Description != "" {
		return *r.Extra.Description
	}
	return r.String(FieldDescription)
}

// MarshalJSON writes the record as a flat object with extra_data nested.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			out[k] = nil
			continue
		}
		out[k] = v
	}
	if !r.Extra.IsZero() {
		out[FieldExtraData] = r.Extra
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a flat object; extra_data may be an object or a
// JSON-encoded string.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = NewRecord(fields)
	return nil
}
