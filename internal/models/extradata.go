package models

import (
	"encoding/json"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// ExtraData is the optional structure carried in a record's extra_data blob.
type ExtraData struct {
	Description   *string       `json:"description,omitempty"`
	GeneralLedger []LedgerEntry `json:"general_ledger,omitempty"`
}

// LedgerEntry is one general-ledger transaction behind a trial balance line.
type LedgerEntry struct {
	TranDescription string     `json:"tran_description"`
	LocalAmount     FlexNumber `json:"local_amount"`
}

// IsZero reports whether the blob carried nothing useful.
func (e ExtraData) IsZero() bool {
	return e.Description == nil && len(e.GeneralLedger) == 0
}

// FlexNumber decodes from either a JSON number or a numeric string. Empty
// or unparsable strings decode to zero.
type FlexNumber float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f, err := ToFloat(v)
	if err != nil {
		*n = 0
		return nil
	}
	*n = FlexNumber(f)
	return nil
}

// ParseExtraData decodes an extra_data string. Malformed JSON is repaired
// before giving up; an unusable blob yields an empty ExtraData.
func ParseExtraData(raw string) ExtraData {
	raw = strings.TrimSpace(raw)
	if raw == "" || IsNullValue(raw) {
		return ExtraData{}
	}

	var extra ExtraData
	if err := json.Unmarshal([]byte(raw), &extra); err == nil {
		return extra
	}

	repaired, err := jsonrepair.RepairJSON(raw)
	if err != nil {
		return ExtraData{}
	}
	extra = ExtraData{}
	if err := json.Unmarshal([]byte(repaired), &extra); err != nil {
		return ExtraData{}
	}
	return extra
}

// ExtraDataFrom decodes extra_data from whatever shape the source produced:
// a JSON string, raw bytes, an already-decoded object or an ExtraData.
func ExtraDataFrom(v any) ExtraData {
	switch t := v.(type) {
	case nil:
		return ExtraData{}
	case ExtraData:
		return t
	case *ExtraData:
		if t == nil {
			return ExtraData{}
		}
		return *t
	case string:
		return ParseExtraData(t)
	case []byte:
		return ParseExtraData(string(t))
	case json.RawMessage:
		return ParseExtraData(string(t))
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ExtraData{}
		}
		return ParseExtraData(string(b))
	}
}
