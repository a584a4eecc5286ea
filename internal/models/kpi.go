package models

import (
	"encoding/json"
	"strings"
)

// PrecisionType selects relative or unit comparison.
type PrecisionType string

const (
	PrecisionPercentage PrecisionType = "PERCENTAGE"
	PrecisionAbsolute   PrecisionType = "ABSOLUTE"
)

// ParsePrecisionType maps stored spellings ("percentage", "ABSOLUTE", "0",
// "1") to a PrecisionType. Anything unknown is PERCENTAGE.
func ParsePrecisionType(s string) PrecisionType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ABSOLUTE", "1":
		return PrecisionAbsolute
	default:
		return PrecisionPercentage
	}
}

// OrDefault returns PERCENTAGE when p is unset.
func (p PrecisionType) OrDefault() PrecisionType {
	if p == "" {
		return PrecisionPercentage
	}
	return p
}

// UnmarshalJSON accepts any spelling ParsePrecisionType understands.
func (p *PrecisionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		if n == 1 {
			*p = PrecisionAbsolute
		} else {
			*p = PrecisionPercentage
		}
		return nil
	}
	*p = ParsePrecisionType(s)
	return nil
}

// UnmarshalYAML accepts any spelling ParsePrecisionType understands.
func (p *PrecisionType) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*p = ParsePrecisionType(s)
	return nil
}

// KPI is one catalog entry describing a configurable check.
type KPI struct {
	ID               int64         `json:"id" yaml:"id"`
	Code             string        `json:"kpi_code" yaml:"kpi_code"`
	Name             string        `json:"kpi_name" yaml:"kpi_name"`
	Category         string        `json:"category" yaml:"category"`
	NumeratorField   string        `json:"numerator_field" yaml:"numerator_field"`
	DenominatorField string        `json:"denominator_field,omitempty" yaml:"denominator_field"`
	PrecisionType    PrecisionType `json:"precision_type" yaml:"precision_type"`
	Description      string        `json:"description,omitempty" yaml:"description"`
	Active           bool          `json:"is_active" yaml:"is_active"`

	// DefaultThreshold applies when no fund or global override exists.
	DefaultThreshold *float64 `json:"default_threshold,omitempty" yaml:"default_threshold"`
}

// KPIThreshold is a stored threshold override. An empty FundID is the
// global override for the KPI.
type KPIThreshold struct {
	KPIID     int64   `json:"kpi_id" yaml:"kpi_id"`
	FundID    string  `json:"fund_id,omitempty" yaml:"fund_id"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// ResolveThreshold picks the fund-specific override, then the global
// override, then the KPI default. Nil means the KPI is not configured.
func ResolveThreshold(kpi KPI, overrides []KPIThreshold, fundID string) *float64 {
	var global *float64
	for i := range overrides {
		o := overrides[i]
		if o.KPIID != kpi.ID {
			continue
		}
		if fundID != "" && o.FundID == fundID {
			v := o.Threshold
			return &v
		}
		if o.FundID == "" && global == nil {
			v := o.Threshold
			global = &v
		}
	}
	if global != nil {
		return global
	}
	if kpi.DefaultThreshold != nil {
		v := *kpi.DefaultThreshold
		return &v
	}
	return nil
}
