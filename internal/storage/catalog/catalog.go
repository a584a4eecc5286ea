// Package catalog serves the KPI catalog and thresholds from a YAML file.
package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/interfaces"
	"github.com/bobmcallan/navcheck/internal/models"
)

// File is the on-disk layout:
//
//	kpis:
//	  - kpi_code: major_price_change
//	    kpi_name: Major Price Change
//	    category: Pricing
//	    numerator_field: current_price
//	    precision_type: PERCENTAGE
//	thresholds:
//	  - kpi_code: major_price_change
//	    threshold: 5
type File struct {
	KPIs       []Entry     `yaml:"kpis"`
	Thresholds []Threshold `yaml:"thresholds"`
}

// Entry is one KPI. IsActive defaults to true when omitted.
type Entry struct {
	ID               int64                `yaml:"id"`
	Code             string               `yaml:"kpi_code"`
	Name             string               `yaml:"kpi_name"`
	Category         string               `yaml:"category"`
	NumeratorField   string               `yaml:"numerator_field"`
	DenominatorField string               `yaml:"denominator_field"`
	PrecisionType    models.PrecisionType `yaml:"precision_type"`
	Description      string               `yaml:"description"`
	IsActive         *bool                `yaml:"is_active"`
	DefaultThreshold *float64             `yaml:"default_threshold"`
}

// Threshold overrides a KPI's threshold, globally or for one fund. The KPI
// is referenced by id or by code.
type Threshold struct {
	KPIID     int64   `yaml:"kpi_id"`
	KPICode   string  `yaml:"kpi_code"`
	FundID    string  `yaml:"fund_id"`
	Threshold float64 `yaml:"threshold"`
}

// Store is an in-memory KPI store loaded from a catalog file.
type Store struct {
	kpis       []models.KPI
	thresholds []models.KPIThreshold
}

// Load reads and validates the catalog at path.
func Load(logger *common.Logger, path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read KPI catalog %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse KPI catalog %s: %w", path, err)
	}
	logger.Info().Str("path", path).Int("kpis", len(s.kpis)).Int("thresholds", len(s.thresholds)).Msg("KPI catalog loaded")
	return s, nil
}

// Parse builds a store from catalog YAML. KPIs without an id are numbered
// after the highest explicit id, in file order.
func Parse(data []byte) (*Store, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	var maxID int64
	for _, e := range f.KPIs {
		if e.ID > maxID {
			maxID = e.ID
		}
	}

	s := &Store{}
	byCode := map[string]int64{}
	seen := map[int64]bool{}
	for i, e := range f.KPIs {
		if e.Code == "" && e.Name == "" {
			return nil, fmt.Errorf("kpi %d: kpi_code or kpi_name is required", i+1)
		}
		id := e.ID
		if id == 0 {
			maxID++
			id = maxID
		}
		if seen[id] {
			return nil, fmt.Errorf("kpi %d: duplicate id %d", i+1, id)
		}
		seen[id] = true

		active := e.IsActive == nil || *e.IsActive
		s.kpis = append(s.kpis, models.KPI{
			ID:               id,
			Code:             e.Code,
			Name:             e.Name,
			Category:         e.Category,
			NumeratorField:   e.NumeratorField,
			DenominatorField: e.DenominatorField,
			PrecisionType:    e.PrecisionType.OrDefault(),
			Description:      e.Description,
			Active:           active,
			DefaultThreshold: e.DefaultThreshold,
		})
		if e.Code != "" {
			byCode[strings.ToLower(e.Code)] = id
		}
	}

	for i, t := range f.Thresholds {
		id := t.KPIID
		if id == 0 {
			var ok bool
			if id, ok = byCode[strings.ToLower(t.KPICode)]; !ok {
				return nil, fmt.Errorf("threshold %d: unknown kpi %q", i+1, t.KPICode)
			}
		} else if !seen[id] {
			return nil, fmt.Errorf("threshold %d: unknown kpi id %d", i+1, id)
		}
		s.thresholds = append(s.thresholds, models.KPIThreshold{KPIID: id, FundID: t.FundID, Threshold: t.Threshold})
	}
	return s, nil
}

// ActiveKPIs implements interfaces.KPIStore.
func (s *Store) ActiveKPIs(_ context.Context, category string) ([]models.KPI, error) {
	var out []models.KPI
	for _, k := range s.kpis {
		if !k.Active {
			continue
		}
		if category != "" && !strings.EqualFold(k.Category, category) {
			continue
		}
		out = append(out, k)
	}
	return out, nil
}

// KPIThreshold implements interfaces.KPIStore.
func (s *Store) KPIThreshold(_ context.Context, kpiID int64, fundID string) (*float64, error) {
	for _, k := range s.kpis {
		if k.ID == kpiID {
			return models.ResolveThreshold(k, s.thresholds, fundID), nil
		}
	}
	return nil, nil
}

// KPIs returns every catalog entry, inactive ones included.
func (s *Store) KPIs() []models.KPI {
	return append([]models.KPI(nil), s.kpis...)
}

// Thresholds returns every configured override.
func (s *Store) Thresholds() []models.KPIThreshold {
	return append([]models.KPIThreshold(nil), s.thresholds...)
}

var _ interfaces.KPIStore = (*Store)(nil)
