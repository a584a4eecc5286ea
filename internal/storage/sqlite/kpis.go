package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bobmcallan/navcheck/internal/models"
)

// ActiveKPIs implements interfaces.KPIStore.
func (s *Store) ActiveKPIs(ctx context.Context, category string) ([]models.KPI, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kpi_code, kpi_name, COALESCE(category, ''), COALESCE(numerator_field, ''),
		       COALESCE(denominator_field, ''), precision_type, COALESCE(description, ''),
		       is_active, default_threshold
		FROM kpi_library
		WHERE is_active AND (? = '' OR lower(category) = lower(?))
		ORDER BY id`, category, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query KPIs: %w", err)
	}
	defer rows.Close()

	var kpis []models.KPI
	for rows.Next() {
		var k models.KPI
		var precision string
		var def sql.NullFloat64
		if err := rows.Scan(&k.ID, &k.Code, &k.Name, &k.Category, &k.NumeratorField,
			&k.DenominatorField, &precision, &k.Description, &k.Active, &def); err != nil {
			return nil, fmt.Errorf("failed to scan KPI: %w", err)
		}
		k.PrecisionType = models.ParsePrecisionType(precision)
		if def.Valid {
			v := def.Float64
			k.DefaultThreshold = &v
		}
		kpis = append(kpis, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read KPIs: %w", err)
	}
	return kpis, nil
}

// KPIThreshold implements interfaces.KPIStore.
func (s *Store) KPIThreshold(ctx context.Context, kpiID int64, fundID string) (*float64, error) {
	kpi := models.KPI{ID: kpiID}
	var def sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `SELECT default_threshold FROM kpi_library WHERE id = ?`, kpiID).Scan(&def)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load KPI %d: %w", kpiID, err)
	}
	if def.Valid {
		v := def.Float64
		kpi.DefaultThreshold = &v
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT fund_id, threshold_value FROM kpi_thresholds
		WHERE kpi_id = ? AND is_active AND (fund_id = '' OR fund_id = ?)`, kpiID, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query thresholds for KPI %d: %w", kpiID, err)
	}
	defer rows.Close()

	var overrides []models.KPIThreshold
	for rows.Next() {
		o := models.KPIThreshold{KPIID: kpiID}
		if err := rows.Scan(&o.FundID, &o.Threshold); err != nil {
			return nil, fmt.Errorf("failed to scan threshold: %w", err)
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read thresholds: %w", err)
	}

	return models.ResolveThreshold(kpi, overrides, fundID), nil
}

// SaveKPI inserts or updates a catalog entry, keyed by kpi_code.
func (s *Store) SaveKPI(ctx context.Context, kpi models.KPI) error {
	if kpi.Code == "" {
		return fmt.Errorf("kpi_code is required")
	}
	name := kpi.Name
	if name == "" {
		name = kpi.Code
	}

	var id any
	if kpi.ID > 0 {
		id = kpi.ID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kpi_library (id, kpi_code, kpi_name, category, numerator_field, denominator_field,
		                         precision_type, description, default_threshold, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kpi_code) DO UPDATE SET
			kpi_name = excluded.kpi_name,
			category = excluded.category,
			numerator_field = excluded.numerator_field,
			denominator_field = excluded.denominator_field,
			precision_type = excluded.precision_type,
			description = excluded.description,
			default_threshold = excluded.default_threshold,
			is_active = excluded.is_active`,
		id, kpi.Code, name, kpi.Category, kpi.NumeratorField, kpi.DenominatorField,
		string(kpi.PrecisionType.OrDefault()), kpi.Description, kpi.DefaultThreshold, kpi.Active)
	if err != nil {
		return fmt.Errorf("failed to save KPI %s: %w", kpi.Code, err)
	}
	s.logger.Debug().Str("code", kpi.Code).Msg("KPI saved")
	return nil
}

// SaveThreshold inserts or replaces the override for (kpi, fund).
func (s *Store) SaveThreshold(ctx context.Context, t models.KPIThreshold) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kpi_thresholds (kpi_id, fund_id, threshold_value) VALUES (?, ?, ?)
		ON CONFLICT(kpi_id, fund_id) DO UPDATE SET threshold_value = excluded.threshold_value, is_active = TRUE`,
		t.KPIID, t.FundID, t.Threshold)
	if err != nil {
		return fmt.Errorf("failed to save threshold for KPI %d: %w", t.KPIID, err)
	}
	return nil
}
