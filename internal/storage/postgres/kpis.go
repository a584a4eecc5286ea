package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bobmcallan/navcheck/internal/models"
)

// ActiveKPIs implements interfaces.KPIStore.
func (s *Store) ActiveKPIs(ctx context.Context, category string) ([]models.KPI, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, kpi_code, kpi_name, COALESCE(category, ''), COALESCE(numerator_field, ''),
		       COALESCE(denominator_field, ''), precision_type, COALESCE(description, ''),
		       is_active, default_threshold::float8
		FROM kpi_library
		WHERE is_active AND ($1 = '' OR lower(category) = lower($1))
		ORDER BY id`, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query KPIs: %w", err)
	}
	defer rows.Close()

	var kpis []models.KPI
	for rows.Next() {
		var k models.KPI
		var precision string
		if err := rows.Scan(&k.ID, &k.Code, &k.Name, &k.Category, &k.NumeratorField,
			&k.DenominatorField, &precision, &k.Description, &k.Active, &k.DefaultThreshold); err != nil {
			return nil, fmt.Errorf("failed to scan KPI: %w", err)
		}
		k.PrecisionType = models.ParsePrecisionType(precision)
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
	err := s.pool.QueryRow(ctx,
		`SELECT default_threshold::float8 FROM kpi_library WHERE id = $1`, kpiID).Scan(&kpi.DefaultThreshold)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load KPI %d: %w", kpiID, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT fund_id, threshold_value::float8
		FROM kpi_thresholds
		WHERE kpi_id = $1 AND is_active AND (fund_id = '' OR fund_id = $2)`, kpiID, fundID)
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

// BenchmarkValue implements interfaces.BenchmarkStore.
func (s *Store) BenchmarkValue(ctx context.Context, benchmark string, date time.Time) (float64, bool, error) {
	var v float64
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM benchmark_values WHERE lower(benchmark) = lower($1) AND value_date = $2`,
		benchmark, date).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to load benchmark %s: %w", benchmark, err)
	}
	return v, true, nil
}
