package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bobmcallan/navcheck/internal/models"
)

// Records of the latest nav pack version for (fund, source, date). Fund and
// source match case-insensitively.
const recordsQuery = `
	SELECT r.fields
	FROM snapshot_records r
	JOIN nav_packs p ON p.id = r.navpack_id
	WHERE r.kind = $4
	  AND p.id = (
		SELECT id FROM nav_packs
		WHERE lower(fund) = lower($1) AND lower(source) = lower($2) AND file_date = $3
		ORDER BY version DESC
		LIMIT 1
	  )
	ORDER BY r.position`

// TrialBalance implements interfaces.DataSource.
func (s *Store) TrialBalance(ctx context.Context, fund, source string, date time.Time) ([]models.Record, error) {
	return s.records(ctx, models.KindTrialBalance, fund, source, date)
}

// PortfolioValuation implements interfaces.DataSource.
func (s *Store) PortfolioValuation(ctx context.Context, fund, source string, date time.Time) ([]models.Record, error) {
	return s.records(ctx, models.KindPortfolio, fund, source, date)
}

// Dividends implements interfaces.DataSource.
func (s *Store) Dividends(ctx context.Context, fund, source string, date time.Time) ([]models.Record, error) {
	return s.records(ctx, models.KindDividends, fund, source, date)
}

func (s *Store) records(ctx context.Context, kind models.SnapshotKind, fund, source string, date time.Time) ([]models.Record, error) {
	rows, err := s.pool.Query(ctx, recordsQuery, fund, source, date, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", kind, err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", kind, err)
		}
		var rec models.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			s.logger.Warn().Err(err).Str("kind", string(kind)).Str("fund", fund).Msg("Skipping undecodable record")
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", kind, err)
	}
	return out, nil
}
