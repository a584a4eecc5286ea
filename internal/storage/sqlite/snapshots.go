package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/models"
)

const recordsQuery = `
	SELECT r.fields
	FROM snapshot_records r
	WHERE r.kind = ?
	  AND r.navpack_id = (
		SELECT id FROM nav_packs
		WHERE lower(fund) = lower(?) AND lower(source) = lower(?) AND file_date = ?
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
	rows, err := s.db.QueryContext(ctx, recordsQuery, string(kind), fund, source, common.FormatDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", kind, err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", kind, err)
		}
		var rec models.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
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

// SaveSnapshot stores the snapshot as a new nav pack version; earlier
// versions stay in place but are no longer read.
func (s *Store) SaveSnapshot(ctx context.Context, snap *models.Snapshot) error {
	if snap == nil || snap.Fund == "" || snap.Source == "" || snap.Date.IsZero() {
		return fmt.Errorf("snapshot needs fund, source and date")
	}
	date := common.FormatDate(snap.Date)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var version int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM nav_packs WHERE lower(fund) = lower(?) AND lower(source) = lower(?) AND file_date = ?`,
		snap.Fund, snap.Source, date).Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to resolve nav pack version: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO nav_packs (fund, source, file_date, version) VALUES (?, ?, ?, ?)`,
		snap.Fund, snap.Source, date, version)
	if err != nil {
		return fmt.Errorf("failed to insert nav pack: %w", err)
	}
	packID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read nav pack id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_records (navpack_id, kind, position, fields) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for _, kind := range []models.SnapshotKind{models.KindTrialBalance, models.KindPortfolio, models.KindDividends} {
		for i, rec := range snap.Records(kind) {
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to encode %s row %d: %w", kind, i, err)
			}
			if _, err := stmt.ExecContext(ctx, packID, string(kind), i, string(data)); err != nil {
				return fmt.Errorf("failed to insert %s row %d: %w", kind, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	s.logger.Info().
		Str("fund", snap.Fund).
		Str("source", snap.Source).
		Str("date", date).
		Int("version", version).
		Int("trial_balance", len(snap.TrialBalance)).
		Int("portfolio", len(snap.Portfolio)).
		Int("dividends", len(snap.Dividends)).
		Msg("Snapshot saved")
	return nil
}

// SaveBenchmarkValue implements interfaces.SnapshotWriter.
func (s *Store) SaveBenchmarkValue(ctx context.Context, benchmark string, date time.Time, value float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO benchmark_values (benchmark, value_date, value) VALUES (?, ?, ?)
		ON CONFLICT(benchmark, value_date) DO UPDATE SET value = excluded.value`,
		benchmark, common.FormatDate(date), value)
	if err != nil {
		return fmt.Errorf("failed to save benchmark value: %w", err)
	}
	return nil
}

// BenchmarkValue implements interfaces.BenchmarkStore.
func (s *Store) BenchmarkValue(ctx context.Context, benchmark string, date time.Time) (float64, bool, error) {
	var v float64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM benchmark_values WHERE lower(benchmark) = lower(?) AND value_date = ?`,
		benchmark, common.FormatDate(date)).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to load benchmark %s: %w", benchmark, err)
	}
	return v, true, nil
}
