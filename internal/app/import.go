package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/ingest"
	"github.com/bobmcallan/navcheck/internal/interfaces"
	"github.com/bobmcallan/navcheck/internal/storage/catalog"
)

// ImportResult counts the records written by ImportWorkbook.
type ImportResult struct {
	TrialBalance int `json:"trial_balance"`
	Portfolio    int `json:"portfolio"`
	Dividends    int `json:"dividends"`
}

// ImportWorkbook reads a workbook and stores it as a new snapshot version
// for (fund, source, date).
func ImportWorkbook(ctx context.Context, writer interfaces.SnapshotWriter, logger *common.Logger, path, fund, source string, date time.Time) (ImportResult, error) {
	fund = strings.TrimSpace(fund)
	source = strings.TrimSpace(source)
	if fund == "" || source == "" || date.IsZero() {
		return ImportResult{}, fmt.Errorf("fund, source and date are required")
	}

	wb, err := ingest.ReadWorkbook(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to read workbook %s: %w", path, err)
	}
	if wb.Empty() {
		return ImportResult{}, fmt.Errorf("workbook %s has no trial balance, portfolio or dividend sheets", path)
	}

	if err := writer.SaveSnapshot(ctx, wb.Snapshot(fund, source, date)); err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{
		TrialBalance: len(wb.TrialBalance),
		Portfolio:    len(wb.Portfolio),
		Dividends:    len(wb.Dividends),
	}
	logger.Info().
		Str("path", path).
		Str("fund", fund).
		Str("source", source).
		Str("date", common.FormatDate(date)).
		Int("trial_balance", res.TrialBalance).
		Int("portfolio", res.Portfolio).
		Int("dividends", res.Dividends).
		Msg("Workbook imported")
	return res, nil
}

// ImportKPIsFromFile copies a YAML KPI catalog into the database. Entries
// are upserted by kpi_code. Returns (imported count, skipped count, error).
func ImportKPIsFromFile(ctx context.Context, writer interfaces.SnapshotWriter, logger *common.Logger, filePath string) (int, int, error) {
	cat, err := catalog.Load(logger, filePath)
	if err != nil {
		return 0, 0, err
	}

	imported, skipped := 0, 0
	for _, kpi := range cat.KPIs() {
		if kpi.Code == "" {
			logger.Warn().Int64("kpi_id", kpi.ID).Str("kpi", kpi.Name).Msg("Skipping KPI without kpi_code")
			skipped++
			continue
		}
		if err := writer.SaveKPI(ctx, kpi); err != nil {
			logger.Warn().Err(err).Str("kpi", kpi.Code).Msg("Failed to save KPI during import")
			skipped++
			continue
		}
		imported++
	}

	for _, t := range cat.Thresholds() {
		if err := writer.SaveThreshold(ctx, t); err != nil {
			logger.Warn().Err(err).Int64("kpi_id", t.KPIID).Str("fund_id", t.FundID).Msg("Failed to save threshold during import")
		}
	}

	logger.Info().Str("path", filePath).Int("imported", imported).Int("skipped", skipped).Msg("KPI catalog imported")
	return imported, skipped, nil
}
