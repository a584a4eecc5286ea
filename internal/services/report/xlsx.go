package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/bobmcallan/navcheck/internal/models"
)

const (
	sheetSummary    = "Summary"
	sheetExceptions = "Exceptions"
)

var summaryHeader = []any{"Type", "Sub Type", "Check", "Status", "Exceptions", "Checked", "Threshold", "Precision", "KPI Code", "Error"}

var exceptionHeader = []any{"Type", "Sub Type", "Check", "Identifier", "Inv Id", "Asset Type", "Field", "Value A", "Value B", "Change", "Issue", "Note"}

// ExportXLSX writes a workbook with one Summary row per result and one
// Exceptions row per failed item.
func ExportXLSX(run *models.ValidationRun, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetExceptions); err != nil {
		return fmt.Errorf("failed to create exceptions sheet: %w", err)
	}

	if err := writeRow(f, sheetSummary, 1, summaryHeader); err != nil {
		return err
	}
	if err := writeRow(f, sheetExceptions, 1, exceptionHeader); err != nil {
		return err
	}

	summaryRow, exceptionRow := 2, 2
	for _, r := range run.Results {
		var threshold any
		if r.Data.Threshold != nil {
			threshold = *r.Data.Threshold
		}
		row := []any{
			r.Type, r.SubType, r.SubType2, status(r.Message),
			r.Data.Count, r.Data.TotalChecked, threshold,
			string(r.Data.PrecisionType), r.Data.KPICode, r.Data.Error,
		}
		if err := writeRow(f, sheetSummary, summaryRow, row); err != nil {
			return err
		}
		summaryRow++

		for _, item := range r.Data.FailedItems {
			row := []any{
				r.Type, r.SubType, r.SubType2,
				item.Identifier, item.InvID, item.AssetType, item.Field,
				cell(item.ValueA), cell(item.ValueB), cell(item.Change),
				item.Issue, item.Note,
			}
			if err := writeRow(f, sheetExceptions, exceptionRow, row); err != nil {
				return err
			}
			exceptionRow++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cellRef, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cellRef, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func cell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func status(message int) string {
	switch message {
	case models.MessageFail:
		return "FAIL"
	case models.MessageError:
		return "ERROR"
	}
	return "PASS"
}
