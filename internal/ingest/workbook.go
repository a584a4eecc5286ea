// Package ingest reads accounting exports (.xlsx, .xls and .csv) into
// snapshot record sets.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"github.com/bobmcallan/navcheck/internal/models"
)

// ErrUnsupportedFormat is returned for files that are not xlsx, xls or csv.
var ErrUnsupportedFormat = errors.New("unsupported workbook format")

// maxXLSSheets bounds the sheet scan of legacy workbooks.
const maxXLSSheets = 32

// Workbook holds the record sets found in one file.
type Workbook struct {
	TrialBalance []models.Record
	Portfolio    []models.Record
	Dividends    []models.Record
}

// Empty reports whether no records were read.
func (w *Workbook) Empty() bool {
	return len(w.TrialBalance) == 0 && len(w.Portfolio) == 0 && len(w.Dividends) == 0
}

// Snapshot labels the workbook's records with their identity.
func (w *Workbook) Snapshot(fund, source string, date time.Time) *models.Snapshot {
	return &models.Snapshot{
		Fund:         fund,
		Source:       source,
		Date:         date,
		TrialBalance: w.TrialBalance,
		Portfolio:    w.Portfolio,
		Dividends:    w.Dividends,
	}
}

// sheet is a named grid of cells, header first.
type sheet struct {
	name string
	rows [][]string
}

// ReadWorkbook reads path and sorts its sheets into record sets. Sheets are
// matched by name first ("trial"/"tb", "portfolio"/"valuation"/"pv",
// "dividend") and by header columns otherwise; unmatched sheets are ignored.
func ReadWorkbook(path string) (*Workbook, error) {
	var (
		sheets []sheet
		err    error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		sheets, err = readXLSX(path)
	case ".xls":
		sheets, err = readXLS(path)
	case ".csv":
		sheets, err = readCSV(path)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}

	wb := &Workbook{}
	for _, sh := range sheets {
		if len(sh.rows) == 0 {
			continue
		}
		kind, ok := kindFromName(sh.name)
		if !ok {
			kind, ok = kindFromHeader(sh.rows[0])
		}
		if !ok {
			continue
		}
		records := toRecords(sh.rows)
		switch kind {
		case models.KindTrialBalance:
			wb.TrialBalance = append(wb.TrialBalance, records...)
		case models.KindPortfolio:
			wb.Portfolio = append(wb.Portfolio, records...)
		case models.KindDividends:
			wb.Dividends = append(wb.Dividends, records...)
		}
	}
	return wb, nil
}

func readXLSX(path string) ([]sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	var out []sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		out = append(out, sheet{name: name, rows: rows})
	}
	return out, nil
}

// readXLS reads legacy workbooks. Sheet names are not exposed, so every
// sheet is classified by its header row.
func readXLS(path string) ([]sheet, error) {
	book, err := xls.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}

	sheetAt := func(i int) (rows [][]string, ok bool) {
		defer func() {
			if recover() != nil {
				rows, ok = nil, false
			}
		}()
		ws, err := book.GetSheet(i)
		if err != nil || ws == nil {
			return nil, false
		}
		for _, row := range ws.GetRows() {
			var cells []string
			for _, col := range row.GetCols() {
				cells = append(cells, col.GetString())
			}
			rows = append(rows, cells)
		}
		return rows, true
	}

	var out []sheet
	for i := 0; i < maxXLSSheets; i++ {
		rows, ok := sheetAt(i)
		if !ok {
			break
		}
		out = append(out, sheet{rows: rows})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sheets found in %s", path)
	}
	return out, nil
}

// readCSV reads one sheet named after the file.
func readCSV(path string) ([]sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []sheet{{name: name, rows: rows}}, nil
}

func kindFromName(name string) (models.SnapshotKind, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == "":
		return "", false
	case strings.Contains(n, "dividend"):
		return models.KindDividends, true
	case strings.Contains(n, "trial") || n == "tb" || strings.HasPrefix(n, "tb ") || strings.HasPrefix(n, "tb_"):
		return models.KindTrialBalance, true
	case strings.Contains(n, "portfolio") || strings.Contains(n, "valuation") || n == "pv" || strings.HasPrefix(n, "pv ") || strings.HasPrefix(n, "pv_"):
		return models.KindPortfolio, true
	}
	return "", false
}

func kindFromHeader(header []string) (models.SnapshotKind, bool) {
	has := map[string]bool{}
	for _, h := range header {
		has[strings.ToLower(strings.TrimSpace(h))] = true
	}
	anyOf := func(cols ...string) bool {
		for _, c := range cols {
			if has[strings.ToLower(c)] {
				return true
			}
		}
		return false
	}

	switch {
	case anyOf(models.FieldEndQty, models.FieldEndLocalMV, models.FieldEndBookMV):
		return models.KindPortfolio, true
	case anyOf(models.FieldEndingBalance) && anyOf(models.FieldFinancialAccount, models.FieldType):
		return models.KindTrialBalance, true
	case anyOf(models.SecurityIDFields...) && anyOf(models.FieldAmount):
		return models.KindDividends, true
	}
	return "", false
}

// toRecords turns a header-first grid into records. Blank rows are dropped
// and short rows are padded with nulls.
func toRecords(rows [][]string) []models.Record {
	if len(rows) < 2 {
		return nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	out := make([]models.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		fields := make(map[string]any, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			if col == models.FieldExtraData {
				fields[col] = strings.TrimSpace(cell)
				continue
			}
			fields[col] = CellValue(cell)
		}
		out = append(out, models.NewRecord(fields))
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// CellValue converts a cell to nil (empty), float64 (numeric) or a trimmed
// string. Thousands separators, a leading "$" and accounting parentheses
// are accepted; digit strings with a leading zero stay text.
func CellValue(cell string) any {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}

	n := strings.ReplaceAll(s, ",", "")
	negative := false
	if strings.HasPrefix(n, "(") && strings.HasSuffix(n, ")") {
		negative = true
		n = strings.TrimSpace(n[1 : len(n)-1])
	}
	if strings.HasPrefix(n, "-$") {
		negative = !negative
		n = n[2:]
	}
	n = strings.TrimPrefix(n, "$")

	if len(n) > 1 && n[0] == '0' && n[1] >= '0' && n[1] <= '9' {
		return s
	}
	f, err := strconv.ParseFloat(n, 64)
	if err != nil || strings.ContainsAny(n, "xXpP") || strings.EqualFold(n, "inf") || strings.EqualFold(n, "infinity") || strings.EqualFold(n, "nan") {
		return s
	}
	if negative {
		f = -f
	}
	return f
}
