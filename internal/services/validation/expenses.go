package validation

import (
	"strings"

	"github.com/bobmcallan/navcheck/internal/models"
	"github.com/bobmcallan/navcheck/internal/services/compare"
	"github.com/bobmcallan/navcheck/internal/services/metrics"
)

const totalExpenseName = "Total Expense"

func (e *Engine) expenses(in Input, kpis []models.KPI) []models.ValidationResult {
	tbA, tbB := in.SnapshotA.TrialBalance, in.SnapshotB.TrialBalance
	if in.DualSource {
		if len(tbA) == 0 && len(tbB) == 0 {
			return nil
		}
	} else if len(tbA) == 0 || len(tbB) == 0 {
		return nil
	}

	// Expense metrics come from the trial balance alone so that a portfolio
	// cannot shift them.
	mA := metrics.ComputeTrialBalance(tbA)
	mB := metrics.ComputeTrialBalance(tbB)

	if in.DualSource {
		return e.guard("Expenses", "Error creating Total Expense validation", func() []models.ValidationResult {
			return []models.ValidationResult{e.totalExpense(in, kpis, mA, mB)}
		})
	}

	var out []models.ValidationResult
	for _, kpi := range kpis {
		threshold, ok := in.threshold(kpi)
		if !ok || kpi.NumeratorField == "" {
			continue
		}
		out = append(out, e.guard("Expenses", "Error processing KPI "+kpiName(kpi, "Unknown"), func() []models.ValidationResult {
			return []models.ValidationResult{e.expenseKPI(tbA, tbB, mA, mB, kpi, threshold)}
		})...)
	}
	return out
}

// expenseKPI compares one expense metric and lists the general ledger
// transactions behind it.
func (e *Engine) expenseKPI(tbA, tbB []models.Record, mA, mB models.MetricSet, kpi models.KPI, threshold float64) models.ValidationResult {
	name := kpiName(kpi, "Unknown Expense")
	va, vb := mA.Get(kpi.NumeratorField), mB.Get(kpi.NumeratorField)

	item := metricItem(name, models.FieldEndingBalance, va, vb, threshold, kpi.PrecisionType)
	item.Security = name
	item.Change = item.ChangeValue
	pattern := metrics.ExpensePattern(kpi.NumeratorField, name)
	item.Breakdown = ledgerBreakdown(tbA, tbB, pattern, threshold, item.PrecisionType == models.PrecisionAbsolute)

	failed, passed := partition(item)
	return e.results.Detailed("Non-Trading", "Expenses", name, failed, passed, threshold, &kpi)
}

// totalExpense sums the active expense metrics on each side into one
// cross-source comparison with a child line per metric.
func (e *Engine) totalExpense(in Input, kpis []models.KPI, mA, mB models.MetricSet) models.ValidationResult {
	var active []string
	seen := map[string]bool{}
	for _, k := range kpis {
		if metrics.IsExpenseMetric(k.NumeratorField) && !seen[k.NumeratorField] {
			seen[k.NumeratorField] = true
			active = append(active, k.NumeratorField)
		}
	}
	if len(active) == 0 {
		active = metrics.ExpenseMetrics
	}

	var threshold float64
	for _, k := range kpis {
		if strings.EqualFold(strings.TrimSpace(k.Name), totalExpenseName) {
			if t, ok := in.threshold(k); ok {
				threshold = t
			}
			break
		}
	}

	var totalA, totalB float64
	children := make([]models.BreakdownLine, 0, len(active))
	for _, m := range active {
		va, vb := mA.Get(m), mB.Get(m)
		totalA += va
		totalB += vb
		display := titleCase(m)
		change := breakdownChange(va, vb, false)
		children = append(children, models.BreakdownLine{
			TransactionDescription: display,
			SourceAValue:           va,
			SourceBValue:           vb,
			GLAccount:              metrics.ExpensePattern(m, display),
			Type:                   "expense_detail",
			IsException:            boolInt(compare.Exceeds(change, threshold)),
			Change:                 compare.Float(change),
		})
	}

	item := metricItem(totalExpenseName, models.FieldEndingBalance, totalA, totalB, threshold, models.PrecisionPercentage)
	item.Security = totalExpenseName
	item.Change = item.ChangeValue
	item.Breakdown = children

	failed, passed := partition(item)
	info := models.KPI{Name: totalExpenseName, PrecisionType: models.PrecisionPercentage}
	return e.results.Detailed("Non-Trading", "Expenses", totalExpenseName, failed, passed, threshold, &info)
}

type ledgerLine struct {
	amount  float64
	account string
}

// ledgerBreakdown collects general ledger transactions from Expense rows
// whose Financial Account contains pattern. Transactions are keyed by
// description; a repeated description keeps its last amount.
func ledgerBreakdown(tbA, tbB []models.Record, pattern string, threshold float64, absolute bool) []models.BreakdownLine {
	linesA, orderA := ledgerLines(tbA, pattern)
	linesB, orderB := ledgerLines(tbB, pattern)

	order := orderA
	for _, d := range orderB {
		if _, ok := linesA[d]; !ok {
			order = append(order, d)
		}
	}

	out := make([]models.BreakdownLine, 0, len(order))
	for _, desc := range order {
		la, lb := linesA[desc], linesB[desc]
		account := la.account
		if account == "" {
			account = lb.account
		}
		if account == "" {
			account = pattern
		}
		change := breakdownChange(la.amount, lb.amount, absolute)
		out = append(out, models.BreakdownLine{
			TransactionDescription: desc,
			SourceAValue:           la.amount,
			SourceBValue:           lb.amount,
			GLAccount:              account,
			Type:                   "expense_detail",
			IsException:            boolInt(compare.Exceeds(change, threshold)),
			Change:                 compare.Float(change),
		})
	}
	return out
}

func ledgerLines(records []models.Record, pattern string) (map[string]ledgerLine, []string) {
	lines := map[string]ledgerLine{}
	var order []string
	for _, r := range records {
		if r.String(models.FieldType) != "Expense" {
			continue
		}
		account := r.String(models.FieldFinancialAccount)
		if !metrics.Contains(account, pattern) {
			continue
		}
		for _, entry := range r.Extra.GeneralLedger {
			if entry.TranDescription == "" {
				continue
			}
			if _, ok := lines[entry.TranDescription]; !ok {
				order = append(order, entry.TranDescription)
			}
			lines[entry.TranDescription] = ledgerLine{amount: float64(entry.LocalAmount), account: account}
		}
	}
	return lines, order
}

func (e *Engine) fees(in Input, kpis []models.KPI) []models.ValidationResult {
	tbA, tbB := in.SnapshotA.TrialBalance, in.SnapshotB.TrialBalance
	if in.DualSource {
		if len(tbA) == 0 && len(tbB) == 0 {
			return nil
		}
	} else if len(tbA) == 0 || len(tbB) == 0 {
		return nil
	}

	var out []models.ValidationResult
	for _, kpi := range kpis {
		threshold, ok := in.threshold(kpi)
		if !ok || kpi.NumeratorField == "" {
			continue
		}
		out = append(out, e.guard("Fees", "Error processing KPI "+kpiName(kpi, "Unknown"), func() []models.ValidationResult {
			name := kpiName(kpi, "Unknown Fee")
			pattern := metrics.FeePattern(kpi.NumeratorField, name)
			keep := func(r models.Record) bool {
				return r.String(models.FieldType) == "Expense" &&
					metrics.Contains(r.String(models.FieldFinancialAccount), pattern)
			}
			o := compare.Compare(tbA, tbB, compare.Options{
				Field:     models.FieldEndingBalance,
				IDField:   models.FieldFinancialAccount,
				Threshold: threshold,
				Precision: kpi.PrecisionType,
				Issue:     "major_fee_change",
				Keep:      keep,
			})
			return []models.ValidationResult{
				e.results.Detailed("Non-Trading", "Fees", name, o.Failed, o.Passed, threshold, &kpi),
			}
		})...)
	}
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
