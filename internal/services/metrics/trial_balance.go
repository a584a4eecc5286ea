package metrics

import (
	"math"
	"strings"

	"github.com/bobmcallan/navcheck/internal/models"
)

// row holds the classification flags of one trial balance line.
type row struct {
	balance     float64
	typ         string
	isAssets    bool
	isLiability bool
	isExpense   bool
	payable     bool
	investment  bool // Investment or Custodian category
	receivable  bool
	otherAsset  bool
	custodian   bool
	mgmt        bool
	perf        bool
	rec         models.Record
}

func classify(r models.Record) row {
	category := r.String(models.FieldCategory)
	account := r.String(models.FieldFinancialAccount)
	typ := r.String(models.FieldType)

	x := row{
		balance:     balance(r),
		typ:         typ,
		isAssets:    strings.EqualFold(typ, "Assets"),
		isLiability: strings.EqualFold(typ, "Liabilities"),
		isExpense:   strings.EqualFold(typ, "Expense"),
		investment:  Contains(category, "Investment", "Custodian"),
		receivable:  Contains(category, "Account Receivable") || containsExact(category, "AR"),
		custodian:   Contains(category, "Custodian"),
		mgmt:        Contains(account, "Mgmt"),
		perf:        Contains(account, "Perf"),
		rec:         r,
	}
	x.payable = x.isLiability && (Contains(category, "Account Payable") || containsExact(category, "AP"))
	x.otherAsset = x.isAssets && Contains(category, "Other")
	return x
}

func balance(r models.Record) float64 {
	return r.FloatOr(models.FieldEndingBalance, 0)
}

// NAV sums Ending Balance over every row whose Type is not revenue,
// expense or capital.
func NAV(records []models.Record) float64 {
	var nav float64
	for _, r := range records {
		switch strings.ToLower(strings.TrimSpace(r.String(models.FieldType))) {
		case "revenue", "expense", "capital":
			continue
		}
		nav += balance(r)
	}
	return nav
}

func trialBalance(m models.MetricSet, records []models.Record) {
	if len(records) == 0 {
		return
	}

	rows := make([]row, len(records))
	for i, r := range records {
		rows[i] = classify(r)
	}

	sum := func(keep func(row) bool) float64 {
		var total float64
		for _, x := range rows {
			if keep(x) {
				total += x.balance
			}
		}
		return total
	}
	exists := func(keep func(row) bool) bool {
		for _, x := range rows {
			if keep(x) {
				return true
			}
		}
		return false
	}
	otherLiability := func(x row) bool { return x.isLiability && !x.payable && !x.investment }

	// Balance sheet
	if exists(func(x row) bool { return x.payable }) || exists(otherLiability) {
		m[models.MetricTotalLiabilities] = math.Abs(sum(func(x row) bool { return x.payable })) + math.Abs(sum(otherLiability))
	} else {
		m[models.MetricTotalLiabilities] = math.Abs(sum(func(x row) bool { return x.isLiability }))
	}

	nav := NAV(records)
	m[models.MetricNAV] = nav
	m[models.MetricTotalEquity] = nav
	m[models.MetricPotentialRedemptions] = nav
	m[models.MetricTotalAssets] = sum(func(x row) bool { return x.investment || x.receivable || x.otherAsset })

	// Fees and expenses
	m[models.MetricNonTradingExpenses] = math.Abs(sum(func(x row) bool {
		return x.isExpense && Contains(x.rec.String(models.FieldAccountingHead), "nontrade")
	}))
	m[models.MetricManagementFees] = math.Abs(sum(func(x row) bool { return x.mgmt && x.isExpense }))
	m[models.MetricPerformanceFees] = math.Abs(sum(func(x row) bool { return x.perf }))
	for metric, pattern := range ExpensePatterns {
		m[metric] = math.Abs(sum(func(x row) bool {
			return x.isExpense && Contains(x.rec.String(models.FieldFinancialAccount), pattern)
		}))
	}
	m[models.MetricTotalExpenses] = math.Abs(sum(func(x row) bool { return x.isExpense && !x.mgmt && !x.perf }))

	// Liquidity
	m[models.MetricCurrentAssets] = sum(func(x row) bool { return x.custodian || x.receivable || x.otherAsset })
	m[models.MetricCurrentLiabilities] = math.Abs(sum(func(x row) bool { return x.payable || otherLiability(x) }))
	m[models.MetricCashAndEquivalents] = sum(func(x row) bool { return x.custodian })
	m[models.MetricLiquidAssets] = m[models.MetricCashAndEquivalents]

	// Flows
	head := func(sub string) func(row) bool {
		return func(x row) bool { return Contains(x.rec.String(models.FieldAccountingHead), sub) }
	}
	m[models.MetricSubscriptionFlows] = math.Abs(sum(head("Deposits")))
	m[models.MetricRedemptionFlows] = math.Abs(sum(head("Withdrawals")))

	capitalOr := func(account string) func(row) bool {
		return func(x row) bool {
			return Contains(x.rec.String(models.FieldCategory), "Capital") ||
				Contains(x.rec.String(models.FieldFinancialAccount), account)
		}
	}
	m[models.MetricTotalSubscriptions] = math.Abs(sum(capitalOr("Deposit")))
	m[models.MetricSubscriptionInflows] = m[models.MetricTotalSubscriptions]
	m[models.MetricTotalRedemptions] = math.Abs(sum(capitalOr("Withdraw")))
	m[models.MetricRedemptionOutflows] = m[models.MetricTotalRedemptions]
	m[models.MetricNetFlows] = m[models.MetricTotalSubscriptions] - m[models.MetricTotalRedemptions]

	// Concentration and income
	m[models.MetricInvestments] = sum(func(x row) bool {
		return Contains(x.rec.String(models.FieldCategory), "Investment", "Fund", "Security", "Equity", "Bond") ||
			Contains(x.rec.String(models.FieldAccountingHead), "Investment", "Fund", "Security")
	})
	m[models.MetricSwapFinancing] = sum(func(x row) bool {
		return Contains(x.rec.String(models.FieldFinancialAccount), "Price Gain Loss on Swap")
	})
	m[models.MetricInterestAccruals] = sum(func(x row) bool {
		return Contains(x.rec.String(models.FieldFinancialAccount), "Interest Income Collateral")
	})
}
