package metrics

import (
	"strings"

	"github.com/bobmcallan/navcheck/internal/models"
)

// ExpensePatterns maps expense metrics to the Financial Account substring
// that identifies their trial balance rows.
var ExpensePatterns = map[string]string{
	models.MetricLegalFees:              "Legal Expense",
	models.MetricAdminFees:              "Admin",
	models.MetricOtherAdminExpenses:     "Other Admin",
	models.MetricInterestExpense:        "Interest Expense",
	models.MetricAccountingExpenses:     "Accounting Expense",
	models.MetricAllocationFee:          "Allocation Fee",
	models.MetricAuditExpense:           "Audit Expense",
	models.MetricBankFees:               "Bank Fees",
	models.MetricBorrowFeeEstimate:      "BorrowFeeEstimate",
	models.MetricBorrowFeeExpense:       "BorrowFeeExpense",
	models.MetricDistributionFeeExpense: "DistributionFeeExpense",
	models.MetricFSPrepFees:             "FSPrepFees",
	models.MetricFundExpense:            "Fund Expense",
	models.MetricStockloanFees:          "Stockloan Fees",
	models.MetricTaxPreparationFees:     "Tax Preparation Fees",
}

// FeePatterns maps fee metrics to their Financial Account substring.
var FeePatterns = map[string]string{
	models.MetricManagementFees: "MgmtFee",
}

// ExpenseMetrics is the default set summed into a cross-source total
// expense when the catalog names none.
var ExpenseMetrics = []string{
	models.MetricLegalFees, models.MetricAdminFees, models.MetricOtherAdminExpenses,
	models.MetricInterestExpense, models.MetricAccountingExpenses, models.MetricAllocationFee,
	models.MetricAuditExpense, models.MetricBankFees, models.MetricBorrowFeeEstimate,
	models.MetricBorrowFeeExpense, models.MetricDistributionFeeExpense, models.MetricFSPrepFees,
	models.MetricFundExpense, models.MetricStockloanFees, models.MetricTaxPreparationFees,
	models.MetricManagementFees, models.MetricPerformanceFees, models.MetricNonTradingExpenses,
}

// IsExpenseMetric reports whether key is one of ExpenseMetrics.
func IsExpenseMetric(key string) bool {
	for _, m := range ExpenseMetrics {
		if m == key {
			return true
		}
	}
	return false
}

// ExpensePattern returns the account substring for an expense metric,
// falling back to fallback (usually the KPI name).
func ExpensePattern(metric, fallback string) string {
	if p, ok := ExpensePatterns[metric]; ok {
		return p
	}
	return fallback
}

// FeePattern returns the account substring for a fee metric, falling back
// to fallback.
func FeePattern(metric, fallback string) string {
	if p, ok := FeePatterns[metric]; ok {
		return p
	}
	return fallback
}

// Contains reports whether s contains any of subs, ignoring case.
func Contains(s string, subs ...string) bool {
	ls := strings.ToLower(s)
	for _, sub := range subs {
		if sub != "" && strings.Contains(ls, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// containsExact is Contains with case respected; used for the AP/AR
// acronyms, which would otherwise match inside ordinary words.
func containsExact(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
