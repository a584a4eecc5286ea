package models

import "sort"

// Metric keys produced by the metrics calculator.
const (
	MetricTotalAssets      = "total_assets"
	MetricTotalLiabilities = "total_liabilities"
	MetricTotalEquity      = "total_equity"
	MetricNAV              = "nav"

	MetricNonTradingExpenses     = "non_trading_expenses"
	MetricManagementFees         = "management_fees"
	MetricPerformanceFees        = "performance_fees"
	MetricTotalExpenses          = "total_expenses"
	MetricLegalFees              = "legal_fees"
	MetricAdminFees              = "admin_fees"
	MetricOtherAdminExpenses     = "other_admin_expenses"
	MetricInterestExpense        = "interest_expense"
	MetricAccountingExpenses     = "accounting_expenses"
	MetricAllocationFee          = "allocation_fee"
	MetricAuditExpense           = "audit_expense"
	MetricBankFees               = "bank_fees"
	MetricBorrowFeeEstimate      = "borrow_fee_estimate"
	MetricBorrowFeeExpense       = "borrow_fee_expense"
	MetricDistributionFeeExpense = "distribution_fee_expense"
	MetricFSPrepFees             = "fs_prep_fees"
	MetricFundExpense            = "fund_expense"
	MetricStockloanFees          = "stockloan_fees"
	MetricTaxPreparationFees     = "tax_preparation_fees"

	MetricCurrentAssets      = "current_assets"
	MetricCurrentLiabilities = "current_liabilities"
	MetricCashAndEquivalents = "cash_and_equivalents"
	MetricLiquidAssets       = "liquid_assets"

	MetricTotalMarketValue         = "total_market_value"
	MetricTotalPositions           = "total_positions"
	MetricTotalQuantity            = "total_quantity"
	MetricAveragePositionSize      = "average_position_size"
	MetricLargestPositionMV        = "largest_position_mv"
	MetricInvestments              = "investments"
	MetricTopHoldingsValue         = "top_holdings_value"
	MetricTop5PositionsMV          = "top_5_positions_mv"
	MetricSingleAssetConcentration = "single_asset_concentration"
	MetricSectorConcentration      = "sector_concentration"
	MetricGeographyConcentration   = "geography_concentration"

	MetricTotalDividendsReceived = "total_dividends_received"
	MetricDividendYield          = "dividend_yield"
	MetricIncomeFromInvestments  = "income_from_investments"
	MetricSwapFinancing          = "swap_financing"
	MetricInterestAccruals       = "interest_accruals"

	MetricTotalSubscriptions  = "total_subscriptions"
	MetricTotalRedemptions    = "total_redemptions"
	MetricSubscriptionInflows = "subscription_inflows"
	MetricRedemptionOutflows  = "redemption_outflows"
	MetricNetFlows            = "net_flows"
	MetricSubscriptionFlows   = "subscription_flows"
	MetricRedemptionFlows     = "redemption_flows"

	MetricFundReturn      = "fund_return"
	MetricPortfolioReturn = "portfolio_return"
	MetricBenchmarkReturn = "benchmark_return"
	MetricExcessReturn    = "excess_return"

	MetricNetLongPositions  = "net_long_positions"
	MetricNetShortPositions = "net_short_positions"
	MetricGrossExposure     = "gross_exposure"
	MetricNetExposure       = "net_exposure"
	MetricNetLongExposure   = "net_long_exposure"

	MetricConcentratedAssetsValue = "concentrated_assets_value"
	MetricTotalPortfolioValue     = "total_portfolio_value"
	MetricSectorAssets            = "sector_assets"
	MetricGeographicalAssets      = "geographical_assets"
	MetricIlliquidAssets          = "illiquid_assets"
	MetricMarginRequirements      = "margin_requirements"
	MetricPotentialRedemptions    = "potential_redemptions"
)

// MetricKeys lists every key a MetricSet carries.
var MetricKeys = []string{
	MetricTotalAssets, MetricTotalLiabilities, MetricTotalEquity, MetricNAV,
	MetricNonTradingExpenses, MetricManagementFees, MetricPerformanceFees, MetricTotalExpenses,
	MetricLegalFees, MetricAdminFees, MetricOtherAdminExpenses, MetricInterestExpense,
	MetricAccountingExpenses, MetricAllocationFee, MetricAuditExpense, MetricBankFees,
	MetricBorrowFeeEstimate, MetricBorrowFeeExpense, MetricDistributionFeeExpense,
	MetricFSPrepFees, MetricFundExpense, MetricStockloanFees, MetricTaxPreparationFees,
	MetricCurrentAssets, MetricCurrentLiabilities, MetricCashAndEquivalents, MetricLiquidAssets,
	MetricTotalMarketValue, MetricTotalPositions, MetricTotalQuantity, MetricAveragePositionSize,
	MetricLargestPositionMV, MetricInvestments, MetricTopHoldingsValue, MetricTop5PositionsMV,
	MetricSingleAssetConcentration, MetricSectorConcentration, MetricGeographyConcentration,
	MetricTotalDividendsReceived, MetricDividendYield, MetricIncomeFromInvestments,
	MetricSwapFinancing, MetricInterestAccruals,
	MetricTotalSubscriptions, MetricTotalRedemptions, MetricSubscriptionInflows,
	MetricRedemptionOutflows, MetricNetFlows, MetricSubscriptionFlows, MetricRedemptionFlows,
	MetricFundReturn, MetricPortfolioReturn, MetricBenchmarkReturn, MetricExcessReturn,
	MetricNetLongPositions, MetricNetShortPositions, MetricGrossExposure, MetricNetExposure,
	MetricNetLongExposure,
	MetricConcentratedAssetsValue, MetricTotalPortfolioValue, MetricSectorAssets,
	MetricGeographicalAssets, MetricIlliquidAssets, MetricMarginRequirements,
	MetricPotentialRedemptions,
}

// MetricSet maps metric keys to values. Sets built with NewMetricSet hold
// every key in MetricKeys.
type MetricSet map[string]float64

// NewMetricSet returns a set with every known key at zero.
func NewMetricSet() MetricSet {
	m := make(MetricSet, len(MetricKeys))
	for _, k := range MetricKeys {
		m[k] = 0
	}
	return m
}

// Get returns the value of key, or zero for unknown keys.
func (m MetricSet) Get(key string) float64 {
	return m[key]
}

// Has reports whether key is a known metric in the set.
func (m MetricSet) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Keys returns the set's keys in sorted order.
func (m MetricSet) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
