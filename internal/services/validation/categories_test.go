package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/navcheck/internal/models"
	"github.com/bobmcallan/navcheck/internal/services/result"
)

var anchorTB = []models.Record{tb("Assets", "Investment", "Securities", 1)}

func TestPricing_DefaultChecks(t *testing.T) {
	a := []models.Record{
		position("X", "EQ", "Xylo", 0, nil),
		position("Y", "EQ", "Yarrow", 1, 50.0),
		position("Z", "EQ", "Zephyr", 1, 50.0),
		position("C", "CASH", "USD Cash", 1, 1.0),
	}
	b := []models.Record{
		position("X", "EQ", "Xylo", 5, nil),
		position("Y", "EQ", "Yarrow", 1, 50.0),
		position("Z", "EQ", "Zephyr", 1, 50.1),
		position("C", "CASH", "USD Cash", 1, 1.0),
	}
	kpis := []models.KPI{{ID: 1, Category: "Pricing", NumeratorField: "current_price"}}

	t.Run("period over period", func(t *testing.T) {
		results := newTestEngine().Run(Input{
			SnapshotA: &models.Snapshot{Portfolio: a},
			SnapshotB: &models.Snapshot{Portfolio: b},
			KPIs:      kpis,
		})
		require.Len(t, results, 2)

		unchanged := find(t, results, "Unchanged Price")
		assert.Equal(t, "default", unchanged.Data.ValidationSource)
		require.Len(t, unchanged.Data.FailedItems, 1)
		assert.Equal(t, "Yarrow", unchanged.Data.FailedItems[0].Identifier)
		require.Len(t, unchanged.Data.PassedItems, 1)
		assert.Equal(t, "Zephyr", unchanged.Data.PassedItems[0].Identifier)

		missing := find(t, results, "Missing Price")
		require.Len(t, missing.Data.FailedItems, 1)
		assert.Equal(t, "X", missing.Data.FailedItems[0].InvID)
		assert.Equal(t, "missing_price_null", missing.Data.FailedItems[0].Issue)
		assert.Len(t, missing.Data.PassedItems, 2)
	})

	t.Run("dual source skips unchanged", func(t *testing.T) {
		results := newTestEngine().Run(Input{
			SnapshotA:  &models.Snapshot{Portfolio: a},
			SnapshotB:  &models.Snapshot{Portfolio: b},
			KPIs:       kpis,
			DualSource: true,
		})
		require.Len(t, results, 1)
		assert.Equal(t, "Missing Price", results[0].SubType2)
	})

	t.Run("kpi comparison", func(t *testing.T) {
		results := newTestEngine().Run(Input{
			SnapshotA:  &models.Snapshot{Portfolio: a},
			SnapshotB:  &models.Snapshot{Portfolio: b},
			KPIs:       []models.KPI{{ID: 1, Name: "Major Price Change", Category: "Pricing", NumeratorField: "current_price"}},
			Thresholds: map[int64]float64{1: 0.1},
		})
		major := find(t, results, "Major Price Change")
		assert.Equal(t, "PnL", major.Type)
		require.Len(t, major.Data.FailedItems, 1)
		assert.Equal(t, "Zephyr", major.Data.FailedItems[0].Identifier)
		for _, item := range append(major.Data.FailedItems, major.Data.PassedItems...) {
			assert.NotEqual(t, "CASH", item.AssetType)
		}
	})
}

func TestPositions_CashLastAndAnnotated(t *testing.T) {
	e := NewEngine(result.NewBuilder(""), []Annotation{
		{Category: "positions", Match: "tesla", Info: "Reverse split 1:10"},
	})
	results := e.Run(Input{
		SnapshotA: &models.Snapshot{Portfolio: []models.Record{
			position("T", "EQ", "Tesla Inc", 10, 200.0),
			position("C1", "CASH", "USD Cash", 100, 1.0),
		}},
		SnapshotB: &models.Snapshot{Portfolio: []models.Record{
			position("C1", "CASH", "USD Cash", 300, 1.0),
			position("T", "EQ", "Tesla Inc", 20, 200.0),
		}},
		KPIs:       []models.KPI{{ID: 2, Name: "Trade Volume", Category: "Positions", NumeratorField: "trade_volume"}},
		Thresholds: map[int64]float64{2: 10},
	})

	major := find(t, results, "Major Position Changes")
	require.Len(t, major.Data.FailedItems, 2)
	assert.Equal(t, "Tesla Inc", major.Data.FailedItems[0].Identifier)
	assert.True(t, major.Data.FailedItems[0].IsCorpAction)
	assert.Equal(t, "Reverse split 1:10", major.Data.FailedItems[0].CorpActionInfo)
	assert.Equal(t, "CASH", major.Data.FailedItems[1].AssetType)
	assert.False(t, major.Data.FailedItems[1].IsCorpAction)

	mv := find(t, results, "Missing FX/MV Data")
	assert.Equal(t, models.MessagePass, mv.Message)
	assert.Equal(t, 2, mv.Data.TotalChecked)
}

func TestMarketValue_Absolute(t *testing.T) {
	results := newTestEngine().Run(Input{
		SnapshotA: &models.Snapshot{Portfolio: []models.Record{position("A", "EQ", "Alpha", 10, 1.0)}},
		SnapshotB: &models.Snapshot{Portfolio: []models.Record{position("A", "EQ", "Alpha", 11, 1.0)}},
		KPIs: []models.KPI{{
			ID: 3, Category: "Market Value", NumeratorField: "market_value",
			PrecisionType: models.PrecisionAbsolute,
		}},
		Thresholds: map[int64]float64{3: 5},
	})

	require.NotEmpty(t, results)
	mv := find(t, results, "Major MV Change")
	assert.Equal(t, models.PrecisionAbsolute, mv.Data.PrecisionType)
	require.Len(t, mv.Data.FailedItems, 1)
	require.NotNil(t, mv.Data.FailedItems[0].ChangeValue)
	assert.InDelta(t, 10.0, *mv.Data.FailedItems[0].ChangeValue, 1e-9)
}

func TestTradingIE_DividendTotals(t *testing.T) {
	results := newTestEngine().Run(Input{
		SnapshotA: &models.Snapshot{
			TrialBalance: anchorTB,
			Dividends:    []models.Record{dividend("S1", "Alpha Corp", 1000)},
		},
		SnapshotB: &models.Snapshot{
			TrialBalance: anchorTB,
			Dividends:    []models.Record{dividend("S1", "Alpha Corp", 1200)},
		},
		KPIs:       []models.KPI{{ID: 4, Category: "Trading I&E", NumeratorField: "dividend_amount"}},
		Thresholds: map[int64]float64{4: 10},
	})

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "Trading I&E", r.SubType)
	assert.Equal(t, "Major Dividends", r.SubType2)
	require.Len(t, r.Data.FailedItems, 1)

	parent := r.Data.FailedItems[0]
	require.NotNil(t, parent.IsMajorChange)
	assert.True(t, *parent.IsMajorChange)
	assert.InDelta(t, 20.0, *parent.ChangeValue, 1e-9)

	require.Len(t, parent.Children, 1)
	total := parent.Children[0]
	assert.Equal(t, "Total Dividends", total.Identifier)
	assert.Equal(t, idMajorDividends, total.ParentID)
	require.Len(t, total.Children, 1)
	security := total.Children[0]
	assert.Equal(t, "Alpha Corp", security.Identifier)
	assert.True(t, security.IsGrandchild)
	require.NotNil(t, security.ValueA)
	assert.Equal(t, 1000.0, *security.ValueA)
}

func TestTradingIE_DividendsBySecurity(t *testing.T) {
	results := newTestEngine().Run(Input{
		SnapshotA: &models.Snapshot{
			Source:       "admin",
			TrialBalance: anchorTB,
			Dividends: []models.Record{
				dividend("S1", "Alpha Corp", 1000),
				dividend("S2", "Beta Corp", 500),
			},
		},
		SnapshotB: &models.Snapshot{
			Source: "shadow",
			Dividends: []models.Record{
				dividend("S1", "Alpha Corp", 1300),
				dividend("S3", "Gamma Corp", 50),
			},
		},
		KPIs:       []models.KPI{{ID: 4, Name: "Dividends", Category: "Trading I&E", NumeratorField: "dividend_amount"}},
		Thresholds: map[int64]float64{4: 10},
		DualSource: true,
	})

	require.Len(t, results, 1)
	r := results[0]
	require.Len(t, r.Data.FailedItems, 1)
	assert.Equal(t, "Alpha Corp", r.Data.FailedItems[0].Identifier)
	assert.Equal(t, "major_dividend_change", r.Data.FailedItems[0].Issue)

	require.Len(t, r.Data.PassedItems, 2)
	assert.Equal(t, "Beta Corp", r.Data.PassedItems[0].Identifier)
	assert.Equal(t, "Item not found in dataset B", r.Data.PassedItems[0].Note)
	assert.Equal(t, "Gamma Corp", r.Data.PassedItems[1].Identifier)
	assert.Equal(t, "Item not found in dataset A", r.Data.PassedItems[1].Note)
	assert.Nil(t, r.Data.PassedItems[1].ChangeValue)
}

func TestTradingIE_SwapFinancing(t *testing.T) {
	results := newTestEngine().Run(Input{
		SnapshotA:  &models.Snapshot{TrialBalance: anchorTB},
		SnapshotB:  &models.Snapshot{TrialBalance: anchorTB},
		MetricsA:   models.MetricSet{models.MetricSwapFinancing: 100},
		MetricsB:   models.MetricSet{models.MetricSwapFinancing: 104},
		KPIs:       []models.KPI{{ID: 8, Category: "Trading I&E", NumeratorField: models.MetricSwapFinancing}},
		Thresholds: map[int64]float64{8: 5},
	})

	require.Len(t, results, 1)
	assert.Equal(t, "Material Swap Financing", results[0].SubType2)
	assert.Equal(t, models.MessagePass, results[0].Message)
	require.Len(t, results[0].Data.PassedItems, 1)
	assert.Equal(t, "Total Swap Financing", results[0].Data.PassedItems[0].Identifier)
}

func ledgerRow(account string, balance float64, extra string) models.Record {
	return rec(map[string]any{
		models.FieldType:             "Expense",
		models.FieldFinancialAccount: account,
		models.FieldEndingBalance:    balance,
		models.FieldExtraData:        extra,
	})
}

func TestExpenses_LedgerBreakdown(t *testing.T) {
	results := newTestEngine().Run(Input{
		SnapshotA: &models.Snapshot{TrialBalance: []models.Record{
			ledgerRow("Legal Expense", 100, `{"general_ledger":[{"tran_description":"Counsel","local_amount":60},{"tran_description":"Filing","local_amount":"40"}]}`),
		}},
		SnapshotB: &models.Snapshot{TrialBalance: []models.Record{
			ledgerRow("Legal Expense", 150, `{"general_ledger":[{"tran_description":"Counsel","local_amount":100},{"tran_description":"Review","local_amount":50}]}`),
		}},
		KPIs:       []models.KPI{{ID: 5, Name: "Legal Fees", Category: "Expenses", NumeratorField: models.MetricLegalFees}},
		Thresholds: map[int64]float64{5: 10},
	})

	require.Len(t, results, 1)
	r := results[0]
	require.Len(t, r.Data.FailedItems, 1)
	item := r.Data.FailedItems[0]
	assert.Equal(t, "Legal Fees", item.Security)
	assert.InDelta(t, 50.0, *item.ChangeValue, 1e-9)

	require.Len(t, item.Breakdown, 3)
	var order []string
	for _, line := range item.Breakdown {
		order = append(order, line.TransactionDescription)
		assert.Equal(t, "Legal Expense", line.GLAccount)
		assert.Equal(t, 1, line.IsException)
	}
	assert.Equal(t, []string{"Counsel", "Filing", "Review"}, order)
	assert.Equal(t, 0.0, item.Breakdown[2].SourceAValue)
	assert.Equal(t, 50.0, item.Breakdown[2].SourceBValue)
}

func TestExpenses_TotalExpenseDualSource(t *testing.T) {
	results := newTestEngine().Run(Input{
		SnapshotA: &models.Snapshot{Source: "admin", TrialBalance: []models.Record{ledgerRow("Legal Expense", 100, "")}},
		SnapshotB: &models.Snapshot{Source: "shadow", TrialBalance: []models.Record{ledgerRow("Legal Expense", 150, "")}},
		KPIs: []models.KPI{
			{ID: 5, Name: "Legal Fees", Category: "Expenses", NumeratorField: models.MetricLegalFees},
			{ID: 9, Name: "Total Expense", Category: "Expenses", NumeratorField: models.MetricTotalExpenses},
		},
		Thresholds: map[int64]float64{5: 10, 9: 20},
		DualSource: true,
	})

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "Total Expense", r.SubType2)
	require.NotNil(t, r.Data.Threshold)
	assert.Equal(t, 20.0, *r.Data.Threshold)
	require.Len(t, r.Data.FailedItems, 1)

	item := r.Data.FailedItems[0]
	assert.Equal(t, 100.0, *item.ValueA)
	assert.Equal(t, 150.0, *item.ValueB)
	require.Len(t, item.Breakdown, 1)
	assert.Equal(t, "Legal Fees", item.Breakdown[0].TransactionDescription)
	assert.Equal(t, "Legal Expense", item.Breakdown[0].GLAccount)
	assert.Equal(t, 1, item.Breakdown[0].IsException)
}

func TestExpenses_SingleSourceNeedsBothTrialBalances(t *testing.T) {
	results := newTestEngine().Run(Input{
		SnapshotA:  &models.Snapshot{TrialBalance: []models.Record{ledgerRow("Legal Expense", 100, "")}},
		SnapshotB:  &models.Snapshot{Portfolio: []models.Record{position("A", "EQ", "Alpha", 1, 1.0)}},
		KPIs:       []models.KPI{{ID: 5, Category: "Expenses", NumeratorField: models.MetricLegalFees}},
		Thresholds: map[int64]float64{5: 10},
	})
	assert.Empty(t, results)
}

func TestFees(t *testing.T) {
	results := newTestEngine().Run(Input{
		SnapshotA: &models.Snapshot{TrialBalance: []models.Record{
			ledgerRow("MgmtFee Class A", 100, ""),
			ledgerRow("Legal Expense", 10, ""),
		}},
		SnapshotB: &models.Snapshot{TrialBalance: []models.Record{
			ledgerRow("MgmtFee Class A", 130, ""),
			ledgerRow("Legal Expense", 90, ""),
		}},
		KPIs:       []models.KPI{{ID: 6, Name: "Management Fees", Category: "Fees", NumeratorField: models.MetricManagementFees}},
		Thresholds: map[int64]float64{6: 20},
	})

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "Non-Trading", r.Type)
	assert.Equal(t, "Fees", r.SubType)
	assert.Equal(t, 1, r.Data.TotalChecked)
	require.Len(t, r.Data.FailedItems, 1)
	assert.Equal(t, "MgmtFee Class A", r.Data.FailedItems[0].Identifier)
	assert.Equal(t, "major_fee_change", r.Data.FailedItems[0].Issue)
}

func TestRatios(t *testing.T) {
	divide := models.KPI{ID: 7, Name: "NAV to Assets", Category: "Financial", NumeratorField: "nav", DenominatorField: "total_assets"}
	base := func() Input {
		return Input{
			SnapshotA:  &models.Snapshot{TrialBalance: anchorTB},
			SnapshotB:  &models.Snapshot{TrialBalance: anchorTB},
			MetricsA:   models.MetricSet{"nav": 80, "total_assets": 100},
			MetricsB:   models.MetricSet{"nav": 60, "total_assets": 100},
			KPIs:       []models.KPI{divide},
			Thresholds: map[int64]float64{7: 10},
		}
	}

	t.Run("single source is signed", func(t *testing.T) {
		results := newTestEngine().Run(base())
		require.Len(t, results, 1)
		r := results[0]
		assert.Equal(t, "Ratio", r.Type)
		assert.Equal(t, "Financial", r.SubType)
		require.NotNil(t, r.Data.Ratio)
		assert.Equal(t, "= NAV / Total Assets", r.Data.Ratio.Formula)
		require.NotNil(t, r.Data.Ratio.Change)
		assert.InDelta(t, -25.0, *r.Data.Ratio.Change, 1e-9)
		assert.True(t, r.Data.Ratio.IsMajor)
		assert.Equal(t, models.MessageFail, r.Message)
	})

	t.Run("dual source is absolute", func(t *testing.T) {
		in := base()
		in.DualSource = true
		results := newTestEngine().Run(in)
		require.Len(t, results, 1)
		assert.InDelta(t, 25.0, *results[0].Data.Ratio.Change, 1e-9)
	})

	t.Run("zero denominator leaves change undefined", func(t *testing.T) {
		in := base()
		in.MetricsA = models.MetricSet{"nav": 80}
		results := newTestEngine().Run(in)
		require.Len(t, results, 1)
		assert.Nil(t, results[0].Data.Ratio.SourceA)
		assert.Nil(t, results[0].Data.Ratio.Change)
		assert.Equal(t, models.MessagePass, results[0].Message)
	})

	t.Run("excess return", func(t *testing.T) {
		in := base()
		in.KPIs = []models.KPI{{
			ID: 7, Name: "Excess Return", Code: excessReturnCode, Category: "Sentiment",
			NumeratorField: "fund_return", DenominatorField: "benchmark_return",
		}}
		in.MetricsA = models.MetricSet{"fund_return": 5, "benchmark_return": 3}
		in.MetricsB = models.MetricSet{"fund_return": 6, "benchmark_return": 3}
		results := newTestEngine().Run(in)
		require.Len(t, results, 1)
		d := results[0].Data.Ratio
		assert.Equal(t, "Sentiment", d.RatioType)
		assert.Equal(t, "= Fund Return - Benchmark Return", d.Formula)
		assert.InDelta(t, 50.0, *d.Change, 1e-9)
	})

	t.Run("missing trial balance", func(t *testing.T) {
		in := base()
		in.SnapshotA = &models.Snapshot{Portfolio: []models.Record{position("A", "EQ", "Alpha", 1, 1.0)}}
		results := newTestEngine().Run(in)
		require.Len(t, results, 1)
		assert.Equal(t, models.MessageError, results[0].Message)
		assert.Equal(t, "No trial balance data found", results[0].Data.Error)
	})
}

func TestFileChecks(t *testing.T) {
	a := &models.Snapshot{
		Source:       "admin",
		TrialBalance: []models.Record{tb("Assets", "Cash", "Cash", 100), tb("Liabilities", "Payable", "AP", -100)},
		Portfolio:    []models.Record{position("A", "EQ", "Alpha", 1, 1.0)},
	}

	t.Run("same source", func(t *testing.T) {
		results := newTestEngine().FileChecks(Input{SnapshotA: a, SnapshotB: a})
		// Two availability results, file received, two quality checks.
		require.Len(t, results, 5)
		received := find(t, results, "File Received")
		assert.Equal(t, "file_revieved", received.Type)
		assert.Equal(t, models.MessagePass, received.Message)
		assert.True(t, received.Data.FileStatus.FileReceived)

		balance := find(t, results, "sourceA")
		assert.Equal(t, "Data Availability", balance.Type)
		for _, r := range results {
			assert.Equal(t, models.MessagePass, r.Message, "%s/%s", r.Type, r.SubType)
		}
	})

	t.Run("missing second source", func(t *testing.T) {
		b := &models.Snapshot{Source: "shadow"}
		results := newTestEngine().FileChecks(Input{SnapshotA: a, SnapshotB: b})
		require.Len(t, results, 7)
		received := find(t, results, "File Received")
		assert.Equal(t, models.MessageFail, received.Message)
		assert.Equal(t, "file_not_received", received.Data.FailedItems[0].Issue)

		var failedAvailability int
		for _, r := range results {
			if r.Type == "Data Availability" && r.SubType2 == "sourceB" {
				assert.Equal(t, models.MessageFail, r.Message)
				assert.Equal(t, 0, r.Data.Availability.RecordCount)
				failedAvailability++
			}
		}
		assert.Equal(t, 2, failedAvailability)
	})

	t.Run("unbalanced trial balance", func(t *testing.T) {
		unbalanced := &models.Snapshot{Source: "admin", TrialBalance: []models.Record{tb("Assets", "Cash", "Cash", 100)}}
		results := newTestEngine().FileChecks(Input{SnapshotA: unbalanced})
		var quality models.ValidationResult
		for _, r := range results {
			if r.Type == "Data Quality" {
				quality = r
			}
		}
		assert.Equal(t, "Trial Balance Balance", quality.SubType)
		assert.Equal(t, models.MessageFail, quality.Message)
		assert.Equal(t, 100.0, quality.Data.Quality.Value)
	})
}
