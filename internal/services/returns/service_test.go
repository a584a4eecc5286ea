package returns

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/models"
)

// --- Mocks ---

type mockDataSource struct {
	tb    map[string][]models.Record // keyed by source
	err   error
	calls []string
}

func (m *mockDataSource) TrialBalance(_ context.Context, _, source string, _ time.Time) ([]models.Record, error) {
	m.calls = append(m.calls, source)
	if m.err != nil {
		return nil, m.err
	}
	return m.tb[source], nil
}
func (m *mockDataSource) PortfolioValuation(_ context.Context, _, _ string, _ time.Time) ([]models.Record, error) {
	return nil, nil
}
func (m *mockDataSource) Dividends(_ context.Context, _, _ string, _ time.Time) ([]models.Record, error) {
	return nil, nil
}

type mockBenchmarks struct {
	values map[string]float64
}

func (m *mockBenchmarks) BenchmarkValue(_ context.Context, _ string, date time.Time) (float64, bool, error) {
	v, ok := m.values[common.FormatDate(date)]
	return v, ok, nil
}

func date(s string) time.Time {
	d, _ := common.ParseDate(s)
	return d
}

func navRows(nav float64) []models.Record {
	return []models.Record{models.NewRecord(map[string]any{
		models.FieldType:          "Assets",
		models.FieldCategory:      "Investment",
		models.FieldEndingBalance: nav,
	})}
}

func engineConfig() common.EngineConfig {
	return common.EngineConfig{
		DefaultBenchmark:   "S&P 500 Index",
		NAVFallbackSources: []string{"Bluefield", "Harborview"},
		BaselineNAVs: []common.BaselineNAV{
			{Fund: "NexBridge", Date: "2023-12-31", NAV: 1909492081.14},
		},
		BenchmarkValues: []common.BenchmarkValue{
			{Benchmark: "S&P 500 Index", Date: "2023-12-31", Value: 4769.83},
			{Benchmark: "S&P 500 Index", Date: "2024-01-31", Value: 4845.65},
			{Benchmark: "S&P 500 Index", Date: "2024-02-29", Value: 5096.27},
		},
	}
}

func TestPreviousNAV(t *testing.T) {
	tests := []struct {
		name string
		fund string
		date string
		data *mockDataSource
		want float64
	}{
		{"baseline wins", "NexBridge", "2023-12-31", &mockDataSource{tb: map[string][]models.Record{"Bluefield": navRows(5)}}, 1909492081.14},
		{"baseline is per fund", "Other", "2023-12-31", &mockDataSource{}, 0},
		{"first positive fallback source", "NexBridge", "2024-01-31", &mockDataSource{tb: map[string][]models.Record{
			"Bluefield":  navRows(0),
			"Harborview": navRows(1000),
		}}, 1000},
		{"source errors are skipped", "NexBridge", "2024-01-31", &mockDataSource{err: errors.New("down")}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.data, nil, engineConfig(), common.NewSilentLogger())
			assert.InDelta(t, tt.want, svc.PreviousNAV(context.Background(), tt.fund, date(tt.date)), 1e-6)
		})
	}
}

func TestBenchmarkReturn_StoreThenTable(t *testing.T) {
	t.Run("store", func(t *testing.T) {
		store := &mockBenchmarks{values: map[string]float64{"2024-01-31": 110, "2024-02-29": 121}}
		svc := NewService(nil, store, engineConfig(), common.NewSilentLogger())
		assert.InDelta(t, 10.0, svc.BenchmarkReturn(context.Background(), date("2024-01-31"), date("2024-02-29")), 1e-9)
	})

	t.Run("table fallback", func(t *testing.T) {
		svc := NewService(nil, &mockBenchmarks{}, engineConfig(), common.NewSilentLogger())
		want := (4845.65 - 4769.83) / 4769.83 * 100
		assert.InDelta(t, want, svc.BenchmarkReturn(context.Background(), date("2023-12-31"), date("2024-01-31")), 1e-9)
	})

	t.Run("late-month date normalised", func(t *testing.T) {
		svc := NewService(nil, nil, engineConfig(), common.NewSilentLogger())
		want := (5096.27 - 4845.65) / 4845.65 * 100
		assert.InDelta(t, want, svc.BenchmarkReturn(context.Background(), date("2024-01-30"), date("2024-02-29")), 1e-9)
	})

	t.Run("unknown dates", func(t *testing.T) {
		svc := NewService(nil, nil, engineConfig(), common.NewSilentLogger())
		assert.Equal(t, 0.0, svc.BenchmarkReturn(context.Background(), date("2025-01-31"), date("2025-02-28")))
	})
}

func TestResolve(t *testing.T) {
	svc := NewService(&mockDataSource{}, nil, engineConfig(), common.NewSilentLogger())

	rc := svc.Resolve(context.Background(), "NexBridge", date("2024-01-31"))
	assert.InDelta(t, 1909492081.14, rc.PreviousNAV, 1e-6)
	assert.InDelta(t, (4845.65-4769.83)/4769.83*100, rc.BenchmarkReturn, 1e-9)

	rc = svc.Resolve(context.Background(), "NexBridge", date("2024-03-31"))
	assert.Zero(t, rc.PreviousNAV)
	assert.Zero(t, rc.BenchmarkReturn)
}
