package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/models"
)

// --- Mocks ---

type mockRunStore struct {
	runs map[string]*models.ValidationRun
}

func (m *mockRunStore) SaveRun(_ context.Context, run *models.ValidationRun) error {
	m.runs[run.ID] = run
	return nil
}
func (m *mockRunStore) GetRun(_ context.Context, id string) (*models.ValidationRun, error) {
	if run, ok := m.runs[id]; ok {
		return run, nil
	}
	return nil, models.ErrNotFound
}
func (m *mockRunStore) ListRuns(_ context.Context, _ string, _ int) ([]models.RunSummary, error) {
	return nil, nil
}
func (m *mockRunStore) DeleteRun(_ context.Context, id string) error {
	delete(m.runs, id)
	return nil
}

// --- helpers ---

func f(v float64) *float64 { return &v }

func testRun() *models.ValidationRun {
	threshold := 10.0
	results := []models.ValidationResult{
		{
			Type: "PnL", SubType: "Pricing", SubType2: "Major Price Change", Message: models.MessageFail,
			Data: models.ResultData{
				Count: 1, TotalChecked: 3, PassedCount: 2, Threshold: &threshold,
				PrecisionType: models.PrecisionPercentage, KPICode: "major_price_change",
				FailedItems: []models.ValidationItem{{
					Identifier: "Alpha | Class A", InvID: "A1", ValueA: f(50), ValueB: f(60),
					Change: f(20), DisplayChange: "20.000%", Issue: "major_price_change",
				}},
				PassedItems: []models.ValidationItem{{Identifier: "Beta"}, {Identifier: "Gamma"}},
			},
		},
		{
			Type: "PnL", SubType: "Pricing", SubType2: "Missing Price", Message: models.MessagePass,
			Data: models.ResultData{TotalChecked: 3, PassedCount: 3},
		},
		{
			Type: "PnL", SubType: "Error", SubType2: "Positions", Message: models.MessageError,
			Data: models.ResultData{Error: "Error in Positions validations: boom"},
		},
	}
	return &models.ValidationRun{
		ID:        "run-1",
		Fund:      "NexBridge",
		SourceA:   "Bluefield",
		SourceB:   "Bluefield",
		DateA:     "2024-01-31",
		DateB:     "2024-02-29",
		StartedAt: time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
		Summary:   Summarize(results),
		Results:   results,
	}
}

func newTestService() *Service {
	store := &mockRunStore{runs: map[string]*models.ValidationRun{"run-1": testRun()}}
	return NewService(store, common.NewSilentLogger())
}

// --- tests ---

func TestSummarize(t *testing.T) {
	s := testRun().Summary
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 1, s.Exceptions)

	require.Len(t, s.Categories, 2)
	assert.Equal(t, "Pricing", s.Categories[0].SubType)
	assert.Equal(t, 2, s.Categories[0].Checks)
	assert.Equal(t, "Error", s.Categories[1].SubType)
	assert.Equal(t, 1, s.Categories[1].Errors)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Total)
	assert.NotNil(t, s.Categories)
}

func TestWorkbook(t *testing.T) {
	data, err := newTestService().Workbook(context.Background(), "run-1")
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	summary, err := wb.GetRows(sheetSummary)
	require.NoError(t, err)
	require.Len(t, summary, 4) // header + three results
	assert.Equal(t, "Type", summary[0][0])
	assert.Equal(t, "FAIL", summary[1][3])
	assert.Equal(t, "ERROR", summary[3][3])

	exceptions, err := wb.GetRows(sheetExceptions)
	require.NoError(t, err)
	require.Len(t, exceptions, 2)
	assert.Equal(t, "Alpha | Class A", exceptions[1][3])
	assert.Equal(t, "major_price_change", exceptions[1][10])
}

func TestChart(t *testing.T) {
	data, err := newTestService().Chart(context.Background(), "run-1")
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte("\x89PNG"), data[:4])
}

func TestChart_NothingToChart(t *testing.T) {
	run := &models.ValidationRun{Results: []models.ValidationResult{
		{Type: "PnL", SubType: "Error", Message: models.MessageError},
	}}
	err := RenderChart(run, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNothingToChart)
}

func TestService_UnknownRun(t *testing.T) {
	svc := newTestService()
	_, err := svc.Workbook(context.Background(), "missing")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	disabled := NewService(nil, common.NewSilentLogger())
	_, err = disabled.Markdown(context.Background(), "run-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
