package run

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/interfaces"
	"github.com/bobmcallan/navcheck/internal/models"
	"github.com/bobmcallan/navcheck/internal/services/result"
	"github.com/bobmcallan/navcheck/internal/services/returns"
	"github.com/bobmcallan/navcheck/internal/services/validation"
)

// --- Mocks ---

type snapshotKey struct {
	source string
	date   string
}

type mockDataSource struct {
	snapshots map[snapshotKey]*models.Snapshot
	tbErr     error
	divErr    error
	loads     int
}

func (m *mockDataSource) get(source string, date time.Time) *models.Snapshot {
	if s, ok := m.snapshots[snapshotKey{source, common.FormatDate(date)}]; ok {
		return s
	}
	return &models.Snapshot{}
}

func (m *mockDataSource) TrialBalance(_ context.Context, _, source string, date time.Time) ([]models.Record, error) {
	m.loads++
	if m.tbErr != nil {
		return nil, m.tbErr
	}
	return m.get(source, date).TrialBalance, nil
}
func (m *mockDataSource) PortfolioValuation(_ context.Context, _, source string, date time.Time) ([]models.Record, error) {
	return m.get(source, date).Portfolio, nil
}
func (m *mockDataSource) Dividends(_ context.Context, _, source string, date time.Time) ([]models.Record, error) {
	if m.divErr != nil {
		return nil, m.divErr
	}
	return m.get(source, date).Dividends, nil
}

type mockKPIStore struct {
	kpis       []models.KPI
	thresholds map[int64]float64
}

func (m *mockKPIStore) ActiveKPIs(_ context.Context, _ string) ([]models.KPI, error) {
	return m.kpis, nil
}
func (m *mockKPIStore) KPIThreshold(_ context.Context, id int64, _ string) (*float64, error) {
	if t, ok := m.thresholds[id]; ok {
		return &t, nil
	}
	return nil, nil
}

type mockRunStore struct {
	saved []*models.ValidationRun
	err   error
}

func (m *mockRunStore) SaveRun(_ context.Context, run *models.ValidationRun) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, run)
	return nil
}
func (m *mockRunStore) GetRun(_ context.Context, _ string) (*models.ValidationRun, error) {
	return nil, models.ErrNotFound
}
func (m *mockRunStore) ListRuns(_ context.Context, _ string, _ int) ([]models.RunSummary, error) {
	return nil, nil
}
func (m *mockRunStore) DeleteRun(_ context.Context, _ string) error { return nil }

type mockStorageManager struct {
	data *mockDataSource
	kpis *mockKPIStore
	runs *mockRunStore
}

func (m *mockStorageManager) DataSource() interfaces.DataSource { return m.data }
func (m *mockStorageManager) KPIStore() interfaces.KPIStore     { return m.kpis }
func (m *mockStorageManager) BenchmarkStore() interfaces.BenchmarkStore {
	return nil
}
func (m *mockStorageManager) RunStore() interfaces.RunStore {
	if m.runs == nil {
		return nil
	}
	return m.runs
}
func (m *mockStorageManager) SnapshotWriter() interfaces.SnapshotWriter { return nil }
func (m *mockStorageManager) Close() error                              { return nil }

// --- helpers ---

func tbRow(balance float64) models.Record {
	return models.NewRecord(map[string]any{
		models.FieldType:          "Assets",
		models.FieldCategory:      "Investment",
		models.FieldEndingBalance: balance,
	})
}

func newTestStorage() *mockStorageManager {
	return &mockStorageManager{
		data: &mockDataSource{snapshots: map[snapshotKey]*models.Snapshot{
			{"Bluefield", "2024-01-31"}: {TrialBalance: []models.Record{tbRow(100)}},
			{"Bluefield", "2024-02-29"}: {TrialBalance: []models.Record{tbRow(80)}},
		}},
		kpis: &mockKPIStore{
			kpis: []models.KPI{
				{ID: 1, Name: "Investments", Category: "Expenses", NumeratorField: "investments"},
				{ID: 2, Name: "Legal Fees", Category: "Expenses", NumeratorField: "legal_fees"},
				{ID: 3, Name: "Major Price Change", Category: "Pricing", NumeratorField: "current_price"},
			},
			thresholds: map[int64]float64{1: 10, 3: 5},
		},
		runs: &mockRunStore{},
	}
}

func newTestService(sm *mockStorageManager) *Service {
	logger := common.NewSilentLogger()
	engine := validation.NewEngine(result.NewBuilder(""), nil)
	ret := returns.NewService(sm.data, nil, common.EngineConfig{}, logger)
	return NewService(sm, ret, engine, common.CacheConfig{Enabled: true, TTL: "1m", CleanupInterval: "1m"}, logger)
}

func request() models.RunRequest {
	return models.RunRequest{
		Fund:           "NexBridge",
		SourceA:        "Bluefield",
		DateA:          "2024-01-31",
		DateB:          "02/29/2024",
		SkipFileChecks: true,
	}
}

// --- tests ---

func TestRun_ExecutesAndPersists(t *testing.T) {
	sm := newTestStorage()
	svc := newTestService(sm)

	run, err := svc.Run(context.Background(), request())
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.False(t, run.DualSource)
	assert.Equal(t, "Bluefield", run.SourceB)
	assert.Equal(t, "2024-02-29", run.DateB)

	// Legal fees has no threshold; pricing has no portfolio rows.
	require.Len(t, run.Results, 1)
	assert.Equal(t, "Investments", run.Results[0].SubType2)
	assert.Equal(t, models.MessageFail, run.Results[0].Message)

	assert.Equal(t, 1, run.Summary.Failed)
	assert.Equal(t, run.ID, run.Summary.RunID)
	require.Len(t, sm.runs.saved, 1)
	assert.Equal(t, run.ID, sm.runs.saved[0].ID)
}

func TestRun_CacheHitAndInvalidate(t *testing.T) {
	sm := newTestStorage()
	svc := newTestService(sm)
	ctx := context.Background()

	first, err := svc.Run(ctx, request())
	require.NoError(t, err)
	loads := sm.data.loads

	second, err := svc.Run(ctx, request())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, loads, sm.data.loads)

	assert.Equal(t, 0, svc.InvalidateCache("Other Fund"))
	assert.Equal(t, 1, svc.InvalidateCache("nexbridge"))

	third, err := svc.Run(ctx, request())
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.NotEqual(t, first.ID, third.ID)

	assert.Equal(t, 1, svc.InvalidateCache(""))
}

func TestRun_QuestionKeysCache(t *testing.T) {
	sm := newTestStorage()
	svc := newTestService(sm)
	ctx := context.Background()

	req := request()
	req.Question = "  Run   Expense checks "
	first, err := svc.Run(ctx, req)
	require.NoError(t, err)

	req.Question = "run expense CHECKS"
	second, err := svc.Run(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.ID, second.ID)

	req.NoCache = true
	third, err := svc.Run(ctx, req)
	require.NoError(t, err)
	assert.False(t, third.Cached)
}

func TestRun_QuestionCacheKeyIncludesRequest(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *models.RunRequest)
	}{
		{"swapped dates", func(r *models.RunRequest) { r.DateA, r.DateB = "2024-02-29", "2024-01-31" }},
		{"other source b", func(r *models.RunRequest) { r.SourceB = "Greenstone" }},
		{"fund id", func(r *models.RunRequest) { r.FundID = "F-2" }},
		{"categories", func(r *models.RunRequest) { r.Categories = []string{"pricing"} }},
		{"file checks", func(r *models.RunRequest) { r.SkipFileChecks = false }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := newTestStorage()
			svc := newTestService(sm)
			ctx := context.Background()

			req := request()
			req.Question = "run expense checks"
			first, err := svc.Run(ctx, req)
			require.NoError(t, err)
			assert.False(t, first.Cached)

			tt.modify(&req)
			second, err := svc.Run(ctx, req)
			require.NoError(t, err)
			assert.False(t, second.Cached)
			assert.NotEqual(t, first.ID, second.ID)
		})
	}
}

func TestRun_CategoryFilter(t *testing.T) {
	sm := newTestStorage()
	svc := newTestService(sm)

	req := request()
	req.Categories = []string{"pricing"}
	run, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, run.Results)
}

func TestRun_FileChecksAppended(t *testing.T) {
	sm := newTestStorage()
	svc := newTestService(sm)

	req := request()
	req.SkipFileChecks = false
	run, err := svc.Run(context.Background(), req)
	require.NoError(t, err)

	var received bool
	for _, r := range run.Results {
		if r.SubType2 == "File Received" {
			received = true
		}
	}
	assert.True(t, received)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.RunRequest, *mockStorageManager)
		wantErr error
	}{
		{"missing fund", func(r *models.RunRequest, _ *mockStorageManager) { r.Fund = "" }, ErrInvalidRequest},
		{"bad date", func(r *models.RunRequest, _ *mockStorageManager) { r.DateA = "yesterday" }, ErrInvalidRequest},
		{"trial balance failure", func(_ *models.RunRequest, sm *mockStorageManager) { sm.data.tbErr = errors.New("db down") }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := newTestStorage()
			req := request()
			tt.mutate(&req, sm)
			_, err := newTestService(sm).Run(context.Background(), req)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRun_DividendAndPersistFailuresAreTolerated(t *testing.T) {
	sm := newTestStorage()
	sm.data.divErr = errors.New("no dividends table")
	sm.runs.err = errors.New("disk full")

	run, err := newTestService(sm).Run(context.Background(), request())
	require.NoError(t, err)
	assert.NotEmpty(t, run.Results)
}

func TestRun_WithoutRunStore(t *testing.T) {
	sm := newTestStorage()
	sm.runs = nil
	_, err := newTestService(sm).Run(context.Background(), request())
	require.NoError(t, err)
}

func TestNormalize_DualSource(t *testing.T) {
	req := request()
	req.SourceB = "Harborview"
	p, err := normalize(req)
	require.NoError(t, err)
	assert.True(t, p.dual)
	assert.False(t, p.sameSnapshot)

	off := false
	req.DualSource = &off
	p, err = normalize(req)
	require.NoError(t, err)
	assert.False(t, p.dual)

	req = request()
	req.DateB = ""
	p, err = normalize(req)
	require.NoError(t, err)
	assert.True(t, p.sameSnapshot)
}

func TestMetrics(t *testing.T) {
	sm := newTestStorage()
	svc := newTestService(sm)
	ctx := context.Background()

	m, err := svc.Metrics(ctx, "NexBridge", "Bluefield", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 100.0, m.Get("investments"))

	_, err = svc.Metrics(ctx, "NexBridge", "Nowhere", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, validation.ErrNoData)
}

func TestEvaluate(t *testing.T) {
	svc := newTestService(newTestStorage())
	results, err := svc.Evaluate(context.Background(), interfaces.EvaluateInput{
		SnapshotA:  models.Snapshot{TrialBalance: []models.Record{tbRow(100)}},
		SnapshotB:  &models.Snapshot{TrialBalance: []models.Record{tbRow(80)}},
		KPIs:       []models.KPI{{ID: 1, Name: "Investments", Category: "Expenses", NumeratorField: "investments"}},
		Thresholds: map[int64]float64{1: 30},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.MessagePass, results[0].Message)
}
