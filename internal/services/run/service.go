// Package run orchestrates validation runs: it fetches snapshots, resolves
// thresholds and returns, invokes the validation engine and records the run.
package run

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/interfaces"
	"github.com/bobmcallan/navcheck/internal/models"
	"github.com/bobmcallan/navcheck/internal/services/metrics"
	"github.com/bobmcallan/navcheck/internal/services/report"
	"github.com/bobmcallan/navcheck/internal/services/returns"
	"github.com/bobmcallan/navcheck/internal/services/validation"
)

// ErrInvalidRequest is returned when a run request is missing required
// fields or carries unparsable dates.
var ErrInvalidRequest = errors.New("invalid run request")

// Service implements RunService.
type Service struct {
	storage interfaces.StorageManager
	returns *returns.Service
	engine  *validation.Engine
	cache   *cache.Cache // nil when caching is disabled
	logger  *common.Logger
	now     func() time.Time
}

// NewService creates a new run service.
func NewService(storage interfaces.StorageManager, returnsSvc *returns.Service, engine *validation.Engine, cfg common.CacheConfig, logger *common.Logger) *Service {
	s := &Service{
		storage: storage,
		returns: returnsSvc,
		engine:  engine,
		logger:  logger,
		now:     time.Now,
	}
	if cfg.Enabled {
		s.cache = cache.New(cfg.GetTTL(), cfg.GetCleanupInterval())
	}
	return s
}

type plan struct {
	req          models.RunRequest
	dateA, dateB time.Time
	dual         bool
	sameSnapshot bool
}

func normalize(req models.RunRequest) (plan, error) {
	req.Fund = strings.TrimSpace(req.Fund)
	req.SourceA = strings.TrimSpace(req.SourceA)
	req.SourceB = strings.TrimSpace(req.SourceB)
	if req.Fund == "" || req.SourceA == "" || req.DateA == "" {
		return plan{}, fmt.Errorf("%w: fund, source_a and date_a are required", ErrInvalidRequest)
	}
	if req.SourceB == "" {
		req.SourceB = req.SourceA
	}
	if req.DateB == "" {
		req.DateB = req.DateA
	}

	dateA, err := common.ParseDate(req.DateA)
	if err != nil {
		return plan{}, fmt.Errorf("%w: date_a: %v", ErrInvalidRequest, err)
	}
	dateB, err := common.ParseDate(req.DateB)
	if err != nil {
		return plan{}, fmt.Errorf("%w: date_b: %v", ErrInvalidRequest, err)
	}
	req.DateA = common.FormatDate(dateA)
	req.DateB = common.FormatDate(dateB)

	dual := !strings.EqualFold(req.SourceA, req.SourceB)
	if req.DualSource != nil {
		dual = *req.DualSource
	}
	return plan{
		req:          req,
		dateA:        dateA,
		dateB:        dateB,
		dual:         dual,
		sameSnapshot: strings.EqualFold(req.SourceA, req.SourceB) && dateA.Equal(dateB),
	}, nil
}

// Run executes one validation run. Results are cached by question and fund
// unless the request opts out.
func (s *Service) Run(ctx context.Context, req models.RunRequest) (*models.ValidationRun, error) {
	p, err := normalize(req)
	if err != nil {
		return nil, err
	}

	key := cacheKey(p)
	if s.cache != nil && !p.req.NoCache {
		if cached, found := s.cache.Get(key); found {
			s.logger.Debug().Str("fund", p.req.Fund).Str("key", key).Msg("Cache hit for validation run")
			run := *cached.(*models.ValidationRun)
			run.Cached = true
			return &run, nil
		}
	}

	started := s.now()
	s.logger.Info().
		Str("fund", p.req.Fund).
		Str("source_a", p.req.SourceA).
		Str("source_b", p.req.SourceB).
		Str("date_a", p.req.DateA).
		Str("date_b", p.req.DateB).
		Bool("dual", p.dual).
		Msg("Starting validation run")

	snapA, err := s.snapshot(ctx, p.req.Fund, p.req.SourceA, p.dateA)
	if err != nil {
		return nil, err
	}
	snapB := snapA
	if !p.sameSnapshot {
		if snapB, err = s.snapshot(ctx, p.req.Fund, p.req.SourceB, p.dateB); err != nil {
			return nil, err
		}
	}

	kpis, thresholds, err := s.catalog(ctx, p.req.Categories, p.req.FundID)
	if err != nil {
		return nil, err
	}

	in := validation.Input{
		SnapshotA:  snapA,
		SnapshotB:  snapB,
		KPIs:       kpis,
		Thresholds: thresholds,
		DualSource: p.dual,
		FundID:     p.req.FundID,
	}
	if s.returns != nil {
		in.ReturnA = s.returns.Resolve(ctx, p.req.Fund, p.dateA)
		in.ReturnB = s.returns.Resolve(ctx, p.req.Fund, p.dateB)
	}

	results := s.engine.Run(in)
	if !p.req.SkipFileChecks {
		results = append(results, s.engine.FileChecks(in)...)
	}

	run := &models.ValidationRun{
		ID:         uuid.New().String(),
		Fund:       p.req.Fund,
		FundID:     p.req.FundID,
		SourceA:    p.req.SourceA,
		SourceB:    p.req.SourceB,
		DateA:      p.req.DateA,
		DateB:      p.req.DateB,
		DualSource: p.dual,
		StartedAt:  started.UTC(),
		DurationMS: s.now().Sub(started).Milliseconds(),
		Results:    results,
	}
	run.Summary = report.Summarize(results)
	run.Summary.RunID = run.ID
	run.Summary.Fund = run.Fund
	run.Summary.DateA = run.DateA
	run.Summary.DateB = run.DateB
	run.Summary.StartedAt = run.StartedAt

	for _, r := range results {
		if r.IsError() {
			s.logger.Warn().Str("run", run.ID).Str("type", r.Type).Str("check", r.SubType2).Str("error", r.Data.Error).Msg("Validation check could not be evaluated")
		}
	}

	if store := s.storage.RunStore(); store != nil {
		if err := store.SaveRun(ctx, run); err != nil {
			s.logger.Warn().Err(err).Str("run", run.ID).Msg("Failed to persist validation run")
		}
	}
	if s.cache != nil {
		s.cache.Set(key, run, cache.DefaultExpiration)
	}

	s.logger.Info().
		Str("run", run.ID).
		Str("fund", run.Fund).
		Int("results", run.Summary.Total).
		Int("failed", run.Summary.Failed).
		Int("errors", run.Summary.Errors).
		Int64("duration_ms", run.DurationMS).
		Msg("Validation run complete")

	return run, nil
}

// snapshot loads the three record sets for (fund, source, date). Dividends
// are optional; a failed dividend lookup is logged and treated as empty.
func (s *Service) snapshot(ctx context.Context, fund, source string, date time.Time) (*models.Snapshot, error) {
	ds := s.storage.DataSource()
	snap := &models.Snapshot{Fund: fund, Source: source, Date: date}

	var err error
	if snap.TrialBalance, err = ds.TrialBalance(ctx, fund, source, date); err != nil {
		return nil, fmt.Errorf("failed to load trial balance for %s/%s: %w", fund, source, err)
	}
	if snap.Portfolio, err = ds.PortfolioValuation(ctx, fund, source, date); err != nil {
		return nil, fmt.Errorf("failed to load portfolio valuation for %s/%s: %w", fund, source, err)
	}
	if snap.Dividends, err = ds.Dividends(ctx, fund, source, date); err != nil {
		s.logger.Warn().Err(err).Str("fund", fund).Str("source", source).Msg("Failed to load dividends, continuing without")
		snap.Dividends = nil
	}

	s.logger.Debug().
		Str("fund", fund).
		Str("source", source).
		Str("date", common.FormatDate(date)).
		Int("trial_balance", len(snap.TrialBalance)).
		Int("portfolio", len(snap.Portfolio)).
		Int("dividends", len(snap.Dividends)).
		Msg("Snapshot loaded")
	return snap, nil
}

// catalog returns the active KPIs, restricted to categories when given,
// and the thresholds resolved for fundID. KPIs without a threshold are left
// out of the map.
func (s *Service) catalog(ctx context.Context, categories []string, fundID string) ([]models.KPI, map[int64]float64, error) {
	store := s.storage.KPIStore()
	all, err := store.ActiveKPIs(ctx, "")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load KPIs: %w", err)
	}

	wanted := map[validation.Category]bool{}
	for _, c := range categories {
		if cat, ok := validation.ParseCategory(c); ok {
			wanted[cat] = true
		}
	}

	var kpis []models.KPI
	thresholds := map[int64]float64{}
	for _, k := range all {
		if len(wanted) > 0 {
			cat, ok := validation.ParseCategory(k.Category)
			if !ok || !wanted[cat] {
				continue
			}
		}
		kpis = append(kpis, k)

		t, err := store.KPIThreshold(ctx, k.ID, fundID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve threshold for KPI %d: %w", k.ID, err)
		}
		if t == nil {
			s.logger.Debug().Int64("kpi", k.ID).Str("code", k.Code).Msg("No threshold configured, KPI skipped")
			continue
		}
		thresholds[k.ID] = *t
	}
	return kpis, thresholds, nil
}

// Evaluate runs the engine over caller-supplied inputs without touching
// storage or the cache.
func (s *Service) Evaluate(_ context.Context, input interfaces.EvaluateInput) ([]models.ValidationResult, error) {
	a := input.SnapshotA
	in := validation.Input{
		SnapshotA:  &a,
		SnapshotB:  input.SnapshotB,
		KPIs:       input.KPIs,
		Thresholds: input.Thresholds,
		DualSource: input.DualSource,
		FundID:     input.FundID,
	}
	if r := input.Returns; r != nil {
		in.ReturnA = metrics.ReturnContext{PreviousNAV: r.PreviousNAVA, BenchmarkReturn: r.BenchmarkReturnA}
		in.ReturnB = metrics.ReturnContext{PreviousNAV: r.PreviousNAVB, BenchmarkReturn: r.BenchmarkReturnB}
	}

	results := s.engine.Run(in)
	if input.FileChecks {
		results = append(results, s.engine.FileChecks(in)...)
	}
	return results, nil
}

// Metrics computes the metric set for one snapshot.
func (s *Service) Metrics(ctx context.Context, fund, source string, date time.Time) (models.MetricSet, error) {
	snap, err := s.snapshot(ctx, fund, source, date)
	if err != nil {
		return nil, err
	}
	if snap.Empty() {
		return nil, fmt.Errorf("%s/%s on %s: %w", fund, source, common.FormatDate(date), validation.ErrNoData)
	}
	var rc metrics.ReturnContext
	if s.returns != nil {
		rc = s.returns.Resolve(ctx, fund, date)
	}
	return metrics.Compute(snap, rc), nil
}

// InvalidateCache drops cached runs for fund, or every cached run when fund
// is empty. It returns the number of entries removed.
func (s *Service) InvalidateCache(fund string) int {
	if s.cache == nil {
		return 0
	}
	if fund == "" {
		n := s.cache.ItemCount()
		s.cache.Flush()
		s.logger.Info().Int("entries", n).Msg("Run cache flushed")
		return n
	}

	suffix := "|" + strings.ToLower(strings.TrimSpace(fund))
	var removed int
	for key := range s.cache.Items() {
		if strings.HasSuffix(key, suffix) {
			s.cache.Delete(key)
			removed++
		}
	}
	s.logger.Info().Str("fund", fund).Int("entries", removed).Msg("Run cache invalidated")
	return removed
}

// cacheKey is the canonical request string, prefixed by the normalised
// question when one is set, joined to the fund.
func cacheKey(p plan) string {
	cats := make([]string, 0, len(p.req.Categories))
	for _, c := range p.req.Categories {
		cats = append(cats, strings.ToLower(strings.TrimSpace(c)))
	}
	key := strings.ToLower(fmt.Sprintf("%s;%s;%s;%s;%s;dual=%t;files=%t;cats=%s",
		p.req.FundID, p.req.SourceA, p.req.SourceB, p.req.DateA, p.req.DateB,
		p.dual, !p.req.SkipFileChecks, strings.Join(cats, ",")))
	if q := strings.Join(strings.Fields(strings.ToLower(p.req.Question)), " "); q != "" {
		key = q + ";" + key
	}
	return key + "|" + strings.ToLower(p.req.Fund)
}

// Ensure Service implements RunService
var _ interfaces.RunService = (*Service)(nil)
