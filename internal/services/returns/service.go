// Package returns resolves the previous-month NAV and benchmark return that
// feed the return metrics.
package returns

import (
	"context"
	"strings"
	"time"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/interfaces"
	"github.com/bobmcallan/navcheck/internal/services/metrics"
)

// Service resolves return contexts through the configured fallback chain.
type Service struct {
	data       interfaces.DataSource
	benchmarks interfaces.BenchmarkStore
	cfg        common.EngineConfig
	logger     *common.Logger
}

// NewService creates a returns resolver.
// benchmarks may be nil; the configured benchmark table is used instead.
func NewService(data interfaces.DataSource, benchmarks interfaces.BenchmarkStore, cfg common.EngineConfig, logger *common.Logger) *Service {
	if cfg.DefaultBenchmark == "" {
		cfg.DefaultBenchmark = "S&P 500 Index"
	}
	return &Service{
		data:       data,
		benchmarks: benchmarks,
		cfg:        cfg,
		logger:     logger,
	}
}

// Resolve returns the return context for fund at date. The previous NAV is
// taken at the prior month-end; without one both returns stay zero.
func (s *Service) Resolve(ctx context.Context, fund string, date time.Time) metrics.ReturnContext {
	if date.IsZero() {
		return metrics.ReturnContext{}
	}
	prev := common.PreviousMonthEnd(date)

	nav := s.PreviousNAV(ctx, fund, prev)
	if nav <= 0 {
		s.logger.Debug().Str("fund", fund).Str("date", common.FormatDate(prev)).Msg("No previous NAV, returns left at zero")
		return metrics.ReturnContext{}
	}

	return metrics.ReturnContext{
		PreviousNAV:     nav,
		BenchmarkReturn: s.BenchmarkReturn(ctx, prev, date),
	}
}

// PreviousNAV looks for a NAV at date: a configured baseline first, then the
// trial balance NAV of each fallback source in order. Returns 0 when none is
// positive.
func (s *Service) PreviousNAV(ctx context.Context, fund string, date time.Time) float64 {
	for _, b := range s.cfg.BaselineNAVs {
		if b.Fund != "" && !strings.EqualFold(b.Fund, fund) {
			continue
		}
		d, err := common.ParseDate(b.Date)
		if err != nil {
			s.logger.Warn().Str("date", b.Date).Msg("Ignoring baseline NAV with unparsable date")
			continue
		}
		if d.Equal(date) {
			return b.NAV
		}
	}

	if s.data == nil {
		return 0
	}
	for _, source := range s.cfg.NAVFallbackSources {
		records, err := s.data.TrialBalance(ctx, fund, source, date)
		if err != nil {
			s.logger.Warn().Err(err).Str("fund", fund).Str("source", source).Msg("Failed to load fallback trial balance")
			continue
		}
		if nav := metrics.NAV(records); nav > 0 {
			return nav
		}
	}
	return 0
}

// BenchmarkReturn is the percentage move of the default benchmark from prev
// to current: stored values first, then the configured table.
func (s *Service) BenchmarkReturn(ctx context.Context, prev, current time.Time) float64 {
	if s.benchmarks != nil {
		if r, ok := s.storedReturn(ctx, prev, current); ok {
			return r
		}
	}
	return s.tableReturn(prev, current)
}

func (s *Service) storedReturn(ctx context.Context, prev, current time.Time) (float64, bool) {
	name := s.cfg.DefaultBenchmark
	cur, okCur, err := s.benchmarks.BenchmarkValue(ctx, name, current)
	if err != nil {
		s.logger.Warn().Err(err).Str("benchmark", name).Msg("Failed to load benchmark value")
		return 0, false
	}
	old, okPrev, err := s.benchmarks.BenchmarkValue(ctx, name, prev)
	if err != nil {
		s.logger.Warn().Err(err).Str("benchmark", name).Msg("Failed to load benchmark value")
		return 0, false
	}
	if !okCur || !okPrev || old <= 0 {
		return 0, false
	}
	return (cur - old) / old * 100, true
}

// tableReturn reads the configured series. Dates after the 28th are moved
// to their month-end, which is where the series is keyed.
func (s *Service) tableReturn(prev, current time.Time) float64 {
	values := map[string]float64{}
	for _, v := range s.cfg.BenchmarkValues {
		if v.Benchmark != "" && !strings.EqualFold(v.Benchmark, s.cfg.DefaultBenchmark) {
			continue
		}
		d, err := common.ParseDate(v.Date)
		if err != nil {
			continue
		}
		values[common.FormatDate(d)] = v.Value
	}

	cur, okCur := values[common.FormatDate(normalize(current))]
	old, okPrev := values[common.FormatDate(normalize(prev))]
	if !okCur || !okPrev || old == 0 {
		return 0
	}
	return (cur - old) / old * 100
}

func normalize(t time.Time) time.Time {
	if t.Day() > 28 {
		return common.MonthEnd(t)
	}
	return t
}
