package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/interfaces"
	"github.com/bobmcallan/navcheck/internal/models"
)

// scheduledJobTimeout bounds one pass over every configured job.
const scheduledJobTimeout = 30 * time.Minute

// StartScheduler registers the configured jobs on a cron schedule. It is a
// no-op when the scheduler is disabled or has no jobs.
func (a *App) StartScheduler() error {
	cfg := a.Config.Scheduler
	if !cfg.Enabled || len(cfg.Jobs) == 0 {
		return nil
	}

	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			a.Logger.Warn().Err(err).Str("timezone", cfg.Timezone).Msg("Scheduler: unknown timezone, using UTC")
		} else {
			loc = l
		}
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), scheduledJobTimeout)
		defer cancel()
		runScheduledJobs(ctx, a.RunService, cfg.Jobs, time.Now().In(loc), a.Logger)
	}); err != nil {
		return fmt.Errorf("invalid scheduler expression %q: %w", cfg.Schedule, err)
	}

	c.Start()
	a.scheduler = c
	a.Logger.Info().
		Str("schedule", cfg.Schedule).
		Str("timezone", loc.String()).
		Int("jobs", len(cfg.Jobs)).
		Msg("Scheduler: started")
	return nil
}

// StopScheduler stops the cron runner and waits for a running pass.
func (a *App) StopScheduler() {
	if a.scheduler == nil {
		return
	}
	<-a.scheduler.Stop().Done()
	a.scheduler = nil
	a.Logger.Info().Msg("Scheduler: stopped")
}

// scheduledDates returns the two most recent completed month-ends before
// now: date_a is the earlier, date_b the later.
func scheduledDates(now time.Time) (time.Time, time.Time) {
	dateB := common.PreviousMonthEnd(now)
	dateA := common.PreviousMonthEnd(dateB)
	return dateA, dateB
}

// jobRequest builds the run request for one scheduled job.
func jobRequest(job common.ScheduledJob, now time.Time) models.RunRequest {
	dateA, dateB := scheduledDates(now)
	sourceB := job.SourceB
	if sourceB == "" {
		sourceB = job.SourceA
	}
	return models.RunRequest{
		Fund:       job.Fund,
		FundID:     job.FundID,
		SourceA:    job.SourceA,
		SourceB:    sourceB,
		DateA:      common.FormatDate(dateA),
		DateB:      common.FormatDate(dateB),
		Categories: job.Categories,
		NoCache:    true,
	}
}

// runScheduledJobs executes every job once. A failing job is logged and
// the remaining jobs still run. It returns the number of runs completed.
func runScheduledJobs(ctx context.Context, runs interfaces.RunService, jobs []common.ScheduledJob, now time.Time, logger *common.Logger) int {
	completed := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Msg("Scheduler: pass cancelled")
			break
		}

		req := jobRequest(job, now)
		start := time.Now()
		r, err := runs.Run(ctx, req)
		if err != nil {
			logger.Error().Err(err).
				Str("fund", job.Fund).
				Str("source_a", req.SourceA).
				Str("source_b", req.SourceB).
				Msg("Scheduler: validation run failed")
			continue
		}
		completed++

		logger.Info().
			Str("run", r.ID).
			Str("fund", r.Fund).
			Str("date_a", r.DateA).
			Str("date_b", r.DateB).
			Int("checks", r.Summary.Total).
			Int("failed", r.Summary.Failed).
			Int("errors", r.Summary.Errors).
			Int("exceptions", r.Summary.Exceptions).
			Dur("elapsed", time.Since(start)).
			Msg("Scheduler: validation run complete")
	}
	return completed
}
