// Package badger keeps validation run history in an embedded BadgerHold
// database.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/interfaces"
	"github.com/bobmcallan/navcheck/internal/models"
)

// RunStore persists runs keyed by id, indexed by fund.
type RunStore struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// OpenRunStore opens (creating when needed) the run database in dir.
func OpenRunStore(logger *common.Logger, dir string) (*RunStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run store directory %s: %w", dir, err)
	}

	opts := badgerhold.DefaultOptions
	opts.Dir = dir
	opts.ValueDir = dir
	opts.Logger = nil

	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store at %s: %w", dir, err)
	}
	logger.Debug().Str("path", dir).Msg("Run store opened")
	return &RunStore{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *RunStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun stores or replaces a run under its id.
func (s *RunStore) SaveRun(_ context.Context, run *models.ValidationRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	stored := *run
	stored.Cached = false
	if err := s.db.Upsert(stored.ID, stored); err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	s.logger.Debug().Str("run", run.ID).Str("fund", run.Fund).Int("results", len(run.Results)).Msg("Run saved")
	return nil
}

// GetRun returns the run with id, or models.ErrNotFound.
func (s *RunStore) GetRun(_ context.Context, id string) (*models.ValidationRun, error) {
	var run models.ValidationRun
	if err := s.db.Get(id, &run); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("run %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return &run, nil
}

// ListRuns returns run summaries newest first, optionally for one fund.
// The fund matches case-insensitively. A non-positive limit returns every
// run.
func (s *RunStore) ListRuns(_ context.Context, fund string, limit int) ([]models.RunSummary, error) {
	var q *badgerhold.Query
	if fund != "" {
		q = badgerhold.Where("Fund").MatchFunc(fundMatcher(fund))
	} else {
		q = &badgerhold.Query{}
	}
	q = q.SortBy("StartedAt").Reverse()
	if limit > 0 {
		q = q.Limit(limit)
	}

	var runs []models.ValidationRun
	if err := s.db.Find(&runs, q); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	out := make([]models.RunSummary, 0, len(runs))
	for _, r := range runs {
		out = append(out, summaryOf(r))
	}
	return out, nil
}

func fundMatcher(fund string) badgerhold.MatchFunc {
	return func(ra *badgerhold.RecordAccess) (bool, error) {
		name, ok := ra.Field().(string)
		return ok && strings.EqualFold(name, fund), nil
	}
}

// DeleteRun removes a run. Deleting an unknown id is not an error.
func (s *RunStore) DeleteRun(_ context.Context, id string) error {
	err := s.db.Delete(id, models.ValidationRun{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	s.logger.Debug().Str("run", id).Msg("Run deleted")
	return nil
}

// summaryOf fills the header fields older runs may lack.
func summaryOf(r models.ValidationRun) models.RunSummary {
	sum := r.Summary
	sum.RunID = r.ID
	sum.Fund = r.Fund
	sum.DateA = r.DateA
	sum.DateB = r.DateB
	sum.StartedAt = r.StartedAt
	if sum.Categories == nil {
		sum.Categories = []models.CategorySummary{}
	}
	return sum
}

var _ interfaces.RunStore = (*RunStore)(nil)
