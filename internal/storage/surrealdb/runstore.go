// Package surrealdb keeps validation run history in a shared SurrealDB
// instance.
package surrealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/interfaces"
	"github.com/bobmcallan/navcheck/internal/models"
)

const runsTable = "validation_runs"

// RunStore implements interfaces.RunStore on SurrealDB.
type RunStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// runRow is the stored document. The full run is kept as JSON so nested
// result payloads survive unchanged; the scalar columns serve listing.
type runRow struct {
	RunID     string    `json:"run_id"`
	Fund      string    `json:"fund"`
	FundKey   string    `json:"fund_key"`
	StartedAt time.Time `json:"started_at"`
	Summary   string    `json:"summary"`
	Payload   string    `json:"payload,omitempty"`
}

// Connect signs in, selects the namespace and database, and ensures the
// runs table exists.
func Connect(ctx context.Context, logger *common.Logger, cfg common.SurrealDBConfig) (*RunStore, error) {
	db, err := surrealdb.New(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": cfg.Username,
		"pass": cfg.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	s := NewRunStore(db, logger)
	if err := s.define(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}

	logger.Info().
		Str("address", cfg.Address).
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("SurrealDB run store connected")
	return s, nil
}

// NewRunStore wraps an already connected database.
func NewRunStore(db *surrealdb.DB, logger *common.Logger) *RunStore {
	return &RunStore{db: db, logger: logger}
}

// define creates the table and listing index (SurrealDB v3 errors on
// querying tables that do not exist).
func (s *RunStore) define(ctx context.Context) error {
	for _, stmt := range []string{
		"DEFINE TABLE IF NOT EXISTS " + runsTable + " SCHEMALESS",
		"DEFINE INDEX IF NOT EXISTS idx_runs_fund ON " + runsTable + " FIELDS fund_key, started_at",
	} {
		if _, err := surrealdb.Query[any](ctx, s.db, stmt, nil); err != nil {
			return fmt.Errorf("failed to define %s: %w", runsTable, err)
		}
	}
	return nil
}

// SaveRun implements interfaces.RunStore.
func (s *RunStore) SaveRun(ctx context.Context, run *models.ValidationRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	stored := *run
	stored.Cached = false

	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", run.ID, err)
	}
	summary, err := json.Marshal(stored.Summary)
	if err != nil {
		return fmt.Errorf("failed to encode run summary %s: %w", run.ID, err)
	}

	sql := `UPSERT $rid SET run_id = $run_id, fund = $fund, fund_key = $fund_key,
		started_at = $started_at, summary = $summary, payload = $payload`
	vars := map[string]any{
		"rid":        surrealmodels.NewRecordID(runsTable, run.ID),
		"run_id":     run.ID,
		"fund":       run.Fund,
		"fund_key":   strings.ToLower(run.Fund),
		"started_at": run.StartedAt,
		"summary":    string(summary),
		"payload":    string(payload),
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[any](ctx, s.db, sql, vars)
		if err == nil {
			s.logger.Debug().Str("run", run.ID).Str("fund", run.Fund).Int("attempt", attempt).Msg("Run saved")
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save run %s after retries: %w", run.ID, lastErr)
}

// GetRun implements interfaces.RunStore.
func (s *RunStore) GetRun(ctx context.Context, id string) (*models.ValidationRun, error) {
	results, err := surrealdb.Query[[]runRow](ctx, s.db, "SELECT run_id, payload FROM $rid", map[string]any{
		"rid": surrealmodels.NewRecordID(runsTable, id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("run %s: %w", id, models.ErrNotFound)
	}

	var run models.ValidationRun
	if err := json.Unmarshal([]byte((*results)[0].Result[0].Payload), &run); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", id, err)
	}
	return &run, nil
}

// ListRuns implements interfaces.RunStore.
func (s *RunStore) ListRuns(ctx context.Context, fund string, limit int) ([]models.RunSummary, error) {
	sql := "SELECT run_id, fund, fund_key, started_at, summary FROM " + runsTable
	vars := map[string]any{}
	if fund != "" {
		sql += " WHERE fund_key = $fund_key"
		vars["fund_key"] = strings.ToLower(fund)
	}
	sql += " ORDER BY started_at DESC"
	if limit > 0 {
		sql += " LIMIT $limit"
		vars["limit"] = limit
	}

	results, err := surrealdb.Query[[]runRow](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	out := []models.RunSummary{}
	if results == nil || len(*results) == 0 {
		return out, nil
	}
	for _, row := range (*results)[0].Result {
		var sum models.RunSummary
		if err := json.Unmarshal([]byte(row.Summary), &sum); err != nil {
			s.logger.Warn().Err(err).Str("run", row.RunID).Msg("Skipping run with undecodable summary")
			continue
		}
		sum.RunID = row.RunID
		sum.Fund = row.Fund
		sum.StartedAt = row.StartedAt
		if sum.Categories == nil {
			sum.Categories = []models.CategorySummary{}
		}
		out = append(out, sum)
	}
	return out, nil
}

// DeleteRun implements interfaces.RunStore. Deleting an unknown id is not
// an error.
func (s *RunStore) DeleteRun(ctx context.Context, id string) error {
	if _, err := surrealdb.Query[any](ctx, s.db, "DELETE $rid", map[string]any{
		"rid": surrealmodels.NewRecordID(runsTable, id),
	}); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	s.logger.Debug().Str("run", id).Msg("Run deleted")
	return nil
}

// Close closes the connection.
func (s *RunStore) Close() error {
	if s.db != nil {
		return s.db.Close(context.Background())
	}
	return nil
}

var _ interfaces.RunStore = (*RunStore)(nil)
