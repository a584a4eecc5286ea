package models

import (
	"encoding/gob"
	"time"
)

func init() {
	gob.Register(ValidationRun{})
}

// RunRequest asks for one validation run over a fund and two snapshots.
type RunRequest struct {
	Fund       string   `json:"fund"`
	FundID     string   `json:"fund_id,omitempty"`
	SourceA    string   `json:"source_a"`
	SourceB    string   `json:"source_b,omitempty"`
	DateA      string   `json:"date_a"`
	DateB      string   `json:"date_b,omitempty"`
	DualSource *bool    `json:"dual_source,omitempty"`
	Categories []string `json:"categories,omitempty"`

	// Question is the natural-language prompt that triggered the run, if any.
	// It participates in the cache key.
	Question       string `json:"question,omitempty"`
	SkipFileChecks bool   `json:"skip_file_checks,omitempty"`
	NoCache        bool   `json:"no_cache,omitempty"`
}

// ValidationRun is a completed run with its results and summary.
type ValidationRun struct {
	ID         string             `json:"id" badgerhold:"key"`
	Fund       string             `json:"fund" badgerhold:"index"`
	FundID     string             `json:"fund_id,omitempty"`
	SourceA    string             `json:"source_a"`
	SourceB    string             `json:"source_b"`
	DateA      string             `json:"date_a"`
	DateB      string             `json:"date_b"`
	DualSource bool               `json:"dual_source"`
	StartedAt  time.Time          `json:"started_at"`
	DurationMS int64              `json:"duration_ms"`
	Cached     bool               `json:"cached"`
	Summary    RunSummary         `json:"summary"`
	Results    []ValidationResult `json:"results"`
}

// RunSummary aggregates a run's results.
type RunSummary struct {
	RunID      string            `json:"run_id"`
	Fund       string            `json:"fund"`
	DateA      string            `json:"date_a"`
	DateB      string            `json:"date_b"`
	StartedAt  time.Time         `json:"started_at"`
	Total      int               `json:"total"`
	Passed     int               `json:"passed"`
	Failed     int               `json:"failed"`
	Errors     int               `json:"errors"`
	Exceptions int               `json:"exceptions"`
	Categories []CategorySummary `json:"categories"`
}

// CategorySummary counts results sharing a (type, subType) pair.
type CategorySummary struct {
	Type       string `json:"type"`
	SubType    string `json:"sub_type"`
	Checks     int    `json:"checks"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	Errors     int    `json:"errors"`
	Exceptions int    `json:"exceptions"`
}
