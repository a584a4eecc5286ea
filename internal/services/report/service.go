// Package report summarizes validation runs and renders them as markdown,
// workbooks and charts.
package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/interfaces"
	"github.com/bobmcallan/navcheck/internal/models"
)

// Service renders stored runs.
type Service struct {
	runs   interfaces.RunStore
	logger *common.Logger
}

// NewService creates a new report service
func NewService(runs interfaces.RunStore, logger *common.Logger) *Service {
	return &Service{
		runs:   runs,
		logger: logger,
	}
}

// Workbook returns the xlsx export of a stored run.
func (s *Service) Workbook(ctx context.Context, runID string) ([]byte, error) {
	run, err := s.load(ctx, runID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := ExportXLSX(run, &buf); err != nil {
		return nil, fmt.Errorf("export run %s: %w", runID, err)
	}
	s.logger.Info().Str("run", runID).Int("bytes", buf.Len()).Msg("Run exported")
	return buf.Bytes(), nil
}

// Chart returns the PNG summary chart of a stored run.
func (s *Service) Chart(ctx context.Context, runID string) ([]byte, error) {
	run, err := s.load(ctx, runID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := RenderChart(run, &buf); err != nil {
		return nil, fmt.Errorf("chart run %s: %w", runID, err)
	}
	return buf.Bytes(), nil
}

// Markdown returns the markdown summary of a stored run.
func (s *Service) Markdown(ctx context.Context, runID string) (string, error) {
	run, err := s.load(ctx, runID)
	if err != nil {
		return "", err
	}
	return FormatMarkdown(run), nil
}

func (s *Service) load(ctx context.Context, runID string) (*models.ValidationRun, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("run history is disabled: %w", models.ErrNotFound)
	}
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return run, nil
}

// Ensure Service implements ReportService
var _ interfaces.ReportService = (*Service)(nil)
