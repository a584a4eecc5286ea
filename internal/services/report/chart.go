package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/navcheck/internal/models"
)

// ErrNothingToChart is returned when a run has no checked items.
var ErrNothingToChart = errors.New("run has no checked items to chart")

// RenderChart writes a PNG stacked bar chart with one bar per result
// subType: failed items (red) on top of passed items (green).
func RenderChart(run *models.ValidationRun, w io.Writer) error {
	type counts struct{ failed, passed int }
	var order []string
	bySubType := map[string]*counts{}
	var total int

	for _, r := range run.Results {
		if r.IsError() {
			continue
		}
		c, ok := bySubType[r.SubType]
		if !ok {
			c = &counts{}
			bySubType[r.SubType] = c
			order = append(order, r.SubType)
		}
		c.failed += r.Data.Count
		c.passed += r.Data.PassedCount
		total += r.Data.TotalChecked
	}
	if total == 0 {
		return ErrNothingToChart
	}

	bars := make([]chart.StackedBar, 0, len(order))
	for _, name := range order {
		c := bySubType[name]
		bars = append(bars, chart.StackedBar{
			Name: name,
			Values: []chart.Value{
				{
					Label: fmt.Sprintf("%d passed", c.passed),
					Value: float64(c.passed),
					Style: chart.Style{FillColor: drawing.ColorFromHex("16a34a")}, // green-600
				},
				{
					Label: fmt.Sprintf("%d failed", c.failed),
					Value: float64(c.failed),
					Style: chart.Style{FillColor: drawing.ColorFromHex("dc2626")}, // red-600
				},
			},
		})
	}

	graph := chart.StackedBarChart{
		Title:  fmt.Sprintf("%s %s vs %s", run.Fund, run.DateA, run.DateB),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		BarSpacing: 40,
		Bars:       bars,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("chart render failed: %w", err)
	}
	return nil
}
