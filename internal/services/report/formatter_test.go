package report

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/navcheck/internal/models"
)

func TestFormatMarkdown(t *testing.T) {
	md, err := newTestService().Markdown(context.Background(), "run-1")
	require.NoError(t, err)

	for _, want := range []string{
		"# Validation Run: NexBridge",
		"**Source A:** Bluefield (2024-01-31)",
		"**Checks:** 3 (1 passed, 1 failed, 1 errors)",
		"| PnL | Pricing | 2 | 1 | 1 | 0 | 1 |",
		"### PnL / Pricing / Major Price Change",
		"Threshold: 10.000%",
		`| Alpha \| Class A | $50.000 | $60.000 | 20.000% | major_price_change |`,
		"Error: Error in Positions validations: boom",
	} {
		assert.Contains(t, md, want)
	}

	// Passing results are summarised but not listed.
	assert.NotContains(t, md, "Missing Price")
}

func TestFormatMarkdown_NoExceptions(t *testing.T) {
	run := &models.ValidationRun{
		Fund: "NexBridge",
		Results: []models.ValidationResult{
			{Type: "PnL", SubType: "Pricing", SubType2: "Missing Price", Message: models.MessagePass},
		},
	}
	run.Summary = Summarize(run.Results)

	md := FormatMarkdown(run)
	assert.False(t, strings.Contains(md, "## Exceptions"))
	assert.Contains(t, md, "## Categories")
}
