package report

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/navcheck/internal/common"
	"github.com/bobmcallan/navcheck/internal/models"
)

// FormatMarkdown renders a run as a markdown summary followed by one
// section per failing or erroring result.
func FormatMarkdown(run *models.ValidationRun) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Validation Run: %s\n\n", run.Fund))
	sb.WriteString(fmt.Sprintf("**Run:** %s\n", run.ID))
	sb.WriteString(fmt.Sprintf("**Source A:** %s (%s)\n", run.SourceA, run.DateA))
	sb.WriteString(fmt.Sprintf("**Source B:** %s (%s)\n", run.SourceB, run.DateB))
	if !run.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("**Started:** %s\n", run.StartedAt.Format("2006-01-02 15:04")))
	}
	s := run.Summary
	sb.WriteString(fmt.Sprintf("**Checks:** %d (%d passed, %d failed, %d errors)\n", s.Total, s.Passed, s.Failed, s.Errors))
	sb.WriteString(fmt.Sprintf("**Exceptions:** %d\n\n", s.Exceptions))

	if len(s.Categories) > 0 {
		sb.WriteString("## Categories\n\n")
		sb.WriteString("| Type | Sub Type | Checks | Passed | Failed | Errors | Exceptions |\n")
		sb.WriteString("|------|----------|--------|--------|--------|--------|------------|\n")
		for _, c := range s.Categories {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d | %d | %d |\n",
				c.Type, c.SubType, c.Checks, c.Passed, c.Failed, c.Errors, c.Exceptions))
		}
		sb.WriteString("\n")
	}

	var wroteHeading bool
	for _, r := range run.Results {
		if r.Message == models.MessagePass {
			continue
		}
		if !wroteHeading {
			sb.WriteString("## Exceptions\n\n")
			wroteHeading = true
		}
		sb.WriteString(fmt.Sprintf("### %s / %s / %s\n\n", r.Type, r.SubType, r.SubType2))
		if r.IsError() {
			sb.WriteString(fmt.Sprintf("Error: %s\n\n", r.Data.Error))
			continue
		}
		if r.Data.Threshold != nil {
			sb.WriteString(fmt.Sprintf("Threshold: %s\n\n", formatThreshold(*r.Data.Threshold, r.Data.PrecisionType)))
		}
		sb.WriteString("| Identifier | Value A | Value B | Change | Issue |\n")
		sb.WriteString("|------------|---------|---------|--------|-------|\n")
		for _, item := range r.Data.FailedItems {
			change := item.DisplayChange
			if change == "" {
				change = "-"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				escape(item.Identifier), formatValue(item.ValueA), formatValue(item.ValueB), change, item.Issue))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatThreshold(v float64, precision models.PrecisionType) string {
	if precision == models.PrecisionAbsolute {
		return common.FormatMoney(v)
	}
	return common.FormatPercent(v)
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return common.FormatMoney(*v)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
