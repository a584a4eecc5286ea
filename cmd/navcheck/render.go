package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bobmcallan/navcheck/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

// statusLabel renders the result message as a coloured fixed-width tag.
func statusLabel(message int) string {
	switch message {
	case models.MessagePass:
		return passStyle.Render("PASS ")
	case models.MessageFail:
		return failStyle.Render("FAIL ")
	default:
		return errorStyle.Render("ERROR")
	}
}

func field(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-10s", label)) + " " + value
}

// renderRun draws the run header, its summary counts and one line per result.
func renderRun(run *models.ValidationRun) string {
	s := run.Summary
	header := []string{
		titleStyle.Render("Validation run: " + run.Fund),
		field("Run", run.ID),
		field("Source A", fmt.Sprintf("%s (%s)", run.SourceA, run.DateA)),
		field("Source B", fmt.Sprintf("%s (%s)", run.SourceB, run.DateB)),
		field("Checks", fmt.Sprintf("%d total, %s, %s, %s",
			s.Total,
			passStyle.Render(fmt.Sprintf("%d passed", s.Passed)),
			failStyle.Render(fmt.Sprintf("%d failed", s.Failed)),
			errorStyle.Render(fmt.Sprintf("%d errors", s.Errors)))),
		field("Exceptions", strconv.Itoa(s.Exceptions)),
	}

	lines := make([]string, 0, len(run.Results))
	for _, r := range run.Results {
		lines = append(lines, resultLine(r))
	}

	sections := []string{boxStyle.Render(strings.Join(header, "\n"))}
	if len(lines) > 0 {
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func resultLine(r models.ValidationResult) string {
	name := fmt.Sprintf("%s / %s / %s", r.Type, r.SubType, r.SubType2)
	if r.IsError() {
		return fmt.Sprintf("%s %s  %s", statusLabel(r.Message), name, labelStyle.Render(r.Data.Error))
	}
	counts := fmt.Sprintf("%d/%d failed", r.Data.Count, r.Data.TotalChecked)
	return fmt.Sprintf("%s %s  %s", statusLabel(r.Message), name, labelStyle.Render(counts))
}

// renderMetrics lists a metric set sorted by key.
func renderMetrics(fund, source, date string, m models.MetricSet) string {
	keys := make([]string, 0, len(m))
	width := 0
	for k := range m {
		keys = append(keys, k)
		if len(k) > width {
			width = len(k)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Metrics: %s / %s (%s)", fund, source, date)))
	sb.WriteString("\n")
	for _, k := range keys {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", width, k)))
		sb.WriteString("  ")
		sb.WriteString(strconv.FormatFloat(m[k], 'f', -1, 64))
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderKPIs prints the catalog as an aligned table.
func renderKPIs(kpis []models.KPI) string {
	if len(kpis) == 0 {
		return labelStyle.Render("No active KPIs") + "\n"
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%-6s %-32s %-22s %-10s %s", "ID", "Code", "Category", "Precision", "Name")))
	sb.WriteString("\n")
	for _, k := range kpis {
		threshold := ""
		if k.DefaultThreshold != nil {
			threshold = labelStyle.Render(" (default " + strconv.FormatFloat(*k.DefaultThreshold, 'f', -1, 64) + ")")
		}
		sb.WriteString(fmt.Sprintf("%-6d %-32s %-22s %-10s %s%s\n",
			k.ID, k.Code, k.Category, k.PrecisionType.OrDefault(), k.Name, threshold))
	}
	return sb.String()
}
