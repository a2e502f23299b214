package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ochairo/modulescanner/internal/domain/entities"
)

const (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(20)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorWarning)
)

// renderSummary formats the end-of-run report
func renderSummary(summary *entities.ScanSummary, output string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Scan complete"))
	b.WriteString("\n")

	line := func(label string, value any, warn bool) {
		style := valueStyle
		if warn {
			style = warnStyle
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(style.Render(fmt.Sprint(value)))
		b.WriteString("\n")
	}

	line("Report", output, false)
	line("Rows written", summary.RowsWritten, false)
	line("Explicit modules", summary.ExplicitModules, false)
	line("Automatic modules", summary.AutomaticModules, false)
	line("Not modular", summary.PlainArchives, false)
	line("With violations", summary.WithViolations, summary.WithViolations > 0)
	line("Analyzer errors", summary.ToolErrors, summary.ToolErrors > 0)
	line("Metadata skipped", summary.MetadataSkipped, summary.MetadataSkipped > 0)
	line("Archives skipped", summary.ArchivesSkipped, summary.ArchivesSkipped > 0)
	line("Duration", summary.Duration.Round(time.Millisecond), false)
	return b.String()
}
