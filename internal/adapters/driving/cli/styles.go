package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// Palette used for command output.
var (
	colourPrimary   = lipgloss.Color("#7C3AED") // Purple
	colourSecondary = lipgloss.Color("#06B6D4") // Cyan
	colourMuted     = lipgloss.Color("#6C7086") // Medium gray
	colourSuccess   = lipgloss.Color("#A6E3A1") // Green
	colourWarning   = lipgloss.Color("#F9E2AF") // Yellow
	colourError     = lipgloss.Color("#F38BA8") // Red
	colourBorder    = lipgloss.Color("#45475A") // Border gray
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colourPrimary)
	labelStyle   = lipgloss.NewStyle().Foreground(colourSecondary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colourMuted)
	successStyle = lipgloss.NewStyle().Foreground(colourSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colourWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colourError)

	resultStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colourBorder).
			Padding(0, 1)
)

// previewRunes bounds the chunk text shown per query result.
const previewRunes = 240

// renderReport formats an ingestion report.
func renderReport(r *domain.IngestReport) string {
	var b strings.Builder

	ok := len(r.Files) - len(r.Failed())
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Ingested"), r.Root)
	fmt.Fprintf(&b, "  %s %d/%d\n", labelStyle.Render("Files:"), ok, len(r.Files))
	fmt.Fprintf(&b, "  %s %d\n", labelStyle.Render("Pages:"), r.Pages)
	fmt.Fprintf(&b, "  %s %d\n", labelStyle.Render("Chunks:"), r.Chunks)
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("Time:"), r.Duration.Round(time.Millisecond))

	counts := r.MethodCounts()
	if methods := r.Methods(); len(methods) > 0 {
		b.WriteString("  " + labelStyle.Render("Methods:") + "\n")
		for _, m := range methods {
			fmt.Fprintf(&b, "    %-12s %d pages\n", m, counts[m])
		}
	}

	if failed := r.Failed(); len(failed) > 0 {
		b.WriteString("  " + warningStyle.Render(fmt.Sprintf("Failed (%d):", len(failed))) + "\n")
		for _, f := range failed {
			reason := "no text extracted"
			if f.Err != nil {
				reason = f.Err.Error()
			}
			fmt.Fprintf(&b, "    %s %s\n", f.Path, mutedStyle.Render(reason))
		}
	}
	return b.String()
}

// renderResult formats one query result.
func renderResult(rank int, r domain.QueryResult) string {
	location := r.Source()
	if location == "" {
		location = "(unknown source)"
	}
	if page := r.Page(); page > 0 {
		location = fmt.Sprintf("%s p.%d", location, page)
	}

	header := fmt.Sprintf("%s %s %s",
		titleStyle.Render(fmt.Sprintf("%d.", rank)),
		location,
		successStyle.Render(fmt.Sprintf("%.3f", r.Score)))
	return resultStyle.Render(header + "\n" + domain.Preview(r.Content, previewRunes))
}
