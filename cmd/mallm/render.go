package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/scheduler"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	keyStyle   = lipgloss.NewStyle().Faint(true)
	labelStyle = lipgloss.NewStyle().Width(12)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)

	convergedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	exhaustedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func renderComponents(groups []componentGroup) string {
	blocks := make([]string, 0, len(groups))
	for _, g := range groups {
		lines := []string{titleStyle.Render(g.Title) + " " + keyStyle.Render("("+g.Key+")")}
		for _, v := range g.Values {
			lines = append(lines, "  "+v)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// renderSummary draws the end-of-run box.
func renderSummary(s scheduler.Summary, output string, elapsedSeconds float64) string {
	row := func(label string, value any, style lipgloss.Style) string {
		return labelStyle.Render(label) + style.Render(fmt.Sprint(value))
	}
	plain := lipgloss.NewStyle()

	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Discussion run"),
		"",
		row("Instances", s.Total, plain),
		row("Skipped", s.Skipped, plain),
		row("Converged", s.Converged, convergedStyle),
		row("Exhausted", s.Exhausted, exhaustedStyle),
		row("Failed", s.Failed, failedStyle),
		row("Elapsed", fmt.Sprintf("%.1fs", elapsedSeconds), plain),
		row("Results", output, keyStyle),
	)
	return boxStyle.Render(body)
}
