package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pulse/pkg/protocol"
)

// renderExecutions renders the executions table: active runs first, then
// completed ones waiting to be cleared.
func (m Model) renderExecutions() string {
	execs := m.view.Executions()

	var sb strings.Builder
	sb.WriteString(m.styles.SectionTitle.Render(fmt.Sprintf("Executions (%d)", len(execs))))
	sb.WriteString("\n")

	if len(execs) == 0 {
		sb.WriteString(m.styles.Muted.Render("  no executions"))
		return sb.String()
	}

	headers := []string{"ID", "Agent", "Status", "Progress", "Step"}
	widths := []int{20, 10, 10, 14, 24}

	headerParts := make([]string, 0, len(headers))
	for i, header := range headers {
		style := m.styles.Col.
			Width(widths[i]).
			Bold(true).
			Foreground(m.theme.Primary)
		headerParts = append(headerParts, style.Render(header))
	}
	sb.WriteString(strings.Join(headerParts, " "))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, exec := range execs {
		sb.WriteString(m.renderExecutionRow(exec, widths))
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderExecutionRow renders a single execution row.
func (m Model) renderExecutionRow(exec protocol.ExecutionStatus, widths []int) string {
	status := m.statusStyle(exec.Status).Render(truncate(string(exec.Status), widths[2]))

	step := exec.CurrentStep
	if step == "" {
		step = "-"
	}

	cells := []string{
		m.styles.Col.Width(widths[0]).Render(truncate(exec.ExecutionID, widths[0])),
		m.styles.Col.Width(widths[1]).Render(truncate(string(exec.AgentType), widths[1])),
		m.styles.Col.Width(widths[2]).Render(status),
		m.styles.Col.Width(widths[3]).Render(progressBar(exec.Progress, 10)),
		m.styles.Col.Width(widths[4]).Render(truncate(step, widths[4])),
	}
	return strings.Join(cells, " ")
}

// statusStyle picks a style for an execution state.
func (m Model) statusStyle(s protocol.ExecutionState) lipgloss.Style {
	switch {
	case s == protocol.ExecCompleted:
		return m.styles.StatusDone
	case s == protocol.ExecFailed || s == protocol.ExecCancelled:
		return m.styles.StatusFailed
	default:
		return m.styles.StatusLive
	}
}

// progressBar renders a fixed-width bar plus the percentage.
func progressBar(pct, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100
	return fmt.Sprintf("%s%s %3d%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled),
		pct)
}

// truncate shortens s to max runes, with an ellipsis when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
