package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pulse/pkg/protocol"
)

// renderProcessing renders the file processing table.
func (m Model) renderProcessing() string {
	jobs := m.view.Processing()

	var sb strings.Builder
	sb.WriteString(m.styles.SectionTitle.Render(fmt.Sprintf("Processing (%d)", len(jobs))))
	sb.WriteString("\n")

	if len(jobs) == 0 {
		sb.WriteString(m.styles.Muted.Render("  no processing jobs"))
		return sb.String()
	}

	headers := []string{"File", "Status", "Stage", "Progress"}
	widths := []int{26, 10, 14, 14}

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

	for _, job := range jobs {
		sb.WriteString(m.renderProcessingRow(job, widths))
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderProcessingRow renders a single processing row. Failed jobs show
// their error in place of the stage.
func (m Model) renderProcessingRow(job protocol.ProcessingStatus, widths []int) string {
	name := job.Filename
	if name == "" {
		name = job.FileID
	}

	stage := job.Stage
	if job.Status == protocol.ProcFailed && job.Error != "" {
		stage = job.Error
	}
	if stage == "" {
		stage = "-"
	}

	cells := []string{
		m.styles.Col.Width(widths[0]).Render(truncate(name, widths[0])),
		m.styles.Col.Width(widths[1]).Render(m.processingStyle(job.Status).Render(truncate(string(job.Status), widths[1]))),
		m.styles.Col.Width(widths[2]).Render(truncate(stage, widths[2])),
		m.styles.Col.Width(widths[3]).Render(progressBar(job.Progress, 10)),
	}
	return strings.Join(cells, " ")
}

func (m Model) processingStyle(s protocol.ProcessingState) lipgloss.Style {
	switch s {
	case protocol.ProcCompleted:
		return m.styles.StatusDone
	case protocol.ProcFailed:
		return m.styles.StatusFailed
	default:
		return m.styles.StatusLive
	}
}
