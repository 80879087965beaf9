package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pulse/pkg/protocol"
)

// renderHealth renders the system health section: aggregate status and a
// per-service up/down list.
func (m Model) renderHealth() string {
	title := m.styles.SectionTitle.Render("Health")

	health := m.view.Health()
	if health == nil {
		return lipgloss.JoinVertical(lipgloss.Left, title,
			m.styles.Muted.Render("  no health report yet"))
	}

	statusLine := "  " + m.healthStyle(health.Status).Render(string(health.Status))

	lines := []string{title, statusLine}
	for _, name := range sortedServices(health.Services) {
		badge := m.styles.Connected.Render("●")
		state := "up"
		if !health.Services[name] {
			badge = m.styles.StatusFailed.Render("●")
			state = "down"
		}
		lines = append(lines, fmt.Sprintf("  %s %-20s %s", badge, name, state))
	}

	if health.Metrics != nil {
		lines = append(lines, m.styles.Muted.Render(fmt.Sprintf(
			"  rt %.0fms · mem %.0f%% · cpu %.0f%% · conns %d",
			health.Metrics.ResponseTime,
			health.Metrics.MemoryUsage,
			health.Metrics.CPUUsage,
			health.Metrics.ActiveConnections)))
	}

	return strings.Join(lines, "\n")
}

func (m Model) healthStyle(s protocol.HealthState) lipgloss.Style {
	switch s {
	case protocol.HealthHealthy:
		return m.styles.StatusDone
	case protocol.HealthDegraded:
		return m.styles.Disconnected
	default:
		return m.styles.StatusFailed
	}
}

func sortedServices(services map[string]bool) []string {
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
