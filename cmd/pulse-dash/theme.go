package main

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual styling for the pulse dashboard.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color
}

// DefaultTheme returns the default theme for pulse-dash.
func DefaultTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("12"),  // Blue
		Secondary: lipgloss.Color("14"),  // Cyan
		Success:   lipgloss.Color("10"),  // Green
		Warning:   lipgloss.Color("11"),  // Yellow
		Error:     lipgloss.Color("9"),   // Red
		Muted:     lipgloss.Color("240"), // Gray
	}
}

// Styles holds the prebuilt lipgloss styles derived from a Theme.
type Styles struct {
	Title        lipgloss.Style
	SectionTitle lipgloss.Style
	Col          lipgloss.Style
	Muted        lipgloss.Style
	StatusLive   lipgloss.Style
	StatusDone   lipgloss.Style
	StatusFailed lipgloss.Style
	Connected    lipgloss.Style
	Disconnected lipgloss.Style
	HelpBar      lipgloss.Style
}

// NewStyles builds the dashboard styles from a theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Title:        lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		SectionTitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Col:          lipgloss.NewStyle(),
		Muted:        lipgloss.NewStyle().Foreground(theme.Muted),
		StatusLive:   lipgloss.NewStyle().Foreground(theme.Secondary),
		StatusDone:   lipgloss.NewStyle().Foreground(theme.Success),
		StatusFailed: lipgloss.NewStyle().Foreground(theme.Error),
		Connected:    lipgloss.NewStyle().Foreground(theme.Success),
		Disconnected: lipgloss.NewStyle().Foreground(theme.Warning),
		HelpBar:      lipgloss.NewStyle().Foreground(theme.Muted),
	}
}
