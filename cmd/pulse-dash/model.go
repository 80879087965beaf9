package main

import (
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pulse/pkg/engine"
)

// tickMsg is sent by Bubble Tea on every tick interval. The engine keeps
// its own state current in the background; the tick just re-reads the view.
type tickMsg time.Time

// tickCmd returns a command that sends a tickMsg after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the Bubble Tea model for the pulse dashboard. All data access
// goes through the engine's View; the model never touches the transport.
type Model struct {
	view    *engine.View
	theme   Theme
	styles  Styles
	spinner spinner.Model

	width  int
	height int

	// lastCleared holds a transient footer note after a clear action.
	lastCleared string
}

// newModel creates a Model bound to an engine view.
func newModel(view *engine.View) Model {
	theme := DefaultTheme()
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Warning)

	return Model{
		view:    view,
		theme:   theme,
		styles:  NewStyles(theme),
		spinner: sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "c":
		n := m.view.ClearCompletedExecutions()
		m.lastCleared = clearedNote("executions", n)
	case "p":
		n := m.view.ClearCompletedProcessing()
		m.lastCleared = clearedNote("processing jobs", n)
	}
	return m, nil
}

func clearedNote(what string, n int) string {
	if n == 0 {
		return "no completed " + what + " to clear"
	}
	return "cleared " + strconv.Itoa(n) + " completed " + what
}

// View implements tea.Model.
func (m Model) View() string {
	sections := []string{
		m.renderHeader(),
		m.renderExecutions(),
		m.renderProcessing(),
		m.renderHealth(),
		m.renderHelp(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader shows the title and connectivity indicator.
func (m Model) renderHeader() string {
	title := m.styles.Title.Render("pulse")

	var conn string
	if m.view.Connected() {
		conn = m.styles.Connected.Render("● live")
	} else {
		conn = m.styles.Disconnected.Render(m.spinner.View() + "reconnecting (polling)")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", conn)
}

// renderHelp renders the key hint bar.
func (m Model) renderHelp() string {
	help := "c clear done executions · p clear done processing · q quit"
	if m.lastCleared != "" {
		help = m.lastCleared + "   " + help
	}
	return m.styles.HelpBar.Render(help)
}
