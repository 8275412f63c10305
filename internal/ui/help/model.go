package help

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/info-module/internal/keys"
	"github.com/nhle/info-module/internal/theme"
)

// Timings are the session rules explained below the key bindings.
type Timings struct {
	IdleTimeout       time.Duration
	WarningCountdown  time.Duration
	HeartbeatInterval time.Duration
}

// Model is the help overlay view.
type Model struct {
	keys    *keys.KeyMap
	help    help.Model
	timings Timings
	width   int
	height  int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, timings Timings, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:    keys,
		help:    h,
		timings: timings,
		width:   width,
		height:  height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	session := lipgloss.JoinVertical(lipgloss.Left,
		theme.TitleStyle.MarginTop(1).Render("Session"),
		theme.DimmedStyle.Render(fmt.Sprintf(
			"You are asked to confirm after %s without input and signed out %s later.",
			m.timings.IdleTimeout, m.timings.WarningCountdown,
		)),
		theme.DimmedStyle.Render(fmt.Sprintf(
			"While active, the server is notified every %s.",
			m.timings.HeartbeatInterval,
		)),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, title, helpText, session)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
