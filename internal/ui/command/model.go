package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/info-module/internal/theme"
)

// CommandMsg carries the canonical name of an executed command.
type CommandMsg string

// Command is one palette entry.
type Command struct {
	Name        string
	Aliases     []string
	Description string
}

// Commands lists every command the palette accepts.
var Commands = []Command{
	{Name: "home", Description: "back to the home screen"},
	{Name: "notices", Aliases: []string{"n"}, Description: "list public notices"},
	{Name: "refresh", Aliases: []string{"r"}, Description: "check notifications now"},
	{Name: "hide", Aliases: []string{"hide notices today"}, Description: "hide the notice popup until tomorrow"},
	{Name: "help", Description: "show key bindings and timings"},
	{Name: "logout", Aliases: []string{"log out"}, Description: "sign out"},
	{Name: "quit", Aliases: []string{"q"}, Description: "exit the application"},
}

// Lookup resolves input to a canonical command name. Matching ignores
// case and surrounding space.
func Lookup(input string) (string, bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	for _, c := range Commands {
		if in == c.Name {
			return c.Name, true
		}
		for _, a := range c.Aliases {
			if in == a {
				return c.Name, true
			}
		}
	}
	return "", false
}

func suggestions() []string {
	out := make([]string, 0, len(Commands))
	for _, c := range Commands {
		out = append(out, c.Name)
		out = append(out, c.Aliases...)
	}
	return out
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	errMsg string
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(suggestions())
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette. Unknown input stays in
// the palette with an error instead of closing it.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		raw := strings.TrimSpace(m.input.Value())
		if raw == "" {
			return m, nil
		}
		name, ok := Lookup(raw)
		if !ok {
			m.errMsg = fmt.Sprintf("unknown command %q", raw)
			return m, nil
		}
		m.input.Reset()
		m.errMsg = ""
		return m, func() tea.Msg {
			return CommandMsg(name)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the input and the command reference.
func (m Model) View() string {
	rows := make([]string, 0, len(Commands))
	for _, c := range Commands {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			theme.LabelStyle.Render(c.Name),
			theme.DimmedStyle.Render(c.Description),
		))
	}

	parts := []string{theme.TitleStyle.Render("Command Palette"), m.input.View()}
	if m.errMsg != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.errMsg))
	}
	parts = append(parts, "", lipgloss.JoinVertical(lipgloss.Left, rows...))
	parts = append(parts, "", theme.HelpStyle.Render("tab completes · esc closes"))

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus clears the last input and gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	m.input.Reset()
	m.errMsg = ""
	return m.input.Focus()
}
