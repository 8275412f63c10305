package notices

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/info-module/internal/keys"
	"github.com/nhle/info-module/internal/model"
	"github.com/nhle/info-module/internal/theme"
)

// CloseMsg signals the parent to leave the notices view.
type CloseMsg struct{}

// Item wraps a model.Notice so it can be used in a bubbles/list.
type Item struct {
	Notice model.Notice
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Notice.Title }

// Title returns the notice title for the list.
func (i Item) Title() string { return i.Notice.Title }

// Description returns the author and visibility window.
func (i Item) Description() string {
	parts := []string{}
	if i.Notice.Author != "" {
		parts = append(parts, i.Notice.Author)
	}
	parts = append(parts, window(i.Notice))
	return strings.Join(parts, " · ")
}

func window(n model.Notice) string {
	const layout = "2006-01-02"
	switch {
	case n.NotifyStartAt != nil && n.NotifyEndAt != nil:
		return fmt.Sprintf("%s – %s", n.NotifyStartAt.Format(layout), n.NotifyEndAt.Format(layout))
	case n.NotifyStartAt != nil:
		return "from " + n.NotifyStartAt.Format(layout)
	case n.NotifyEndAt != nil:
		return "until " + n.NotifyEndAt.Format(layout)
	default:
		return "posted " + n.CreatedAt.Format(layout)
	}
}

// Model lists the currently visible public notices with the selected
// notice's content beside it.
type Model struct {
	list    list.Model
	keys    *keys.KeyMap
	loading bool
	errMsg  string
	width   int
	height  int
}

// New creates a new notices view.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), width/2, height-2)
	l.Title = "Notices"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetLoading marks the list as being fetched.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
	if loading {
		m.errMsg = ""
	}
}

// SetNotices replaces the listed notices.
func (m *Model) SetNotices(notices []model.Notice) tea.Cmd {
	m.loading = false
	m.errMsg = ""
	items := make([]list.Item, len(notices))
	for i, n := range notices {
		items[i] = Item{Notice: n}
	}
	return m.list.SetItems(items)
}

// SetError shows a load failure.
func (m *Model) SetError(msg string) {
	m.loading = false
	m.errMsg = msg
}

// IDs returns the ids of the listed notices.
func (m Model) IDs() []string {
	items := m.list.Items()
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if n, ok := it.(Item); ok {
			ids = append(ids, n.Notice.ID)
		}
	}
	return ids
}

// Update handles messages for the notices view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list and the selected notice.
func (m Model) View() string {
	if m.loading {
		return theme.PanelStyle.Render(theme.DimmedStyle.Render("Loading notices..."))
	}
	if m.errMsg != "" {
		return theme.PanelStyle.Render(theme.ErrorStyle.Render(m.errMsg))
	}
	if len(m.list.Items()) == 0 {
		return theme.PanelStyle.Render(theme.DimmedStyle.Render("There are no notices right now."))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), m.renderSelected())
}

func (m Model) renderSelected() string {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return ""
	}

	n := it.Notice
	body := lipgloss.JoinVertical(lipgloss.Left,
		theme.TitleStyle.Render(n.Title),
		theme.DimmedStyle.Render(it.Description()),
		"",
		n.Content,
	)

	return theme.PanelStyle.
		Width(m.width - m.width/2 - 4).
		Height(m.height - 4).
		Render(body)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width/2, height-2)
}

// Popup renders the one-shot notice popup shown after sign-in.
func Popup(notices []model.Notice, now time.Time) string {
	lines := []string{theme.TitleStyle.Render("New notices")}
	for i, n := range notices {
		if i == 5 {
			lines = append(lines, theme.DimmedStyle.Render(fmt.Sprintf("and %d more", len(notices)-5)))
			break
		}
		lines = append(lines, "• "+n.Title)
	}
	lines = append(lines, "",
		theme.HelpStyle.Render("enter view · h hide for today · esc dismiss"),
		theme.DimmedStyle.Render(now.Format("Mon Jan 2")),
	)
	return theme.DialogStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
