package home

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/info-module/internal/session"
	"github.com/nhle/info-module/internal/theme"
)

// Model shows the signed-in user and the session status.
type Model struct {
	snap   session.Snapshot
	idle   time.Duration
	now    func() time.Time
	width  int
	height int
}

// New creates a new home view.
func New(idleTimeout time.Duration, width, height int) Model {
	return Model{
		idle:   idleTimeout,
		now:    time.Now,
		width:  width,
		height: height,
	}
}

// SetSnapshot replaces the session state shown.
func (m *Model) SetSnapshot(snap session.Snapshot) {
	m.snap = snap
}

// Update handles messages for the home view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the user card and notification badges.
func (m Model) View() string {
	u := m.snap.Session.User
	if u == nil {
		return theme.PanelStyle.Render(theme.DimmedStyle.Render("Not signed in."))
	}

	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, theme.LabelStyle.Render(label), value)
	}

	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, theme.RoleStyle().Render(r.Name))
	}
	roleLine := strings.Join(roles, " ")
	if roleLine == "" {
		roleLine = theme.DimmedStyle.Render("none")
	}

	card := lipgloss.JoinVertical(lipgloss.Left,
		theme.TitleStyle.Render(u.Name),
		row("Login ID", u.LoginID),
		row("Department", u.Department),
		row("Roles", roleLine),
	)

	badges := lipgloss.JoinHorizontal(lipgloss.Top,
		theme.BadgeStyle(m.snap.Flags.HasUnreadPersonal).Render(badgeText("Notifications", m.snap.Flags.HasUnreadPersonal)),
		" ",
		theme.BadgeStyle(m.snap.Flags.HasUnreadPublicNotice).Render(badgeText("Notices", m.snap.Flags.HasUnreadPublicNotice)),
	)

	status := lipgloss.JoinVertical(lipgloss.Left,
		theme.TitleStyle.MarginTop(1).Render("Session"),
		row("Idle", m.idleText()),
		row("Signs out", fmt.Sprintf("after %s without input", m.idle)),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, card, "", badges, status)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

func (m Model) idleText() string {
	if m.snap.LastActivity.IsZero() {
		return "-"
	}
	return m.now().Sub(m.snap.LastActivity).Truncate(time.Second).String()
}

func badgeText(label string, unread bool) string {
	if unread {
		return label + " ●"
	}
	return label
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
