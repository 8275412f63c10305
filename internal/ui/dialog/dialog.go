// Package dialog renders the modal boxes drawn over the active view.
package dialog

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/info-module/internal/model"
	"github.com/nhle/info-module/internal/theme"
)

// IdleWarning renders the inactivity countdown.
func IdleWarning(remaining int) string {
	count := theme.CountdownStyle(remaining).Render(fmt.Sprintf("%d", remaining))

	return theme.WarningDialogStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
		theme.TitleStyle.Render("Are you still there?"),
		"You will be signed out in "+count+" seconds.",
		"",
		theme.HelpStyle.Render("enter stay signed in · L log out"),
	))
}

// LogoutAlert renders the one-shot explanation of a forced logout.
func LogoutAlert(reason model.LogoutReason) string {
	return theme.DialogStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
		theme.TitleStyle.Render("Signed out"),
		reason.Message(),
		"",
		theme.HelpStyle.Render("enter ok"),
	))
}
