package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/info-module/internal/theme"
)

const (
	headerHeight    = 1
	statusBarHeight = 1

	// Below this size the frame is replaced by a resize hint.
	minWidth  = 40
	minHeight = 12
)

// Layout holds the terminal dimensions and renders the frame around the
// active view: header bar, content area and status bar.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height left between the header and the
// status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - headerHeight - statusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// TooSmall reports whether the terminal cannot fit the dialogs.
func (l Layout) TooSmall() bool {
	return l.Width < minWidth || l.Height < minHeight
}

// RenderHeader renders the top bar with title on the left and a
// pre-rendered session status on the right.
func (l Layout) RenderHeader(title, status string) string {
	return l.bar(theme.HeaderStyle, theme.HeaderStyle.Render(title), status)
}

// RenderStatusBar renders the bottom bar with key hints on the left and an
// optional message on the right.
func (l Layout) RenderStatusBar(hints, message string, isErr bool) string {
	right := ""
	if message != "" {
		style := theme.StatusBarStyle
		if isErr {
			style = style.Foreground(theme.ErrorStyle.GetForeground())
		}
		right = style.Render(message)
	}
	return l.bar(theme.StatusBarStyle, theme.StatusBarStyle.Render(hints), right)
}

// bar pads between left and right with the background of style so the
// line spans the full width.
func (l Layout) bar(style lipgloss.Style, left, right string) string {
	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

// RenderDialog centers dialog in the content area, replacing whatever
// the active view would show.
func (l Layout) RenderDialog(dialog string) string {
	return lipgloss.Place(
		l.ContentWidth(),
		l.ContentHeight(),
		lipgloss.Center,
		lipgloss.Center,
		dialog,
		lipgloss.WithWhitespaceChars(" "),
	)
}

// Render stacks header, content and status bar. A terminal smaller than
// the minimum gets a resize hint instead.
func (l Layout) Render(header, content, statusBar string) string {
	if l.TooSmall() {
		return lipgloss.Place(l.Width, l.Height, lipgloss.Center, lipgloss.Center,
			theme.DimmedStyle.Render("Terminal too small, please resize."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}
