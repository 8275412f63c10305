package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/info-module/internal/session"
)

// sessionEventMsg carries one state change published by the manager.
type sessionEventMsg struct {
	event session.Event
}

// refreshMsg redraws time-dependent parts of the screen.
type refreshMsg time.Time

// waitForEvent returns a tea.Cmd that waits for the next manager event.
// After handling the event, Update issues a new waitForEvent to keep
// listening. A closed channel ends the subscription.
func waitForEvent(events <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return sessionEventMsg{event: ev}
	}
}

// refreshEvery schedules the next screen refresh.
func refreshEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}
