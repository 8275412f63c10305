package session

import "github.com/nhle/info-module/internal/model"

// EventKind identifies a state change published by the Manager.
type EventKind int

const (
	EventSessionStarted EventKind = iota
	EventWarningShown
	EventWarningTick
	EventWarningCleared
	EventNotificationsUpdated
	EventLoggedOut
)

func (k EventKind) String() string {
	switch k {
	case EventSessionStarted:
		return "session_started"
	case EventWarningShown:
		return "warning_shown"
	case EventWarningTick:
		return "warning_tick"
	case EventWarningCleared:
		return "warning_cleared"
	case EventNotificationsUpdated:
		return "notifications_updated"
	case EventLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Event tells subscribers that the session state changed. Consumers read
// the fields relevant to Kind, or call Manager.Snapshot for the rest.
type Event struct {
	Kind             EventKind
	RemainingSeconds int
	Reason           model.LogoutReason
	Flags            model.NotificationFlags
}

// eventBuffer is the capacity of the events channel.
const eventBuffer = 64

// emit sends ev without blocking. Events are dropped when nobody drains
// the channel fast enough; the snapshot remains authoritative.
func (m *Manager) emit(ev Event) {
	m.evMu.Lock()
	defer m.evMu.Unlock()

	if m.evClosed {
		return
	}
	select {
	case m.events <- ev:
	default:
		m.log.Debug().Str("event", ev.Kind.String()).Msg("event dropped, channel full")
	}
}

// Events returns the channel on which state changes are published. It is
// closed by Dispose.
func (m *Manager) Events() <-chan Event {
	return m.events
}

func (m *Manager) closeEvents() {
	m.evMu.Lock()
	defer m.evMu.Unlock()

	if !m.evClosed {
		m.evClosed = true
		close(m.events)
	}
}
