package session

import (
	"context"

	"github.com/nhle/info-module/internal/model"
)

// Tick advances the session by one period. The warning branch and the
// steady-state branch never both run in the same tick.
func (m *Manager) Tick() {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return
	}

	if m.warning.Visible {
		m.warning.RemainingSeconds--
		remaining := m.warning.RemainingSeconds
		if remaining <= 0 {
			gen := m.haltLocked()
			m.mu.Unlock()

			m.log.Info().Msg("idle warning expired, logging out")
			ctx, cancel := context.WithTimeout(context.Background(), m.cfg.RequestTimeout)
			defer cancel()
			m.finishLogout(ctx, gen, model.LogoutReasonInactivity)
			return
		}
		m.mu.Unlock()

		m.emit(Event{Kind: EventWarningTick, RemainingSeconds: remaining})
		return
	}

	if idle := m.now().Sub(m.lastActivity); idle >= m.cfg.IdleTimeout {
		m.warning = model.WarningState{
			Visible:          true,
			RemainingSeconds: m.cfg.WarningTicks,
		}
		m.mu.Unlock()

		m.log.Info().Dur("idle", idle).Int("countdown", m.cfg.WarningTicks).Msg("idle warning shown")
		m.emit(Event{Kind: EventWarningShown, RemainingSeconds: m.cfg.WarningTicks})
		return
	}

	m.counters.HeartbeatTicks++
	m.counters.NotificationTicks++

	heartbeatDue := m.counters.HeartbeatTicks >= m.cfg.HeartbeatTicks
	if heartbeatDue {
		m.counters.HeartbeatTicks = 0
		m.bg.Add(1)
	}
	pollDue := m.counters.NotificationTicks >= m.cfg.NotificationTicks
	if pollDue {
		m.counters.NotificationTicks = 0
		m.bg.Add(1)
	}
	gen := m.generation
	m.mu.Unlock()

	if heartbeatDue {
		m.spawn(func(ctx context.Context) { m.sendHeartbeat(ctx, gen) })
	}
	if pollDue {
		m.spawn(func(ctx context.Context) { m.checkNotifications(ctx, gen) })
	}
}

// ContinueSession dismisses the idle warning and stamps fresh activity so
// the next tick does not warn again.
func (m *Manager) ContinueSession() {
	m.mu.Lock()
	if !m.active || !m.warning.Visible {
		m.mu.Unlock()
		return
	}
	m.warning = model.WarningState{}
	if now := m.now(); now.After(m.lastActivity) {
		m.lastActivity = now
	}
	m.mu.Unlock()

	m.log.Debug().Msg("session continued")
	m.emit(Event{Kind: EventWarningCleared})
}
