package session

import (
	"context"
	"strconv"

	"github.com/nhle/info-module/internal/api"
	"github.com/nhle/info-module/internal/model"
)

// SendHeartbeat tells the backend the session is alive. Nothing is sent
// without a user or while the idle warning is showing. A rejected session
// forces a logout; any other failure is logged and left to the next
// scheduled heartbeat.
func (m *Manager) SendHeartbeat(ctx context.Context) {
	m.mu.Lock()
	due := m.active && m.state.User != nil && !m.warning.Visible
	gen := m.generation
	m.mu.Unlock()

	if due {
		m.sendHeartbeat(ctx, gen)
	}
}

// sendHeartbeat sends a heartbeat that Tick already found due for
// session gen. It only checks that gen is still the running session.
func (m *Manager) sendHeartbeat(ctx context.Context, gen uint64) {
	if !m.current(gen) {
		return
	}

	_, err, shared := m.inflight.Do(flightKey("heartbeat", gen), func() (interface{}, error) {
		return nil, m.auth.Heartbeat(ctx)
	})
	if shared {
		m.log.Debug().Msg("heartbeat joined an in-flight request")
	}
	if err == nil {
		m.log.Debug().Msg("heartbeat sent")
		return
	}

	if api.IsAuthError(err) {
		m.log.Warn().Err(err).Msg("heartbeat rejected, session expired")
		m.forceLogout(gen, model.LogoutReasonSessionExpired)
		return
	}
	m.log.Warn().Err(err).Msg("heartbeat failed")
}

// current reports whether gen is the running session.
func (m *Manager) current(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active && m.generation == gen
}

// flightKey scopes in-flight deduplication to one session generation.
func flightKey(kind string, gen uint64) string {
	return kind + "/" + strconv.FormatUint(gen, 10)
}
