package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/info-module/internal/api"
	"github.com/nhle/info-module/internal/model"
)

// ErrDisposed is returned by operations attempted after Dispose.
var ErrDisposed = errors.New("session manager disposed")

// anyGeneration makes forceLogout apply to whichever session is active.
const anyGeneration = 0

// CheckSession validates the stored session token with the backend. It
// never fails outward: afterwards the manager is either signed in or not.
//
// Without a token no request is made. A network failure leaves the token
// in place for the next attempt; an explicit invalid answer or a 401
// clears it.
// While a session is already active, a valid answer replaces the user and
// an invalid one forces a logout.
func (m *Manager) CheckSession(ctx context.Context) bool {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return false
	}
	m.state.IsLoading = true
	m.mu.Unlock()

	token, err := m.tokens.Token()
	if err != nil {
		m.log.Warn().Err(err).Msg("reading session token")
	}
	if err != nil || token == "" {
		return m.resolve(nil)
	}

	resp, err := m.auth.CheckSession(ctx)
	if err != nil && !api.IsAuthError(err) {
		m.log.Warn().Err(err).Msg("session check failed")
		m.mu.Lock()
		m.state.IsLoading = false
		active := m.active
		if !active {
			m.state.User = nil
		}
		m.mu.Unlock()
		return active
	}

	if err != nil || !resp.Valid || resp.User == nil {
		m.log.Info().Msg("stored session is no longer valid")
		m.mu.Lock()
		active := m.active
		m.mu.Unlock()
		if active {
			m.forceLogout(anyGeneration, model.LogoutReasonSessionExpired)
		} else if err := m.tokens.ClearToken(); err != nil {
			m.log.Warn().Err(err).Msg("clearing session token")
		}
		return m.resolve(nil)
	}

	return m.resolve(resp.User)
}

// resolve ends a session check. A nil user leaves the manager signed out;
// a user either starts a session or replaces the identity of the active
// one.
func (m *Manager) resolve(user *model.UserIdentity) bool {
	m.mu.Lock()
	m.state.IsLoading = false

	if m.disposed {
		m.mu.Unlock()
		return false
	}
	if user == nil {
		if !m.active {
			m.state.User = nil
		}
		m.mu.Unlock()
		return false
	}
	if m.active {
		m.state.User = user
		m.mu.Unlock()
		return true
	}

	m.startLocked(user)
	m.mu.Unlock()

	m.started(user)
	return true
}

// Login signs in with credentials, persists the session token and starts
// the session. An account without a password yet yields an error matching
// api.ErrInitialPasswordRequired.
func (m *Manager) Login(ctx context.Context, loginID, password string) (*model.UserIdentity, error) {
	m.mu.Lock()
	disposed := m.disposed
	m.mu.Unlock()
	if disposed {
		return nil, ErrDisposed
	}

	resp, err := m.auth.Login(ctx, loginID, password)
	if err != nil {
		return nil, err
	}

	if err := m.tokens.SaveToken(resp.SessionID); err != nil {
		return nil, fmt.Errorf("saving session token: %w", err)
	}

	user := api.UserFromLogin(resp)

	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return nil, ErrDisposed
	}
	m.startLocked(user)
	m.mu.Unlock()

	m.started(user)

	if m.tracker != nil {
		if err := m.tracker.MarkShowOnNextScreen(ctx); err != nil {
			m.log.Warn().Err(err).Msg("requesting notice popup")
		}
	}
	return user, nil
}

// CompleteInitialPassword sets the first password of loginID and signs in
// with it.
func (m *Manager) CompleteInitialPassword(
	ctx context.Context,
	loginID, newPassword string,
) (*model.UserIdentity, error) {
	if err := m.auth.SetInitialPassword(ctx, loginID, newPassword); err != nil {
		return nil, err
	}
	return m.Login(ctx, loginID, newPassword)
}

// started announces a new session and runs the first notification check
// in the slot reserved by startLocked.
func (m *Manager) started(user *model.UserIdentity) {
	m.log.Info().Str("loginId", user.LoginID).Msg("session started")
	m.emit(Event{Kind: EventSessionStarted})
	m.spawn(m.CheckNotifications)
}

// Logout ends the session at the user's request. The ticker and activity
// tracking stop before the server is contacted. A failing server call is
// only logged; the returned error reports local cleanup failures.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	gen := m.haltLocked()
	m.mu.Unlock()

	return m.finishLogout(ctx, gen, model.LogoutReasonNone)
}

// forceLogout ends the session on the manager's own initiative and records
// reason for the post-logout alert. It does nothing when no session is
// active or, unless gen is anyGeneration, when the session is not the one
// that observed the failure.
func (m *Manager) forceLogout(gen uint64, reason model.LogoutReason) {
	m.mu.Lock()
	if !m.active || (gen != anyGeneration && gen != m.generation) {
		m.mu.Unlock()
		return
	}
	halted := m.haltLocked()
	m.mu.Unlock()

	m.log.Info().Str("reason", string(reason)).Msg("forced logout")

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.RequestTimeout)
	defer cancel()
	if err := m.finishLogout(ctx, halted, reason); err != nil {
		m.log.Warn().Err(err).Msg("forced logout cleanup")
	}
}

// handleUnauthorized is registered with the HTTP layer and runs on every
// 401 response.
func (m *Manager) handleUnauthorized() {
	m.forceLogout(anyGeneration, model.LogoutReasonSessionExpired)
}

// finishLogout does the part of a logout that follows haltLocked: the
// best-effort server call, then the local cleanup. Local state is only
// cleared while gen is still current so that a login racing with the
// logout survives it.
func (m *Manager) finishLogout(ctx context.Context, gen uint64, reason model.LogoutReason) error {
	if err := m.auth.Logout(ctx); err != nil {
		m.log.Warn().Err(err).Msg("server-side logout failed")
	}

	m.mu.Lock()
	current := m.generation == gen
	if current {
		m.state = model.SessionState{}
		m.flags = model.NotificationFlags{}
		m.lastActivity = time.Time{}
	}
	m.mu.Unlock()

	if !current {
		return nil
	}

	var errs []error
	if err := m.tokens.ClearToken(); err != nil {
		errs = append(errs, fmt.Errorf("clearing session token: %w", err))
	}
	if reason != model.LogoutReasonNone && m.tracker != nil {
		if err := m.tracker.SetLogoutReason(ctx, reason); err != nil {
			errs = append(errs, err)
		}
	}

	m.emit(Event{Kind: EventLoggedOut, Reason: reason})
	return errors.Join(errs...)
}
