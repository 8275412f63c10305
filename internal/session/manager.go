// Package session implements the session liveness manager: it bootstraps
// and tears down the signed-in session, tracks user activity, and drives
// the idle warning, heartbeats and notification polling from one
// one-second ticker.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/nhle/info-module/internal/api"
	"github.com/nhle/info-module/internal/model"
	"github.com/nhle/info-module/internal/notice"
)

// AuthAPI is the subset of the backend auth endpoints the manager uses.
type AuthAPI interface {
	CheckSession(ctx context.Context) (*api.CheckSessionResponse, error)
	Login(ctx context.Context, loginID, password string) (*api.LoginResponse, error)
	SetInitialPassword(ctx context.Context, loginID, newPassword string) error
	Logout(ctx context.Context) error
	Heartbeat(ctx context.Context) error
}

// NotificationAPI reports unread personal notifications.
type NotificationAPI interface {
	UnreadCount(ctx context.Context) (int, error)
}

// NoticeAPI lists public notices.
type NoticeAPI interface {
	GetNotices(ctx context.Context, filter api.NoticeFilter) ([]model.Notice, error)
}

// TokenStore persists the session token across restarts.
type TokenStore interface {
	Token() (string, error)
	SaveToken(token string) error
	ClearToken() error
}

// UnauthorizedNotifier is implemented by HTTP layers that can report any
// 401 response through a single callback.
type UnauthorizedNotifier interface {
	SetUnauthorizedHandler(fn func())
}

// Config holds the manager timings expressed in ticks.
type Config struct {
	// IdleTimeout is the idle time after which the warning opens.
	IdleTimeout time.Duration

	// WarningTicks is the countdown length once the warning opens.
	WarningTicks int

	// HeartbeatTicks is the number of active ticks between heartbeats.
	HeartbeatTicks int

	// NotificationTicks is the number of active ticks between
	// notification checks.
	NotificationTicks int

	// TickPeriod is the ticker period. Always one second in production.
	TickPeriod time.Duration

	// RequestTimeout bounds background requests started by the ticker.
	RequestTimeout time.Duration

	// NoticePageSize is how many notices one poll fetches.
	NoticePageSize int
}

// ConfigFrom converts the millisecond settings of the application config.
func ConfigFrom(c model.SessionConfig) Config {
	return Config{
		IdleTimeout:       c.IdleTimeout(),
		WarningTicks:      c.WarningTicks(),
		HeartbeatTicks:    c.HeartbeatTicks(),
		NotificationTicks: c.NotificationPollTicks,
	}
}

func (c *Config) applyDefaults() {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = time.Duration(model.DefaultIdleTimeoutMs) * time.Millisecond
	}
	if c.WarningTicks <= 0 {
		c.WarningTicks = model.DefaultIdleWarningCountdownMs / 1000
	}
	if c.HeartbeatTicks <= 0 {
		c.HeartbeatTicks = model.DefaultHeartbeatIntervalMs / 1000
	}
	if c.NotificationTicks <= 0 {
		c.NotificationTicks = model.NotificationPollTicks
	}
	if c.TickPeriod <= 0 {
		c.TickPeriod = time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.NoticePageSize <= 0 {
		c.NoticePageSize = 100
	}
}

// Deps are the collaborators of a Manager.
type Deps struct {
	Auth          AuthAPI
	Notifications NotificationAPI
	Notices       NoticeAPI
	Tokens        TokenStore
	Tracker       *notice.Tracker

	// Unauthorized, when set, receives the manager's 401 handler at
	// construction.
	Unauthorized UnauthorizedNotifier

	// Scheduler defaults to TickerScheduler.
	Scheduler Scheduler

	// Now defaults to time.Now.
	Now func() time.Time

	Log zerolog.Logger
}

// Manager owns the session state. All exported methods are safe for
// concurrent use; network calls are never made while holding the lock.
type Manager struct {
	cfg           Config
	auth          AuthAPI
	notifications NotificationAPI
	notices       NoticeAPI
	tokens        TokenStore
	tracker       *notice.Tracker
	sched         Scheduler
	now           func() time.Time
	log           zerolog.Logger

	mu           sync.Mutex
	state        model.SessionState
	active       bool
	tracking     bool
	lastActivity time.Time
	warning      model.WarningState
	counters     model.PollingCounters
	flags        model.NotificationFlags
	stopTicker   func()
	generation   uint64
	disposed     bool

	inflight singleflight.Group
	bg       sync.WaitGroup

	evMu     sync.Mutex
	events   chan Event
	evClosed bool
}

// NewManager builds a Manager and registers its 401 handler with
// deps.Unauthorized.
func NewManager(cfg Config, deps Deps) *Manager {
	cfg.applyDefaults()

	m := &Manager{
		cfg:           cfg,
		auth:          deps.Auth,
		notifications: deps.Notifications,
		notices:       deps.Notices,
		tokens:        deps.Tokens,
		tracker:       deps.Tracker,
		sched:         deps.Scheduler,
		now:           deps.Now,
		log:           deps.Log.With().Str("component", "session").Logger(),
		events:        make(chan Event, eventBuffer),
	}
	if m.sched == nil {
		m.sched = TickerScheduler{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	if deps.Unauthorized != nil {
		deps.Unauthorized.SetUnauthorizedHandler(m.handleUnauthorized)
	}
	return m
}

// Init resolves the initial authentication state from any stored session.
// It reports whether a user is signed in afterwards.
func (m *Manager) Init(ctx context.Context) bool {
	return m.CheckSession(ctx)
}

// Dispose stops the ticker and detaches activity tracking without
// contacting the server, waits for background requests and closes the
// events channel. The manager is unusable afterwards.
func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	m.haltLocked()
	m.mu.Unlock()

	m.bg.Wait()
	m.closeEvents()
}

// Wait blocks until every background request started so far has finished.
func (m *Manager) Wait() {
	m.bg.Wait()
}

// Snapshot is a consistent copy of the manager state.
type Snapshot struct {
	Session      model.SessionState
	Active       bool
	Warning      model.WarningState
	Counters     model.PollingCounters
	Flags        model.NotificationFlags
	LastActivity time.Time
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Session:      m.state,
		Active:       m.active,
		Warning:      m.warning,
		Counters:     m.counters,
		Flags:        m.flags,
		LastActivity: m.lastActivity,
	}
}

// User returns the signed-in user, or nil.
func (m *Manager) User() *model.UserIdentity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.User
}

// Tracker returns the notice tracker shared with the views.
func (m *Manager) Tracker() *notice.Tracker {
	return m.tracker
}

// RecordActivity stamps the last-activity time with now. It has no effect
// while no session is active.
func (m *Manager) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.tracking {
		return
	}
	if now := m.now(); now.After(m.lastActivity) {
		m.lastActivity = now
	}
}

// startLocked makes user the active session and starts the ticker. It
// reserves one background slot for the immediate notification check,
// which the caller must start with spawn.
func (m *Manager) startLocked(user *model.UserIdentity) {
	if m.stopTicker != nil {
		m.stopTicker()
		m.stopTicker = nil
	}

	m.state = model.SessionState{User: user}
	m.active = true
	m.tracking = true
	m.lastActivity = m.now()
	m.warning = model.WarningState{}
	m.counters = model.PollingCounters{}
	m.flags = model.NotificationFlags{}
	m.generation++
	m.stopTicker = m.sched.Every(m.cfg.TickPeriod, m.Tick)

	m.bg.Add(1)
}

// haltLocked stops every timer-driven behavior of the current session:
// the ticker, activity tracking, the warning and the counters. The user
// stays set until the logout finishes. It returns the new generation.
func (m *Manager) haltLocked() uint64 {
	if m.stopTicker != nil {
		m.stopTicker()
		m.stopTicker = nil
	}
	m.active = false
	m.tracking = false
	m.warning = model.WarningState{}
	m.counters = model.PollingCounters{}
	m.generation++
	return m.generation
}

// spawn runs fn in the background with a request timeout. The caller
// must have reserved the slot with m.bg.Add while holding the lock.
func (m *Manager) spawn(fn func(ctx context.Context)) {
	go func() {
		defer m.bg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.RequestTimeout)
		defer cancel()
		fn(ctx)
	}()
}
