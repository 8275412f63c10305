package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nhle/info-module/internal/api"
	"github.com/nhle/info-module/internal/credential"
	"github.com/nhle/info-module/internal/model"
	"github.com/nhle/info-module/internal/notice"
	"github.com/nhle/info-module/internal/session"
	"github.com/nhle/info-module/tests/testutil"
)

var kim = model.UserIdentity{
	ID:         "u-1",
	LoginID:    "kim",
	Name:       "Kim Minji",
	Department: "HR",
	Roles: []model.Role{
		{Code: "hr", Name: "HR Manager", Permissions: []string{"employee.read"}},
	},
}

type fakeAuth struct {
	mu sync.Mutex

	checkResp    *api.CheckSessionResponse
	checkErr     error
	loginErr     error
	initialErr   error
	logoutErr    error
	heartbeatErr error

	// heartbeatGate, when set, blocks Heartbeat until closed.
	// heartbeatEntered receives once per call that reached the gate.
	heartbeatGate    chan struct{}
	heartbeatEntered chan struct{}

	checks     int
	logins     int
	initials   int
	logouts    int
	heartbeats int
}

func (f *fakeAuth) CheckSession(ctx context.Context) (*api.CheckSessionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	return f.checkResp, f.checkErr
}

func (f *fakeAuth) Login(ctx context.Context, loginID, password string) (*api.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &api.LoginResponse{
		UserIdentity: kim,
		SessionID:    "sess-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeAuth) SetInitialPassword(ctx context.Context, loginID, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initials++
	if f.initialErr == nil {
		f.loginErr = nil
	}
	return f.initialErr
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	return f.logoutErr
}

func (f *fakeAuth) Heartbeat(ctx context.Context) error {
	f.mu.Lock()
	f.heartbeats++
	gate, entered, err := f.heartbeatGate, f.heartbeatEntered, f.heartbeatErr
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeAuth) count(field *int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *field
}

func (f *fakeAuth) set(fn func(f *fakeAuth)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type fakeNotifications struct {
	mu    sync.Mutex
	count int
	err   error
	calls int

	// gate, when set, blocks UnreadCount until closed. entered receives
	// once per call that reached the gate.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeNotifications) UnreadCount(ctx context.Context) (int, error) {
	f.mu.Lock()
	f.calls++
	gate, entered, count, err := f.gate, f.entered, f.count, f.err
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return count, err
}

func (f *fakeNotifications) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotices struct {
	mu     sync.Mutex
	items  []model.Notice
	err    error
	calls  int
	filter api.NoticeFilter
}

func (f *fakeNotices) GetNotices(ctx context.Context, filter api.NoticeFilter) ([]model.Notice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.filter = filter
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Notice(nil), f.items...), nil
}

func (f *fakeNotices) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// manualScheduler records the scheduled task; tests call Manager.Tick
// themselves.
type manualScheduler struct {
	mu      sync.Mutex
	period  time.Duration
	starts  int
	running int
}

func (s *manualScheduler) Every(period time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.period = period
	s.starts++
	s.running++

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.running--
		})
	}
}

func (s *manualScheduler) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 4, 9, 0, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeNotifier struct {
	fn func()
}

func (n *fakeNotifier) SetUnauthorizedHandler(fn func()) { n.fn = fn }

type harness struct {
	m        *session.Manager
	auth     *fakeAuth
	notifs   *fakeNotifications
	notices  *fakeNotices
	tokens   *credential.TokenStore
	tracker  *notice.Tracker
	sched    *manualScheduler
	clock    *fakeClock
	notifier *fakeNotifier
}

func testConfig() session.Config {
	return session.Config{
		IdleTimeout:       900 * time.Second,
		WarningTicks:      60,
		HeartbeatTicks:    300,
		NotificationTicks: 180,
		RequestTimeout:    5 * time.Second,
	}
}

func newHarness(t *testing.T, cfg session.Config) *harness {
	t.Helper()

	clock := newFakeClock()
	kv := testutil.NewTestStore(t)
	kv.SetClock(clock.Now)
	tracker := notice.NewTracker(kv)
	tracker.SetClock(clock.Now)

	h := &harness{
		auth:     &fakeAuth{},
		notifs:   &fakeNotifications{},
		notices:  &fakeNotices{},
		tokens:   credential.NewTokenStore(keyring.NewArrayKeyring(nil)),
		tracker:  tracker,
		sched:    &manualScheduler{},
		clock:    clock,
		notifier: &fakeNotifier{},
	}
	h.m = session.NewManager(cfg, session.Deps{
		Auth:          h.auth,
		Notifications: h.notifs,
		Notices:       h.notices,
		Tokens:        h.tokens,
		Tracker:       tracker,
		Unauthorized:  h.notifier,
		Scheduler:     h.sched,
		Now:           clock.Now,
		Log:           zerolog.Nop(),
	})
	t.Cleanup(h.m.Dispose)
	return h
}

// login signs in and waits for the initial notification check.
func (h *harness) login(t *testing.T) {
	t.Helper()
	_, err := h.m.Login(context.Background(), "kim", "secret")
	require.NoError(t, err)
	h.m.Wait()
}

// tick advances the clock by one second, ticks once and waits for the
// requests the tick started, as a real one-second period would.
func (h *harness) tick() {
	h.rawTick()
	h.m.Wait()
}

// rawTick ticks without waiting for background requests.
func (h *harness) rawTick() {
	h.clock.Advance(time.Second)
	h.m.Tick()
}

// activeTicks ticks n times with user activity on every tick.
func (h *harness) activeTicks(n int) {
	for i := 0; i < n; i++ {
		h.tick()
		h.m.RecordActivity()
	}
	h.m.Wait()
}

// idleTicks ticks n times without activity.
func (h *harness) idleTicks(n int) {
	for i := 0; i < n; i++ {
		h.tick()
	}
	h.m.Wait()
}

func drain(ch <-chan session.Event) []session.Event {
	var out []session.Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func countKind(events []session.Event, kind session.EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
