package session_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/info-module/internal/api"
	"github.com/nhle/info-module/internal/credential"
	"github.com/nhle/info-module/internal/devserver"
	"github.com/nhle/info-module/internal/model"
	"github.com/nhle/info-module/internal/notice"
	"github.com/nhle/info-module/internal/session"
	"github.com/nhle/info-module/tests/testutil"
)

// client is one running terminal client wired to a real HTTP backend.
type client struct {
	m       *session.Manager
	tokens  *credential.TokenStore
	tracker *notice.Tracker
	sched   *manualScheduler
}

func newBackend(t *testing.T) (*devserver.Server, *httptest.Server) {
	t.Helper()

	srv := devserver.New()
	srv.AddAccount(devserver.Account{Password: "secret", User: kim})
	srv.AddNotice(model.Notice{ID: "n-1", Title: "Office closed Friday", IsActive: true})
	srv.SetUnreadCount("kim", 2)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func newClient(t *testing.T, baseURL string, ring keyring.Keyring) *client {
	t.Helper()

	tokens := credential.NewTokenStore(ring)
	httpClient := api.NewClient(baseURL, tokens, 5*time.Second, zerolog.Nop())
	tracker := notice.NewTracker(testutil.NewTestStore(t))
	sched := &manualScheduler{}

	m := session.NewManager(testConfig(), session.Deps{
		Auth:          api.NewAuthService(httpClient),
		Notifications: api.NewNotificationService(httpClient),
		Notices:       api.NewNoticeService(httpClient),
		Tokens:        tokens,
		Tracker:       tracker,
		Unauthorized:  httpClient,
		Scheduler:     sched,
		Log:           zerolog.Nop(),
	})
	t.Cleanup(m.Dispose)

	return &client{m: m, tokens: tokens, tracker: tracker, sched: sched}
}

func TestReloadRestoresSessionFromCheck(t *testing.T) {
	srv, ts := newBackend(t)
	ring := keyring.NewArrayKeyring(nil)
	ctx := context.Background()

	first := newClient(t, ts.URL, ring)
	user, err := first.m.Login(ctx, "kim", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Kim Minji", user.Name)
	first.m.Wait()

	flags := first.m.Snapshot().Flags
	assert.True(t, flags.HasUnreadPersonal)
	assert.True(t, flags.HasUnreadPublicNotice)

	// A fresh process sharing the stored token.
	first.m.Dispose()
	reloaded := newClient(t, ts.URL, ring)
	require.True(t, reloaded.m.Init(ctx))
	reloaded.m.Wait()

	got := reloaded.m.User()
	require.NotNil(t, got)
	assert.Equal(t, "kim", got.LoginID)
	assert.Equal(t, []model.Role{{Code: "hr", Name: "HR Manager", Permissions: []string{"employee.read"}}}, got.Roles)
	assert.Equal(t, 1, srv.Calls("/auth/login"))
	assert.Equal(t, 1, srv.Calls("/auth/check-session"))
}

func TestServerRejectionForcesExpiredLogout(t *testing.T) {
	_, ts := newBackend(t)
	ctx := context.Background()

	ringA := keyring.NewArrayKeyring(nil)
	a := newClient(t, ts.URL, ringA)
	_, err := a.m.Login(ctx, "kim", "secret")
	require.NoError(t, err)
	a.m.Wait()

	// A second client holding the same session logs it out server-side.
	token, err := a.tokens.Token()
	require.NoError(t, err)
	b := newClient(t, ts.URL, keyring.NewArrayKeyring(nil))
	require.NoError(t, b.tokens.SaveToken(token))
	require.True(t, b.m.Init(ctx))
	b.m.Wait()
	require.NoError(t, b.m.Logout(ctx))

	a.m.SendHeartbeat(ctx)

	assert.Nil(t, a.m.User())
	assert.Zero(t, a.sched.Running())

	left, err := a.tokens.Token()
	require.NoError(t, err)
	assert.Empty(t, left)

	reason, err := a.tracker.TakeLogoutReason(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.LogoutReasonSessionExpired, reason)
}

func TestLogoutSurvivesUnreachableServer(t *testing.T) {
	_, ts := newBackend(t)
	ctx := context.Background()

	c := newClient(t, ts.URL, keyring.NewArrayKeyring(nil))
	_, err := c.m.Login(ctx, "kim", "secret")
	require.NoError(t, err)
	c.m.Wait()

	ts.Close()

	require.NoError(t, c.m.Logout(ctx))
	assert.Nil(t, c.m.User())

	token, err := c.tokens.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}
