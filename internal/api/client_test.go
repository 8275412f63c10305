package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/info-module/internal/api"
	"github.com/nhle/info-module/internal/devserver"
	"github.com/nhle/info-module/internal/model"
)

// staticTokens is a TokenSource holding a mutable token.
type staticTokens struct {
	token string
}

func (s *staticTokens) Token() (string, error) { return s.token, nil }

func newBackend(t *testing.T) (*devserver.Server, *httptest.Server) {
	t.Helper()

	srv := devserver.New()
	srv.AddAccount(devserver.Account{
		Password: "secret",
		User: model.UserIdentity{
			ID:         "u-1",
			LoginID:    "kim",
			Name:       "Kim Minji",
			Department: "HR",
			Roles: []model.Role{
				{Code: "hr", Name: "HR Manager", Permissions: []string{"employee.read"}},
			},
		},
	})
	srv.AddAccount(devserver.Account{
		NeedsInitialPassword: true,
		User:                 model.UserIdentity{ID: "u-2", LoginID: "newbie"},
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestAuthService_LoginCheckLogout(t *testing.T) {
	_, ts := newBackend(t)
	tokens := &staticTokens{}
	client := api.NewClient(ts.URL, tokens, 5*time.Second, zerolog.Nop())
	auth := api.NewAuthService(client)
	ctx := context.Background()

	check, err := auth.CheckSession(ctx)
	require.NoError(t, err)
	assert.False(t, check.Valid)

	resp, err := auth.Login(ctx, "kim", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "Kim Minji", api.UserFromLogin(resp).Name)

	tokens.token = resp.SessionID

	check, err = auth.CheckSession(ctx)
	require.NoError(t, err)
	require.True(t, check.Valid)
	assert.Equal(t, "u-1", check.User.ID)

	require.NoError(t, auth.Heartbeat(ctx))
	require.NoError(t, auth.Logout(ctx))

	err = auth.Heartbeat(ctx)
	assert.True(t, api.IsAuthError(err), "heartbeat after logout should be a 401, got %v", err)
}

func TestAuthService_InitialPasswordFlow(t *testing.T) {
	_, ts := newBackend(t)
	client := api.NewClient(ts.URL, nil, 5*time.Second, zerolog.Nop())
	auth := api.NewAuthService(client)
	ctx := context.Background()

	_, err := auth.Login(ctx, "newbie", "anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrInitialPasswordRequired))
	assert.Equal(t, "You must set a password before signing in.", api.UserMessage(err))

	require.NoError(t, auth.SetInitialPassword(ctx, "newbie", "fresh-pass"))

	resp, err := auth.Login(ctx, "newbie", "fresh-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
}

func TestClient_UnauthorizedHandlerRunsOnEvery401(t *testing.T) {
	_, ts := newBackend(t)
	client := api.NewClient(ts.URL, &staticTokens{token: "stale"}, 5*time.Second, zerolog.Nop())

	var calls atomic.Int32
	client.SetUnauthorizedHandler(func() { calls.Add(1) })

	ctx := context.Background()
	err := api.NewAuthService(client).Heartbeat(ctx)
	assert.True(t, api.IsAuthError(err))

	_, err = api.NewNotificationService(client).UnreadCount(ctx)
	assert.True(t, api.IsAuthError(err))

	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_BadCredentialsAreAuthErrors(t *testing.T) {
	_, ts := newBackend(t)
	client := api.NewClient(ts.URL, nil, 5*time.Second, zerolog.Nop())

	_, err := api.NewAuthService(client).Login(context.Background(), "kim", "wrong")
	require.Error(t, err)
	assert.True(t, api.IsAuthError(err))
	assert.Equal(t, "Invalid login ID or password.", api.UserMessage(err))
}

func TestClient_RetriesAfterRateLimit(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		if hits.Add(1) == 1 {
			rw.Header().Set("Retry-After", "0")
			rw.WriteHeader(http.StatusTooManyRequests)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write([]byte(`{"count":4}`))
	}))
	defer ts.Close()

	client := api.NewClient(ts.URL, nil, 5*time.Second, zerolog.Nop())
	n, err := api.NewNotificationService(client).UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_ServerErrorIsAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		rw.WriteHeader(http.StatusInternalServerError)
		_, _ = rw.Write([]byte(`{"code":"BOOM","message":"database unavailable"}`))
	}))
	defer ts.Close()

	client := api.NewClient(ts.URL, nil, 5*time.Second, zerolog.Nop())
	_, err := api.NewNotificationService(client).UnreadCount(context.Background())

	var apiErr *api.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "database unavailable", api.UserMessage(err))
}

func TestNoticeService_GetNotices(t *testing.T) {
	srv, ts := newBackend(t)
	srv.AddNotice(model.Notice{ID: "n1", Title: "Holiday", IsActive: true})
	srv.AddNotice(model.Notice{ID: "n2", Title: "Old", IsActive: false})

	tokens := &staticTokens{}
	client := api.NewClient(ts.URL, tokens, 5*time.Second, zerolog.Nop())
	ctx := context.Background()

	resp, err := api.NewAuthService(client).Login(ctx, "kim", "secret")
	require.NoError(t, err)
	tokens.token = resp.SessionID

	active := true
	notices, err := api.NewNoticeService(client).GetNotices(ctx, api.NoticeFilter{
		IsActive: &active,
		Page:     1,
		Size:     50,
	})
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, "n1", notices[0].ID)
}
