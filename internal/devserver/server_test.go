package devserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/info-module/internal/model"
)

func TestServer_RejectsUnauthenticatedReads(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	for _, path := range []string{"/notices", "/notifications/unread-count"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	resp, err := http.Post(ts.URL+"/auth/heartbeat", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 1, srv.Calls("/auth/heartbeat"))
}

func TestServer_LoginRequiresInitialPassword(t *testing.T) {
	srv := New()
	srv.AddAccount(Account{
		NeedsInitialPassword: true,
		User:                 model.UserIdentity{ID: "1", LoginID: "new"},
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/auth/login", "application/json",
		strings.NewReader(`{"login_id":"new","password":"x"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)
}
