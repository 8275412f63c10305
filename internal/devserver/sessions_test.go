package devserver

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func TestSessionStores(t *testing.T) {
	_, rdb := newTestRedis(t)

	stores := map[string]SessionStore{
		"memory": NewMemorySessionStore(),
		"redis":  NewRedisSessionStore(rdb, "test:"),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess := Session{
				ID:        "s1",
				LoginID:   "kim",
				CreatedAt: time.Now(),
				ExpiresAt: time.Now().Add(time.Hour),
			}
			require.NoError(t, s.Save(ctx, sess))

			got, ok, err := s.Get(ctx, "s1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "kim", got.LoginID)

			require.NoError(t, s.Delete(ctx, "s1"))
			require.NoError(t, s.Delete(ctx, "s1"))

			_, ok, err = s.Get(ctx, "s1")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRedisSessionStore_ExpiresWithTTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisSessionStore(rdb, "")
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Session{ID: "s2", ExpiresAt: time.Now().Add(time.Minute)}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := s.Get(ctx, "s2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	s := NewMemorySessionStore()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Session{ID: "s3", ExpiresAt: now.Add(time.Minute)}))
	now = now.Add(time.Minute)

	_, ok, err := s.Get(ctx, "s3")
	require.NoError(t, err)
	assert.False(t, ok)
}
