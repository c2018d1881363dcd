package credentials

import (
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
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, "test")

	access, err := store.Get(AccessTokenKey)
	require.NoError(t, err)
	assert.Empty(t, access)

	require.NoError(t, WritePair(store, "a1", "r1"))

	raw, err := mr.Get("test:access_token")
	require.NoError(t, err)
	assert.Equal(t, "a1", raw)

	access, refresh, err := ReadPair(store)
	require.NoError(t, err)
	assert.Equal(t, "a1", access)
	assert.Equal(t, "r1", refresh)

	require.NoError(t, ClearPair(store))
	assert.False(t, mr.Exists("test:access_token"))
	assert.False(t, mr.Exists("test:refresh_token"))
}

func TestRedisStoreDefaultPrefix(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, "")

	require.NoError(t, store.Set(RefreshTokenKey, "r1"))
	assert.True(t, mr.Exists("jobsocial:session:refresh_token"))

	require.NoError(t, store.Remove(RefreshTokenKey))
	assert.False(t, mr.Exists("jobsocial:session:refresh_token"))
}

func TestRedisStoreUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client, "test")

	_, err := store.Get(AccessTokenKey)
	assert.Error(t, err)
}
