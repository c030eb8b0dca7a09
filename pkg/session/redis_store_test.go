package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_GetSet(t *testing.T) {
	t.Parallel()

	mr, client := newTestRedis(t)
	store := session.NewRedisStore(client)
	ctx := context.Background()

	t.Run("stores the envelope bytes verbatim", func(t *testing.T) {
		d := session.NewData(session.CookieMeta{
			OriginalMaxAge: durationPtr(time.Hour),
			Expires:        timePtr(time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)),
			HTTPOnly:       true,
			Path:           "/",
		})
		d.Values["views"] = session.Int(1)
		require.NoError(t, store.Set(ctx, "sess:S", d, time.Hour))

		raw, err := mr.Get("sess:S")
		require.NoError(t, err)
		assert.Equal(t,
			`{"views":1,"cookie":{"originalMaxAge":3600000,"expires":"2025-01-01T13:00:00.000Z","secure":false,"httpOnly":true,"path":"/"}}`,
			raw,
		)
		assert.Equal(t, time.Hour, mr.TTL("sess:S"))

		got, err := store.Get(ctx, "sess:S")
		require.NoError(t, err)
		assert.Equal(t, `1`, got.Values["views"].String())
	})

	t.Run("reads values written by other processes", func(t *testing.T) {
		require.NoError(t, mr.Set("sess:node", `{"cookie":{"originalMaxAge":null,"expires":null,"httpOnly":true,"path":"/"},"user":"ann"}`))

		got, err := store.Get(ctx, "sess:node")
		require.NoError(t, err)
		assert.Equal(t, `"ann"`, got.Values["user"].String())
		assert.Nil(t, got.Cookie.Expires)
	})

	t.Run("no expiry", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "sess:forever", sampleData(nil), session.NoExpiry))
		assert.Equal(t, time.Duration(0), mr.TTL("sess:forever"))
	})

	t.Run("miss", func(t *testing.T) {
		_, err := store.Get(ctx, "sess:missing")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("expired by ttl", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "sess:short", sampleData(nil), 2*time.Second))
		mr.FastForward(3 * time.Second)
		_, err := store.Get(ctx, "sess:short")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("malformed value", func(t *testing.T) {
		require.NoError(t, mr.Set("sess:bad", "not json"))
		_, err := store.Get(ctx, "sess:bad")
		assert.ErrorIs(t, err, session.ErrMalformedSession)
	})
}

func TestRedisStore_Touch(t *testing.T) {
	t.Parallel()

	mr, client := newTestRedis(t)
	store := session.NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "sess:t", sampleData(map[string]any{"v": 1}), time.Minute))
	before, err := mr.Get("sess:t")
	require.NoError(t, err)

	require.NoError(t, store.Touch(ctx, "sess:t", sampleData(map[string]any{"v": 2}), time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("sess:t"))

	after, err := mr.Get("sess:t")
	require.NoError(t, err)
	assert.Equal(t, before, after, "touch only updates the key expiry")

	require.NoError(t, store.Touch(ctx, "sess:t", nil, session.NoExpiry))
	assert.Equal(t, time.Duration(0), mr.TTL("sess:t"))

	require.NoError(t, store.Touch(ctx, "sess:ghost", nil, time.Hour))
	assert.False(t, mr.Exists("sess:ghost"), "touch must not create keys")
}

func TestRedisStore_Destroy(t *testing.T) {
	t.Parallel()

	mr, client := newTestRedis(t)
	store := session.NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "sess:d", sampleData(nil), time.Hour))
	require.NoError(t, store.Destroy(ctx, "sess:d"))
	require.NoError(t, store.Destroy(ctx, "sess:d"))
	assert.False(t, mr.Exists("sess:d"))
}

func TestRedisStore_Lister(t *testing.T) {
	t.Parallel()

	mr, client := newTestRedis(t)
	store := session.NewRedisStore(client)
	ctx := context.Background()

	var _ session.Lister = store

	for _, key := range []string{"app[1]:a", "app[1]:b", "app1:c", "sess:d"} {
		require.NoError(t, store.Set(ctx, key, sampleData(map[string]any{"key": key}), time.Hour))
	}
	require.NoError(t, mr.Set("app[1]:broken", "{"))

	keys, err := store.Keys(ctx, "app[1]:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"app[1]:a", "app[1]:b", "app[1]:broken"}, keys)

	n, err := store.Len(ctx, "sess:")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := store.All(ctx, "app[1]:")
	require.NoError(t, err)
	assert.Len(t, all, 2, "unparseable entries are skipped")
	assert.Equal(t, `"app[1]:a"`, all["app[1]:a"].Values["key"].String())

	require.NoError(t, store.Clear(ctx, "app[1]:"))
	assert.False(t, mr.Exists("app[1]:a"))
	assert.False(t, mr.Exists("app[1]:broken"))
	assert.True(t, mr.Exists("app1:c"))
	assert.True(t, mr.Exists("sess:d"))
}

func TestRedisStore_Unavailable(t *testing.T) {
	t.Parallel()

	mr, client := newTestRedis(t)
	store := session.NewRedisStore(client)
	ctx := context.Background()
	mr.Close()

	_, err := store.Get(ctx, "sess:x")
	assert.ErrorIs(t, err, session.ErrStoreUnavailable)
	assert.ErrorIs(t, store.Set(ctx, "sess:x", sampleData(nil), time.Hour), session.ErrStoreUnavailable)
	assert.ErrorIs(t, store.Touch(ctx, "sess:x", nil, time.Hour), session.ErrStoreUnavailable)
	assert.ErrorIs(t, store.Destroy(ctx, "sess:x"), session.ErrStoreUnavailable)
	_, err = store.Keys(ctx, "sess:")
	assert.ErrorIs(t, err, session.ErrStoreUnavailable)
}
