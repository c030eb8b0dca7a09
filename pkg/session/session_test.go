package session_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func freshSession(t *testing.T, opts ...session.Option) *session.Session {
	t.Helper()
	mgr := newManager(t, testConfig(), opts...)
	return mgr.Load(requestWith(nil))
}

func TestSession_Payload(t *testing.T) {
	t.Parallel()

	t.Run("typed getters", func(t *testing.T) {
		t.Parallel()
		sess := freshSession(t)

		require.NoError(t, sess.Set("name", "ann"))
		require.NoError(t, sess.Set("age", 30))
		require.NoError(t, sess.Set("admin", true))

		name, ok := sess.GetString("name")
		assert.True(t, ok)
		assert.Equal(t, "ann", name)

		age, ok := sess.GetInt("age")
		assert.True(t, ok)
		assert.Equal(t, 30, age)

		admin, ok := sess.GetBool("admin")
		assert.True(t, ok)
		assert.True(t, admin)

		_, ok = sess.GetInt("name")
		assert.False(t, ok)
		_, ok = sess.GetString("missing")
		assert.False(t, ok)

		assert.Equal(t, []string{"admin", "age", "name"}, sess.Keys())
		assert.Equal(t, 3, sess.Len())
	})

	t.Run("mutations mark the session modified", func(t *testing.T) {
		t.Parallel()
		for name, mutate := range map[string]func(*session.Session){
			"set":    func(s *session.Session) { _ = s.Set("k", 1) },
			"remove": func(s *session.Session) { s.Remove("absent") },
			"clear":  func(s *session.Session) { s.Clear() },
		} {
			sess := freshSession(t)
			assert.False(t, sess.IsModified(), name)
			mutate(sess)
			assert.True(t, sess.IsModified(), name)
		}
	})

	t.Run("remove and contains", func(t *testing.T) {
		t.Parallel()
		sess := freshSession(t)
		require.NoError(t, sess.Set("k", "v"))
		assert.True(t, sess.Contains("k"))
		sess.Remove("k")
		assert.False(t, sess.Contains("k"))
	})

	t.Run("clear keeps cookie metadata", func(t *testing.T) {
		t.Parallel()
		sess := freshSession(t)
		require.NoError(t, sess.Set("k", "v"))
		before := sess.Cookie()
		sess.Clear()
		assert.Equal(t, 0, sess.Len())
		assert.Equal(t, before.Path, sess.Cookie().Path)
		assert.NotNil(t, sess.Cookie().Expires)
	})

	t.Run("cookie key is reserved", func(t *testing.T) {
		t.Parallel()
		sess := freshSession(t)
		assert.ErrorIs(t, sess.Set("cookie", "x"), session.ErrReservedKey)
		assert.False(t, sess.Contains("cookie"))
		_, ok := sess.Get("cookie")
		assert.False(t, ok)
		sess.Remove("cookie")
		assert.False(t, sess.IsModified())
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Parallel()
		sess := freshSession(t)
		assert.ErrorIs(t, sess.Set("fn", func() {}), session.ErrInvalidValue)
		assert.False(t, sess.IsModified())
	})

	t.Run("get returns a copy", func(t *testing.T) {
		t.Parallel()
		sess := freshSession(t)
		require.NoError(t, sess.Set("list", []any{1, 2}))
		v, _ := sess.Get("list")
		arr, _ := v.AsArray()
		arr[0] = session.Int(99)
		again, _ := sess.Get("list")
		assert.Equal(t, `[1,2]`, again.String())
	})
}

func TestSession_Destroy(t *testing.T) {
	t.Parallel()

	sess := freshSession(t)
	require.NoError(t, sess.Set("k", "v"))
	sess.Destroy()

	assert.True(t, sess.IsDestroyed())
	require.NoError(t, sess.Set("k", "resurrected"))
	sess.Remove("k")
	sess.Clear()
	require.NoError(t, sess.Regenerate())
	sess.SetCookieMaxAge(time.Hour)

	v, ok := sess.GetString("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v, "mutations after destroy are ignored")
	assert.False(t, sess.IsRegenerated())
}

func TestSession_Regenerate(t *testing.T) {
	t.Parallel()

	sess := freshSession(t, session.WithIDGenerator(sequentialIDs()))
	assert.Equal(t, "id-1", sess.ID())

	require.NoError(t, sess.Set("k", "v"))
	require.NoError(t, sess.Regenerate())
	assert.Equal(t, "id-2", sess.ID())
	assert.True(t, sess.IsRegenerated())
	assert.True(t, sess.IsModified())

	require.NoError(t, sess.Regenerate())
	assert.Equal(t, "id-3", sess.ID())

	v, _ := sess.GetString("k")
	assert.Equal(t, "v", v, "payload is carried over")
}

func TestSession_CookieExpiry(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	sess := freshSession(t, session.WithClock(clock.Now))

	meta := sess.Cookie()
	require.NotNil(t, meta.OriginalMaxAge)
	assert.Equal(t, 24*time.Hour, *meta.OriginalMaxAge)
	assert.WithinDuration(t, clock.Now().Add(24*time.Hour), *meta.Expires, 0)

	sess.SetCookieMaxAgeSeconds(60)
	assert.True(t, sess.IsModified())
	assert.WithinDuration(t, clock.Now().Add(time.Minute), *sess.Cookie().Expires, 0)

	clock.Advance(30 * time.Second)
	sess.Touch()
	assert.WithinDuration(t, clock.Now().Add(time.Minute), *sess.Cookie().Expires, 0)

	exp := clock.Now().Add(2 * time.Hour)
	sess.SetCookieExpires(&exp)
	assert.Equal(t, 2*time.Hour, *sess.Cookie().OriginalMaxAge)

	sess.SetCookieExpires(nil)
	assert.Nil(t, sess.Cookie().Expires)
	assert.Nil(t, sess.Cookie().OriginalMaxAge)
}

func TestContext(t *testing.T) {
	t.Parallel()

	_, ok := session.FromContext(context.Background())
	assert.False(t, ok)
	assert.Panics(t, func() { session.MustFromContext(context.Background()) })

	mgr := newManager(t, testConfig())
	sess := mgr.Load(httptest.NewRequest("GET", "/", nil))
	ctx := session.WithSession(context.Background(), sess)

	got, ok := session.FromContext(ctx)
	assert.True(t, ok)
	assert.Same(t, sess, got)
	assert.Same(t, sess, session.MustFromContext(ctx))
}
