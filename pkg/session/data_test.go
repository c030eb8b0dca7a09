package session_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func durationPtr(d time.Duration) *time.Duration { return &d }

func timePtr(t time.Time) *time.Time { return &t }

func TestData_Marshal(t *testing.T) {
	t.Parallel()

	t.Run("envelope layout", func(t *testing.T) {
		t.Parallel()
		d := session.NewData(session.CookieMeta{
			OriginalMaxAge: durationPtr(time.Hour),
			Expires:        timePtr(time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)),
			HTTPOnly:       true,
			Path:           "/",
		})
		d.Values["views"] = session.Int(1)

		raw, err := d.Marshal()
		require.NoError(t, err)
		assert.Equal(t,
			`{"views":1,"cookie":{"originalMaxAge":3600000,"expires":"2025-01-01T13:00:00.000Z","secure":false,"httpOnly":true,"path":"/"}}`,
			string(raw),
		)
	})

	t.Run("browser session cookie", func(t *testing.T) {
		t.Parallel()
		d := session.NewData(session.CookieMeta{HTTPOnly: true, Path: "/"})

		raw, err := d.Marshal()
		require.NoError(t, err)
		assert.Equal(t,
			`{"cookie":{"originalMaxAge":null,"expires":null,"secure":false,"httpOnly":true,"path":"/"}}`,
			string(raw),
		)
	})

	t.Run("optional attributes", func(t *testing.T) {
		t.Parallel()
		d := session.NewData(session.CookieMeta{
			Secure:   true,
			Path:     "/app",
			Domain:   "example.com",
			SameSite: "strict",
		})

		raw, err := d.Marshal()
		require.NoError(t, err)
		assert.JSONEq(t,
			`{"cookie":{"originalMaxAge":null,"expires":null,"secure":true,"httpOnly":false,"domain":"example.com","path":"/app","sameSite":"strict"}}`,
			string(raw),
		)
	})

	t.Run("expires keeps millisecond precision in UTC", func(t *testing.T) {
		t.Parallel()
		loc := time.FixedZone("UTC+2", 2*60*60)
		d := session.NewData(session.CookieMeta{
			Expires: timePtr(time.Date(2025, 6, 1, 10, 30, 0, 123456789, loc)),
		})
		raw, err := d.Marshal()
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"expires":"2025-06-01T08:30:00.123Z"`)
	})
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		profile, err := session.ValueOf(map[string]any{"name": "ann", "tags": []any{"a", "b"}})
		require.NoError(t, err)

		d := session.NewData(session.CookieMeta{
			OriginalMaxAge: durationPtr(90 * time.Minute),
			Expires:        timePtr(time.Date(2030, 3, 4, 5, 6, 7, 8_000_000, time.UTC)),
			Secure:         true,
			HTTPOnly:       true,
			Path:           "/",
			Domain:         "example.org",
			SameSite:       "none",
		})
		d.Values["profile"] = profile
		d.Values["count"] = session.Float(2.25)
		d.Values["flag"] = session.Bool(false)
		d.Values["nothing"] = session.Null()

		raw, err := d.Marshal()
		require.NoError(t, err)

		got, err := session.Unmarshal(raw)
		require.NoError(t, err)

		require.Len(t, got.Values, len(d.Values))
		for k, v := range d.Values {
			assert.True(t, v.Equal(got.Values[k]), k)
		}
		assert.Equal(t, *d.Cookie.OriginalMaxAge, *got.Cookie.OriginalMaxAge)
		assert.True(t, d.Cookie.Expires.Equal(*got.Cookie.Expires))
		assert.Equal(t, d.Cookie.Secure, got.Cookie.Secure)
		assert.Equal(t, d.Cookie.HTTPOnly, got.Cookie.HTTPOnly)
		assert.Equal(t, d.Cookie.Path, got.Cookie.Path)
		assert.Equal(t, d.Cookie.Domain, got.Cookie.Domain)
		assert.Equal(t, d.Cookie.SameSite, got.Cookie.SameSite)

		again, err := got.Marshal()
		require.NoError(t, err)
		assert.Equal(t, string(raw), string(again))
	})

	t.Run("envelope written by the node middleware", func(t *testing.T) {
		t.Parallel()
		raw := `{"cookie":{"originalMaxAge":86400000,"partitioned":null,"priority":null,"expires":"2030-01-01T00:00:00.000Z","secure":false,"httpOnly":true,"path":"/","sameSite":true},"passport":{"user":"42"},"views":3}`

		got, err := session.Unmarshal([]byte(raw))
		require.NoError(t, err)

		assert.Equal(t, 24*time.Hour, *got.Cookie.OriginalMaxAge)
		assert.WithinDuration(t, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), *got.Cookie.Expires, 0)
		assert.Equal(t, "strict", got.Cookie.SameSite)
		assert.Equal(t, `{"user":"42"}`, got.Values["passport"].String())
		views, ok := got.Values["views"].AsInt()
		assert.True(t, ok)
		assert.Equal(t, int64(3), views)
		assert.NotContains(t, got.Values, "cookie")
	})

	t.Run("null cookie attributes", func(t *testing.T) {
		t.Parallel()
		got, err := session.Unmarshal([]byte(`{"cookie":{"originalMaxAge":null,"expires":null,"httpOnly":true,"path":"/"}}`))
		require.NoError(t, err)
		assert.Nil(t, got.Cookie.OriginalMaxAge)
		assert.Nil(t, got.Cookie.Expires)
		assert.False(t, got.Cookie.Persistent())
	})

	malformed := map[string]string{
		"not json":           `not json`,
		"array":              `[1,2,3]`,
		"string":             `"sess"`,
		"null":               `null`,
		"missing cookie":     `{"views":1}`,
		"cookie not object":  `{"cookie":"yes"}`,
		"cookie null":        `{"cookie":null}`,
		"bad expires":        `{"cookie":{"expires":"tomorrow"}}`,
		"bad originalMaxAge": `{"cookie":{"originalMaxAge":"1h"}}`,
		"bad httpOnly":       `{"cookie":{"httpOnly":"yes"}}`,
	}
	for name, raw := range malformed {
		t.Run("malformed "+name, func(t *testing.T) {
			t.Parallel()
			_, err := session.Unmarshal([]byte(raw))
			assert.ErrorIs(t, err, session.ErrMalformedSession)
		})
	}
}

func TestData_Clone(t *testing.T) {
	t.Parallel()

	d := session.NewData(session.CookieMeta{
		OriginalMaxAge: durationPtr(time.Minute),
		Expires:        timePtr(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	d.Values["a"] = session.Int(1)

	c := d.Clone()
	c.Values["a"] = session.Int(2)
	*c.Cookie.OriginalMaxAge = time.Hour
	*c.Cookie.Expires = time.Time{}

	assert.Equal(t, `1`, d.Values["a"].String())
	assert.Equal(t, time.Minute, *d.Cookie.OriginalMaxAge)
	assert.Equal(t, 2030, d.Cookie.Expires.Year())
}

func TestCookieMeta(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("reset recomputes expires", func(t *testing.T) {
		t.Parallel()
		meta := session.CookieMeta{OriginalMaxAge: durationPtr(time.Hour)}
		meta.Reset(now)
		require.NotNil(t, meta.Expires)
		assert.WithinDuration(t, now.Add(time.Hour), *meta.Expires, 0)
		assert.Equal(t, time.Hour, meta.MaxAge(now))
	})

	t.Run("set expires derives original max age", func(t *testing.T) {
		t.Parallel()
		var meta session.CookieMeta
		meta.SetExpires(timePtr(now.Add(30*time.Minute)), now)
		assert.Equal(t, 30*time.Minute, *meta.OriginalMaxAge)

		meta.SetExpires(nil, now)
		assert.Nil(t, meta.Expires)
		assert.Nil(t, meta.OriginalMaxAge)
	})

	t.Run("expired cookie has zero max age", func(t *testing.T) {
		t.Parallel()
		var meta session.CookieMeta
		meta.SetMaxAge(-time.Second, now)
		assert.Equal(t, time.Duration(0), meta.MaxAge(now))
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		raw, err := json.Marshal(session.CookieMeta{Path: "/"})
		require.NoError(t, err)
		assert.Equal(t, `{"originalMaxAge":null,"expires":null,"secure":false,"httpOnly":false,"path":"/"}`, string(raw))
	})
}
