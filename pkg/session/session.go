package session

import (
	"maps"
	"slices"
	"time"
)

// Session is the per-request handle on session data. It tracks what the
// handler did so Commit can decide between writing, touching, destroying or
// leaving the store alone. A Session is not safe for concurrent use.
type Session struct {
	id   string
	data *Data

	isNew       bool
	modified    bool
	destroyed   bool
	regenerated bool
	// previousID is the id loaded from the store before Regenerate.
	previousID string
	// cookieSet records an explicit expiry change by the handler.
	cookieSet bool
	committed bool

	loadErr error
	now     func() time.Time
	newID   IDGenerator
}

// ID returns the current session id. After Regenerate it is the new id.
func (s *Session) ID() string { return s.id }

// IsNew reports that no stored session was found for the request.
func (s *Session) IsNew() bool { return s.isNew }

// IsModified reports any mutation since the session was loaded or created.
func (s *Session) IsModified() bool { return s.modified }

func (s *Session) IsDestroyed() bool { return s.destroyed }

func (s *Session) IsRegenerated() bool { return s.regenerated }

// LoadError returns the degraded-read error that forced a fresh session, if
// any. It matches ErrStoreUnavailable or ErrMalformedSession.
func (s *Session) LoadError() error { return s.loadErr }

// Get returns a copy of the value stored under key.
func (s *Session) Get(key string) (Value, bool) {
	if key == CookieKey {
		return Value{}, false
	}
	v, ok := s.data.Values[key]
	if !ok {
		return Value{}, false
	}
	return v.Clone(), true
}

func (s *Session) GetString(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}
	return v.AsString()
}

func (s *Session) GetInt(key string) (int, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	i, ok := v.AsInt()
	return int(i), ok
}

func (s *Session) GetBool(key string) (bool, bool) {
	v, ok := s.Get(key)
	if !ok {
		return false, false
	}
	return v.AsBool()
}

// Set stores value under key. Values are converted with ValueOf. Setting on
// a destroyed session is a no-op.
func (s *Session) Set(key string, value any) error {
	if key == CookieKey {
		return ErrReservedKey
	}
	v, err := ValueOf(value)
	if err != nil {
		return err
	}
	if s.destroyed {
		return nil
	}
	s.data.Values[key] = v
	s.modified = true
	return nil
}

// Remove deletes key. The session counts as modified even if key was absent.
func (s *Session) Remove(key string) {
	if s.destroyed || key == CookieKey {
		return
	}
	delete(s.data.Values, key)
	s.modified = true
}

func (s *Session) Contains(key string) bool {
	if key == CookieKey {
		return false
	}
	_, ok := s.data.Values[key]
	return ok
}

// Clear removes every payload key. Cookie metadata is kept.
func (s *Session) Clear() {
	if s.destroyed {
		return
	}
	clear(s.data.Values)
	s.modified = true
}

// Keys returns payload keys in sorted order.
func (s *Session) Keys() []string {
	return slices.Sorted(maps.Keys(s.data.Values))
}

func (s *Session) Len() int { return len(s.data.Values) }

// Destroy marks the session for deletion. The store entry is removed and
// the cookie cleared on commit; later mutations are ignored.
func (s *Session) Destroy() {
	s.destroyed = true
}

// Regenerate assigns a fresh id, keeping payload and cookie metadata. The
// previously stored entry is deleted on commit. Calling it again only
// replaces the pending id.
func (s *Session) Regenerate() error {
	if s.destroyed {
		return nil
	}
	id, err := s.newID()
	if err != nil {
		return err
	}
	if !s.regenerated && !s.isNew {
		s.previousID = s.id
	}
	s.id = id
	s.regenerated = true
	s.modified = true
	return nil
}

// SetCookieExpires sets an absolute cookie expiry; nil makes it a browser
// session cookie.
func (s *Session) SetCookieExpires(t *time.Time) {
	if s.destroyed {
		return
	}
	s.data.Cookie.SetExpires(t, s.now())
	s.cookieSet = true
	s.modified = true
}

// SetCookieMaxAge sets the cookie lifetime relative to now.
func (s *Session) SetCookieMaxAge(d time.Duration) {
	if s.destroyed {
		return
	}
	s.data.Cookie.SetMaxAge(d, s.now())
	s.cookieSet = true
	s.modified = true
}

func (s *Session) SetCookieMaxAgeSeconds(seconds int64) {
	s.SetCookieMaxAge(time.Duration(seconds) * time.Second)
}

// Touch recomputes the cookie expiry from its original max age without
// marking the payload modified.
func (s *Session) Touch() {
	if s.destroyed {
		return
	}
	s.data.Cookie.Reset(s.now())
}

// Cookie returns a copy of the cookie metadata.
func (s *Session) Cookie() CookieMeta {
	return s.data.Clone().Cookie
}
