package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// ErrorHandler receives degraded reads and failed writes. It must not write
// to the response.
type ErrorHandler func(ctx context.Context, err error)

// Manager loads and commits sessions for HTTP requests. It holds no
// per-request state and is safe for concurrent use.
type Manager struct {
	config       Config
	store        Store
	ownsStore    bool
	cookies      *cookie.Manager
	sameSite     http.SameSite
	logger       *slog.Logger
	errorHandler ErrorHandler
	newID        IDGenerator
	now          func() time.Time
}

// New validates cfg and builds a Manager. Without WithStore sessions are
// kept in a MemoryStore owned by the Manager and released by Close.
func New(cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Secrets = cfg.signingSecrets()
	cfg.CookieSameSite = strings.ToLower(cfg.CookieSameSite)
	sameSite, _ := parseSameSite(cfg.CookieSameSite)

	m := &Manager{
		config:   cfg,
		sameSite: sameSite,
		logger:   slog.New(slog.DiscardHandler),
		newID:    GenerateID,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore(0)
		m.ownsStore = true
	}

	if m.cookies == nil {
		cookies, err := cookie.New(cfg.Secrets,
			cookie.WithPath(cfg.CookiePath),
			cookie.WithDomain(cfg.CookieDomain),
			cookie.WithSecure(cfg.CookieSecure),
			cookie.WithHTTPOnly(cfg.CookieHTTPOnly),
			cookie.WithSameSite(sameSite),
		)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfiguration, err)
		}
		m.cookies = cookies
	}

	m.logger = m.logger.With(logger.Component("session"))

	return m, nil
}

// Config returns a copy of the validated configuration.
func (m *Manager) Config() Config {
	cfg := m.config
	cfg.Secrets = slices.Clone(cfg.Secrets)
	return cfg
}

// Key returns the store key for a session id.
func (m *Manager) Key(id string) string {
	return m.config.StorePrefix + id
}

// Load resolves the request's session. It never fails: a missing or forged
// cookie, a store miss or a store failure all yield a fresh session, and
// failures are exposed through Session.LoadError and the error handler.
func (m *Manager) Load(r *http.Request) *Session {
	ctx := r.Context()

	id, err := m.cookies.GetSigned(r, m.config.CookieName)
	if err != nil {
		if !errors.Is(err, cookie.ErrCookieNotFound) {
			m.logger.DebugContext(ctx, "session cookie rejected", logger.Error(err))
		}
		return m.fresh(ctx, nil)
	}

	key := m.Key(id)
	data, err := m.store.Get(ctx, key)
	switch {
	case err == nil:
		return m.newSession(id, data, false, nil)
	case errors.Is(err, ErrNotFound):
		return m.fresh(ctx, nil)
	default:
		err = storeUnavailable(err)
		m.logger.WarnContext(ctx, "session load failed, starting fresh",
			logger.StoreKey(key),
			logger.Error(err),
		)
		m.reportError(ctx, err)
		return m.fresh(ctx, err)
	}
}

// Commit applies the session lifecycle policy to the store and the
// response headers. It must run before the response header is written.
// Calling it more than once for the same session is a no-op. Returned
// errors match ErrStoreUnavailable when persistence failed.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s == nil || s.committed {
		return nil
	}
	s.committed = true

	var errs []error

	if s.regenerated && s.previousID != "" {
		if err := m.destroy(ctx, s.previousID); err != nil {
			errs = append(errs, err)
		}
	}

	switch {
	case s.destroyed:
		if !s.isNew && !s.regenerated {
			if err := m.destroy(ctx, s.id); err != nil {
				errs = append(errs, err)
			}
		}
		m.clearCookie(w, s)

	case s.isNew && s.Len() == 0 && !m.config.SaveUninitialized:
		// Never persist or announce an empty session.

	case s.modified || s.isNew || m.config.Resave:
		if err := m.persist(ctx, w, s, true); err != nil {
			errs = append(errs, err)
		}

	case m.config.Rolling:
		if err := m.persist(ctx, w, s, false); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		m.reportError(ctx, err)
	}
	return err
}

// persist writes (or touches) the session and emits its cookie. A cookie
// that has already expired destroys the entry instead.
func (m *Manager) persist(ctx context.Context, w http.ResponseWriter, s *Session, write bool) error {
	if s.id == "" {
		return s.loadErr
	}

	now := m.now()
	if !s.cookieSet {
		s.data.Cookie.Reset(now)
	}

	key := m.Key(s.id)
	ttl, alive := m.ttl(s.data.Cookie, now)
	if !alive {
		m.clearCookie(w, s)
		return m.destroy(ctx, s.id)
	}

	var err error
	if write {
		err = m.store.Set(ctx, key, s.data, ttl)
	} else {
		err = m.store.Touch(ctx, key, s.data, ttl)
	}
	if err != nil {
		err = storeUnavailable(err)
		m.logger.ErrorContext(ctx, "session save failed",
			logger.StoreKey(key),
			logger.Error(err),
		)
		return err
	}

	return m.setCookie(w, s)
}

// ttl derives the store ttl in whole seconds, rounding up. alive is false
// when the cookie has already expired.
func (m *Manager) ttl(meta CookieMeta, now time.Time) (ttl time.Duration, alive bool) {
	if meta.Expires != nil {
		left := meta.Expires.Sub(now)
		if left <= 0 {
			return 0, false
		}
		return ceilSeconds(left), true
	}
	if d := m.config.MaxAgeDuration(); d > 0 {
		return ceilSeconds(d), true
	}
	return NoExpiry, true
}

func (m *Manager) destroy(ctx context.Context, id string) error {
	key := m.Key(id)
	if err := m.store.Destroy(ctx, key); err != nil {
		err = storeUnavailable(err)
		m.logger.ErrorContext(ctx, "session destroy failed",
			logger.StoreKey(key),
			logger.Error(err),
		)
		return err
	}
	return nil
}

func (m *Manager) setCookie(w http.ResponseWriter, s *Session) error {
	meta := s.data.Cookie
	opts := m.cookieOptions(meta)
	if meta.Expires != nil {
		opts = append(opts, cookie.WithExpires(*meta.Expires))
	}
	return m.cookies.SetSigned(w, m.config.CookieName, s.id, opts...)
}

func (m *Manager) clearCookie(w http.ResponseWriter, s *Session) {
	m.cookies.Delete(w, m.config.CookieName, m.cookieOptions(s.data.Cookie)...)
}

func (m *Manager) cookieOptions(meta CookieMeta) []cookie.Option {
	sameSite := m.sameSite
	if meta.SameSite != "" {
		if parsed, err := parseSameSite(meta.SameSite); err == nil {
			sameSite = parsed
		}
	}
	return []cookie.Option{
		cookie.WithPath(meta.Path),
		cookie.WithDomain(meta.Domain),
		cookie.WithSecure(meta.Secure),
		cookie.WithHTTPOnly(meta.HTTPOnly),
		cookie.WithSameSite(sameSite),
	}
}

func (m *Manager) fresh(ctx context.Context, loadErr error) *Session {
	id, err := m.newID()
	if err != nil {
		m.logger.ErrorContext(ctx, "session id generation failed", logger.Error(err))
		loadErr = errors.Join(loadErr, ErrIDGeneration, err)
		id = ""
	}
	return m.newSession(id, NewData(m.defaultCookie()), true, loadErr)
}

func (m *Manager) newSession(id string, data *Data, isNew bool, loadErr error) *Session {
	if data.Values == nil {
		data.Values = make(map[string]Value)
	}
	return &Session{
		id:      id,
		data:    data,
		isNew:   isNew,
		loadErr: loadErr,
		now:     m.now,
		newID:   m.newID,
	}
}

func (m *Manager) defaultCookie() CookieMeta {
	meta := CookieMeta{
		Secure:   m.config.CookieSecure,
		HTTPOnly: m.config.CookieHTTPOnly,
		Path:     m.config.CookiePath,
		Domain:   m.config.CookieDomain,
	}
	// Lax is what browsers apply to cookies without the attribute, so the
	// envelope leaves it unset like the cookie module's default does. The
	// header still carries the configured mode.
	if m.config.CookieSameSite != "lax" {
		meta.SameSite = m.config.CookieSameSite
	}
	if !m.config.BrowserSession {
		meta.SetMaxAge(m.config.MaxAgeDuration(), m.now())
	}
	return meta
}

func (m *Manager) reportError(ctx context.Context, err error) {
	if m.errorHandler != nil {
		m.errorHandler(ctx, err)
	}
}

// Close releases the store when the Manager created it.
func (m *Manager) Close() error {
	if !m.ownsStore {
		return nil
	}
	if c, ok := m.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func ceilSeconds(d time.Duration) time.Duration {
	return ((d + time.Second - 1) / time.Second) * time.Second
}
