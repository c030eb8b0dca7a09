package session

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithStore sets the session store. The caller keeps ownership of it.
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithLogger sets the logger for degraded reads and failed writes.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithErrorHandler registers a callback for load warnings and commit errors.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(m *Manager) {
		m.errorHandler = fn
	}
}

// WithIDGenerator replaces GenerateID.
func WithIDGenerator(fn IDGenerator) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithCookieManager replaces the cookie manager built from Config. Its
// secrets are used for signing and verification.
func WithCookieManager(cookieMgr *cookie.Manager) Option {
	return func(m *Manager) {
		m.cookies = cookieMgr
	}
}
