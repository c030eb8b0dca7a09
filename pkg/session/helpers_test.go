package session_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

var errConnRefused = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

// recordingStore wraps a Store and records every call as "op:key".
type recordingStore struct {
	session.Store

	mu    sync.Mutex
	calls []string
}

func newRecordingStore(inner session.Store) *recordingStore {
	return &recordingStore{Store: inner}
}

func (s *recordingStore) record(op, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op+":"+key)
}

func (s *recordingStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *recordingStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *recordingStore) Get(ctx context.Context, key string) (*session.Data, error) {
	s.record("get", key)
	return s.Store.Get(ctx, key)
}

func (s *recordingStore) Set(ctx context.Context, key string, data *session.Data, ttl time.Duration) error {
	s.record("set", key)
	return s.Store.Set(ctx, key, data, ttl)
}

func (s *recordingStore) Touch(ctx context.Context, key string, data *session.Data, ttl time.Duration) error {
	s.record("touch", key)
	return s.Store.Touch(ctx, key, data, ttl)
}

func (s *recordingStore) Destroy(ctx context.Context, key string) error {
	s.record("destroy", key)
	return s.Store.Destroy(ctx, key)
}

// failingStore fails the selected operations with a transport error.
type failingStore struct {
	session.Store
	failGet, failWrite bool
}

func (s *failingStore) Get(ctx context.Context, key string) (*session.Data, error) {
	if s.failGet {
		return nil, errConnRefused
	}
	return s.Store.Get(ctx, key)
}

func (s *failingStore) Set(ctx context.Context, key string, data *session.Data, ttl time.Duration) error {
	if s.failWrite {
		return errConnRefused
	}
	return s.Store.Set(ctx, key, data, ttl)
}

func (s *failingStore) Destroy(ctx context.Context, key string) error {
	if s.failWrite {
		return errConnRefused
	}
	return s.Store.Destroy(ctx, key)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sequentialIDs returns "id-1", "id-2", ...
func sequentialIDs() session.IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n), nil
	}
}

func testConfig(secrets ...string) session.Config {
	cfg := session.DefaultConfig()
	if len(secrets) == 0 {
		secrets = []string{"keyboard cat"}
	}
	cfg.Secrets = secrets
	return cfg
}

func newManager(t *testing.T, cfg session.Config, opts ...session.Option) *session.Manager {
	t.Helper()
	mgr, err := session.New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

// responseCookie returns the Set-Cookie entry named name, or nil.
func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// cookieID verifies a response cookie and returns the session id it carries.
func cookieID(t *testing.T, c *http.Cookie, secrets ...string) string {
	t.Helper()
	require.NotNil(t, c, "expected a session cookie")
	raw, err := url.PathUnescape(c.Value)
	require.NoError(t, err)
	id, err := cookie.Unsign(raw, secrets...)
	require.NoError(t, err)
	return id
}

// requestWith builds a request carrying c, if non-nil.
func requestWith(c *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if c != nil {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return req
}

// signedCookie builds the cookie a client would send for id.
func signedCookie(name, id, secret string) *http.Cookie {
	return &http.Cookie{Name: name, Value: url.QueryEscape(cookie.Sign(id, secret))}
}
