package session

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	data      *Data
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryStore keeps sessions in process memory. Expired entries are removed
// lazily on read, by DeleteExpired, or by the optional cleanup loop.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	now      func() time.Time
	ticker   *time.Ticker
	done     chan struct{}
	once     sync.Once
}

// NewMemoryStore creates an in-memory store. A positive cleanupInterval
// starts a background sweep that runs until Close.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	store := &MemoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
		done:     make(chan struct{}),
	}

	if cleanupInterval > 0 {
		store.ticker = time.NewTicker(cleanupInterval)
		go store.cleanupLoop()
	}

	return store
}

// Get returns a copy of the stored data.
func (m *MemoryStore) Get(ctx context.Context, key string) (*Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeUnavailable(err)
	}

	m.mu.RLock()
	entry, exists := m.sessions[key]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrNotFound
	}

	if entry.expired(m.now()) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have replaced it.
		if current, ok := m.sessions[key]; ok && current.expired(m.now()) {
			delete(m.sessions, key)
		}
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	return entry.data.Clone(), nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, data *Data, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return storeUnavailable(err)
	}

	entry := memoryEntry{data: data.Clone()}
	if ttl > NoExpiry {
		entry.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.sessions[key] = entry
	m.mu.Unlock()
	return nil
}

// Touch updates the expiry and cookie metadata, leaving the payload as is.
func (m *MemoryStore) Touch(ctx context.Context, key string, data *Data, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return storeUnavailable(err)
	}

	now := m.now()
	cookie := data.Clone().Cookie

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.sessions[key]
	if !exists || entry.expired(now) {
		return nil
	}

	entry.data = entry.data.Clone()
	entry.data.Cookie = cookie
	entry.expiresAt = time.Time{}
	if ttl > NoExpiry {
		entry.expiresAt = now.Add(ttl)
	}
	m.sessions[key] = entry
	return nil
}

func (m *MemoryStore) Destroy(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return storeUnavailable(err)
	}

	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()
	return nil
}

// DeleteExpired removes all expired sessions.
func (m *MemoryStore) DeleteExpired(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, entry := range m.sessions {
		if entry.expired(now) {
			delete(m.sessions, key)
		}
	}

	return nil
}

func (m *MemoryStore) Len(ctx context.Context, prefix string) (int, error) {
	keys, err := m.Keys(ctx, prefix)
	return len(keys), err
}

func (m *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	keys := make([]string, 0, len(m.sessions))
	for key, entry := range m.sessions {
		if strings.HasPrefix(key, prefix) && !entry.expired(now) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *MemoryStore) All(ctx context.Context, prefix string) (map[string]*Data, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	all := make(map[string]*Data)
	for key, entry := range m.sessions {
		if strings.HasPrefix(key, prefix) && !entry.expired(now) {
			all[key] = entry.data.Clone()
		}
	}
	return all, nil
}

func (m *MemoryStore) Clear(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.sessions {
		if strings.HasPrefix(key, prefix) {
			delete(m.sessions, key)
		}
	}
	return nil
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (m *MemoryStore) Close() error {
	m.once.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.done)
	})
	return nil
}

// cleanupLoop runs periodic cleanup of expired sessions
func (m *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-m.ticker.C:
			_ = m.DeleteExpired(context.Background())
		case <-m.done:
			return
		}
	}
}
