package session

import (
	"context"
	"time"
)

// NoExpiry passed as a ttl asks the store to keep the entry until it is
// destroyed.
const NoExpiry time.Duration = 0

// Store persists session data by key. Implementations must be safe for
// concurrent use; concurrent writes to the same key are last-writer-wins.
type Store interface {
	// Get returns ErrNotFound when the key is missing or expired, and an
	// error matching ErrStoreUnavailable on backend failures.
	Get(ctx context.Context, key string) (*Data, error)

	// Set upserts data. A ttl of NoExpiry keeps the entry forever.
	Set(ctx context.Context, key string, data *Data, ttl time.Duration) error

	// Touch refreshes the ttl and cookie metadata of an existing entry.
	// Backends may skip rewriting the payload. Touching a missing key is
	// not an error and must not create it.
	Touch(ctx context.Context, key string, data *Data, ttl time.Duration) error

	// Destroy deletes the key. Missing keys are not an error.
	Destroy(ctx context.Context, key string) error
}

// Lister is implemented by stores that can enumerate their entries. Every
// method is scoped to keys starting with prefix.
type Lister interface {
	Len(ctx context.Context, prefix string) (int, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
	All(ctx context.Context, prefix string) (map[string]*Data, error)
	Clear(ctx context.Context, prefix string) error
}
