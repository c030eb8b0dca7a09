package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanCount is the COUNT hint used when iterating keys.
const scanCount = 100

// RedisStore keeps sessions as JSON strings in Redis, using native key
// expiry for ttls. Values are byte compatible with connect-redis.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing client. The caller owns the client and
// closes it.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Data, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return Unmarshal(raw)
}

func (s *RedisStore) Set(ctx context.Context, key string, data *Data, ttl time.Duration) error {
	raw, err := data.Marshal()
	if err != nil {
		return err
	}

	var expiration time.Duration
	if ttl > NoExpiry {
		expiration = ttl
	}

	if err := s.client.Set(ctx, key, raw, expiration).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Touch only resets the key's expiry. The stored cookie metadata keeps the
// values of the last Set, as connect-redis does.
func (s *RedisStore) Touch(ctx context.Context, key string, _ *Data, ttl time.Duration) error {
	var err error
	if ttl > NoExpiry {
		err = s.client.Expire(ctx, key, ttl).Err()
	} else {
		err = s.client.Persist(ctx, key).Err()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Destroy(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Len(ctx context.Context, prefix string) (int, error) {
	keys, err := s.Keys(ctx, prefix)
	return len(keys), err
}

// Keys iterates with SCAN so large keyspaces never block the server.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, escapeGlob(prefix)+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return keys, nil
}

// All skips entries that vanish or fail to parse between SCAN and GET.
// GETs are pipelined per key so the batch also works across cluster slots.
func (s *RedisStore) All(ctx context.Context, prefix string) (map[string]*Data, error) {
	keys, err := s.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	all := make(map[string]*Data, len(keys))
	for start := 0; start < len(keys); start += scanCount {
		batch := keys[start:min(start+scanCount, len(keys))]
		cmds := make([]*redis.StringCmd, len(batch))
		_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, key := range batch {
				cmds[i] = pipe.Get(ctx, key)
			}
			return nil
		})
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		for i, cmd := range cmds {
			raw, err := cmd.Bytes()
			if err != nil {
				continue
			}
			data, err := Unmarshal(raw)
			if err != nil {
				continue
			}
			all[batch[i]] = data
		}
	}
	return all, nil
}

func (s *RedisStore) Clear(ctx context.Context, prefix string) error {
	keys, err := s.Keys(ctx, prefix)
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += scanCount {
		batch := keys[start:min(start+scanCount, len(keys))]
		_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, key := range batch {
				pipe.Del(ctx, key)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	}
	return nil
}

// escapeGlob quotes the characters MATCH treats as patterns.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
