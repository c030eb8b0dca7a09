package session_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// MockStore is a mock implementation of session.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, key string) (*session.Data, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Data), args.Error(1)
}

func (m *MockStore) Set(ctx context.Context, key string, data *session.Data, ttl time.Duration) error {
	args := m.Called(ctx, key, data, ttl)
	return args.Error(0)
}

func (m *MockStore) Touch(ctx context.Context, key string, data *session.Data, ttl time.Duration) error {
	args := m.Called(ctx, key, data, ttl)
	return args.Error(0)
}

func (m *MockStore) Destroy(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
