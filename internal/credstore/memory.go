package credstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/emplo-ai/emplo/internal/core/domain"
)

// Memory is an in-process Store. Nothing survives the process.
type Memory struct {
	mu       sync.RWMutex
	token    string
	identity *domain.Identity
	closed   bool
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Token returns the stored token.
func (m *Memory) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", ErrClosed
	}
	if m.token == "" {
		return "", ErrNoToken
	}
	return m.token, nil
}

// SetToken replaces the stored token.
func (m *Memory) SetToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if token == "" {
		return fmt.Errorf("credstore: empty token")
	}
	m.token = token
	return nil
}

// ClearToken removes the token and the cached identity.
func (m *Memory) ClearToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.token = ""
	m.identity = nil
	return nil
}

// CachedIdentity returns the identity snapshot.
func (m *Memory) CachedIdentity(ctx context.Context) (domain.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return domain.Identity{}, ErrClosed
	}
	if m.identity == nil {
		return domain.Identity{}, ErrNoIdentity
	}
	return *m.identity, nil
}

// SetCachedIdentity replaces the identity snapshot.
func (m *Memory) SetCachedIdentity(ctx context.Context, id domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.identity = &id
	return nil
}

// Close marks the store closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
