// Package credstore persists the client's access token across invocations.
package credstore

import (
	"context"
	"errors"

	"github.com/emplo-ai/emplo/internal/core/domain"
)

var (
	// ErrNoToken is returned when no token is stored.
	ErrNoToken = errors.New("credstore: no token")

	// ErrNoIdentity is returned when no identity snapshot is stored.
	ErrNoIdentity = errors.New("credstore: no cached identity")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("credstore: closed")
)

// Store holds at most one access token and one cached identity snapshot.
//
// The session store is the only writer. Implementations must be safe for
// concurrent use.
type Store interface {
	// Token returns the stored token or ErrNoToken.
	Token(ctx context.Context) (string, error)

	// SetToken replaces the stored token.
	SetToken(ctx context.Context, token string) error

	// ClearToken removes the token together with the cached identity.
	// Clearing an empty store is not an error.
	ClearToken(ctx context.Context) error

	// CachedIdentity returns the identity snapshot or ErrNoIdentity.
	// The snapshot is informational; the session store's copy is authoritative.
	CachedIdentity(ctx context.Context) (domain.Identity, error)

	// SetCachedIdentity replaces the identity snapshot.
	SetCachedIdentity(ctx context.Context, id domain.Identity) error

	// Close releases underlying resources.
	Close() error
}

// Keys used by persistent implementations.
var (
	keyToken    = []byte("emplo/token")
	keyIdentity = []byte("emplo/identity")
)
