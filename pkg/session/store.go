package session

import (
	"context"
	"errors"

	"github.com/shopaiassist/containerapp/pkg/auth"
)

// ErrNotFound means no session exists for the given ID, either because it
// never existed or because it expired.
var ErrNotFound = errors.New("session not found")

// Store persists logged in users server side, keyed by opaque session ID.
// Entries expire after the session's absolute lifetime.
type Store interface {
	// Save stores the user under the given session ID.
	Save(ctx context.Context, sessionID string, user *auth.LoggedInUser) error

	// Get returns the user for the given session ID, or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*auth.LoggedInUser, error)

	// Delete removes the session. Deleting an absent session is not an
	// error.
	Delete(ctx context.Context, sessionID string) error

	// Close releases the store's resources.
	Close() error
}
