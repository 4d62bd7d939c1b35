// Package refresh stores server-side refresh token metadata. Tokens sent
// to clients are opaque random strings; this package keys the associated
// grant metadata by that string and enforces one-shot rotation.
package refresh

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for unknown or already rotated tokens.
var ErrNotFound = errors.New("refresh token not found")

// StoredRefreshToken is the server-side record behind an issued refresh
// token.
type StoredRefreshToken struct {
	Token           string    // The random token string sent to the client
	ClientID        string    // Client the token was issued to
	UserName        string    // Resource owner, empty for client-only grants
	UserAuthorities []string  // Resource owner authorities at issue time
	Scope           []string  // Original granted scope
	IssuedAt        time.Time // For expiry checks by the granter
}

// Store persists refresh tokens. Rotate is the single-use redemption
// point: it returns the stored record while deleting it atomically, so
// concurrent rotations of one token produce exactly one winner.
type Store interface {
	Save(ctx context.Context, token *StoredRefreshToken) error
	Rotate(ctx context.Context, token string) (*StoredRefreshToken, error)
	Delete(ctx context.Context, token string) error
}
