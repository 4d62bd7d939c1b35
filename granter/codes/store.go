// Package codes stores single-use authorization codes. A code is valid
// for exactly one redemption: Redeem atomically loads and invalidates it,
// so of any number of concurrent redeemers exactly one succeeds.
package codes

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for unknown, expired, or already redeemed
// codes. Callers translate it to an invalid_grant protocol error.
var ErrNotFound = errors.New("authorization code not found")

// Authorization is the payload bound to a code at issue time and handed
// back on redemption.
type Authorization struct {
	ClientID        string    `json:"clientId"`
	RedirectURI     string    `json:"redirectUri"`
	Scope           []string  `json:"scope"`
	UserName        string    `json:"userName"`
	UserAuthorities []string  `json:"userAuthorities"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

type Store interface {
	Save(ctx context.Context, code string, auth *Authorization) error

	// Redeem returns the stored authorization and deletes it in one
	// atomic step.
	Redeem(ctx context.Context, code string) (*Authorization, error)
}
