// Package token mints access token values for the granters. Minting is
// policy-free: the granter decides validity and scope, the minter only
// produces the value and sets the expiration derived from the spec.
package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-oauth2-provider/oauthmodel"
)

// MintSpec describes the token a granter wants issued.
type MintSpec struct {
	ClientID string
	UserName string   // Empty for client-only grants
	Scope    []string // Granted scope, copied onto the token
	Validity time.Duration
}

// Minter produces new access tokens.
type Minter interface {
	Mint(ctx context.Context, spec MintSpec) (*oauthmodel.AccessToken, error)
}

// NewRefreshTokenValue produces an opaque 256-bit refresh token string.
func NewRefreshTokenValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "[token.NewRefreshTokenValue] rand.Read")
	}
	return hex.EncodeToString(buf), nil
}

// OpaqueMinter issues random opaque token values.
type OpaqueMinter struct {
	nowFunc func() time.Time
}

type OpaqueMinterOption func(*OpaqueMinter)

func WithOpaqueNowFunc(now func() time.Time) OpaqueMinterOption {
	return func(m *OpaqueMinter) { m.nowFunc = now }
}

func NewOpaqueMinter(options ...OpaqueMinterOption) *OpaqueMinter {
	m := &OpaqueMinter{nowFunc: time.Now}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *OpaqueMinter) Mint(_ context.Context, spec MintSpec) (*oauthmodel.AccessToken, error) {
	tok := oauthmodel.NewAccessToken(uuid.New().String())
	if spec.Validity > 0 {
		exp := m.nowFunc().Add(spec.Validity)
		tok.Expiration = &exp
	}
	tok.Scope = spec.Scope
	return tok, nil
}

// JWTMinter issues signed JWT token values so resource servers can verify
// tokens without a callback to the issuer.
type JWTMinter struct {
	signer   Signer
	issuer   string
	audience string
	nowFunc  func() time.Time
}

type JWTMinterOption func(*JWTMinter)

func WithAudience(audience string) JWTMinterOption {
	return func(m *JWTMinter) { m.audience = audience }
}

func WithNowFunc(now func() time.Time) JWTMinterOption {
	return func(m *JWTMinter) { m.nowFunc = now }
}

func NewJWTMinter(signer Signer, issuer string, options ...JWTMinterOption) (*JWTMinter, error) {
	if signer == nil {
		return nil, errors.New("[NewJWTMinter] signer is required")
	}
	m := &JWTMinter{signer: signer, issuer: issuer, nowFunc: time.Now}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

func (m *JWTMinter) Mint(_ context.Context, spec MintSpec) (*oauthmodel.AccessToken, error) {
	now := m.nowFunc()
	sub := spec.ClientID
	if spec.UserName != "" {
		sub = spec.UserName
	}

	claims := jwt.MapClaims{
		"iss":       m.issuer,
		"sub":       sub,
		"client_id": spec.ClientID,
		"iat":       now.Unix(),
		"jti":       uuid.New().String(),
		"scope":     oauthmodel.FormatScope(spec.Scope),
	}
	if m.audience != "" {
		claims["aud"] = m.audience
	}
	if spec.Validity > 0 {
		claims["exp"] = now.Add(spec.Validity).Unix()
	}

	value, err := m.signer.Sign(claims)
	if err != nil {
		return nil, errors.Wrap(err, "[JWTMinter.Mint] Sign")
	}

	tok := oauthmodel.NewAccessToken(value)
	if spec.Validity > 0 {
		exp := now.Add(spec.Validity)
		tok.Expiration = &exp
	}
	tok.Scope = spec.Scope
	return tok, nil
}
