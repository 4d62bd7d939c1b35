package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-oauth2-provider/token"
)

func TestOpaqueMinter(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	m := token.NewOpaqueMinter(token.WithOpaqueNowFunc(func() time.Time { return now }))

	tok, err := m.Mint(context.Background(), token.MintSpec{
		ClientID: "client-1",
		Scope:    []string{"read"},
		Validity: time.Hour,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, tok.Value())
	assert.Equal(t, []string{"read"}, tok.Scope)
	require.NotNil(t, tok.Expiration)
	assert.Equal(t, now.Add(time.Hour), *tok.Expiration)

	other, err := m.Mint(context.Background(), token.MintSpec{ClientID: "client-1"})
	require.NoError(t, err)
	assert.NotEqual(t, tok.Value(), other.Value())
	assert.Nil(t, other.Expiration, "zero validity means no expiration")
}

func TestJWTMinterClaims(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	signer := token.NewHMACSigner("jwt-minter-test-secret")
	m, err := token.NewJWTMinter(signer, "test-issuer",
		token.WithAudience("test-api"),
		token.WithNowFunc(func() time.Time { return now }))
	require.NoError(t, err)

	tok, err := m.Mint(context.Background(), token.MintSpec{
		ClientID: "client-1",
		UserName: "john.doe",
		Scope:    []string{"write", "read"},
		Validity: time.Hour,
	})
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tok.Value(), claims, signer.GetVerificationKey,
		jwt.WithTimeFunc(func() time.Time { return now }))
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	assert.Equal(t, "test-issuer", claims["iss"])
	assert.Equal(t, "john.doe", claims["sub"])
	assert.Equal(t, "client-1", claims["client_id"])
	assert.Equal(t, "test-api", claims["aud"])
	assert.Equal(t, "read write", claims["scope"])
	assert.NotEmpty(t, claims["jti"])
	assert.EqualValues(t, now.Add(time.Hour).Unix(), claims["exp"])
}

func TestJWTMinterClientOnlySubject(t *testing.T) {
	signer := token.NewHMACSigner("jwt-minter-test-secret")
	m, err := token.NewJWTMinter(signer, "test-issuer")
	require.NoError(t, err)

	tok, err := m.Mint(context.Background(), token.MintSpec{ClientID: "client-1"})
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(tok.Value(), claims, signer.GetVerificationKey)
	require.NoError(t, err)
	assert.Equal(t, "client-1", claims["sub"])
}

func TestJWTMinterRequiresSigner(t *testing.T) {
	_, err := token.NewJWTMinter(nil, "test-issuer")
	assert.Error(t, err)
}

func TestSignerRejectsWrongAlgorithm(t *testing.T) {
	hmacSigner := token.NewHMACSigner("jwt-minter-test-secret")
	value, err := hmacSigner.Sign(jwt.MapClaims{"sub": "x"})
	require.NoError(t, err)

	// A token signed with HMAC must not pass RSA verification paths and
	// vice versa; here the HMAC verifier refuses an alg mismatch.
	rsaToken := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"})
	unsigned, err := rsaToken.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, parseErr := jwt.Parse(unsigned, hmacSigner.GetVerificationKey)
	assert.Error(t, parseErr)

	_, parseErr = jwt.Parse(value, hmacSigner.GetVerificationKey)
	assert.NoError(t, parseErr)
}

func TestNewRefreshTokenValue(t *testing.T) {
	first, err := token.NewRefreshTokenValue()
	require.NoError(t, err)
	second, err := token.NewRefreshTokenValue()
	require.NoError(t, err)

	assert.Len(t, first, 64)
	assert.NotEqual(t, first, second)
}
