package oauthmodel

import (
	"sort"
	"strings"
	"time"
)

// Token type and parameter constants from the OAuth2 spec.
const (
	BearerType = "bearer"

	// Grant types understood by the granter dispatch.
	GrantAuthorizationCode = "authorization_code"
	GrantClientCredentials = "client_credentials"
	GrantRefreshToken      = "refresh_token"
	GrantPassword          = "password"

	// Well known form parameter names.
	ParamGrantType    = "grant_type"
	ParamScope        = "scope"
	ParamCode         = "code"
	ParamRedirectURI  = "redirect_uri"
	ParamRefreshToken = "refresh_token"
	ParamUsername     = "username"
	ParamPassword     = "password"
	ParamClientID     = "client_id"
	ParamClientSecret = "client_secret"
)

// AccessToken is the token handed to a client after a successful grant.
// The value is fixed at construction; everything else is set by the
// granting policy before the token leaves the granter.
type AccessToken struct {
	value string

	// Expiration is the absolute instant the token expires. Nil means the
	// token does not expire (and expires_in is omitted on the wire).
	Expiration *time.Time

	// TokenType defaults to "bearer".
	TokenType string

	// RefreshToken is optional.
	RefreshToken *RefreshToken

	// Scope holds the granted scopes. Order is irrelevant.
	Scope []string
}

// NewAccessToken creates a bearer token with the given opaque value.
func NewAccessToken(value string) *AccessToken {
	return &AccessToken{value: value, TokenType: BearerType}
}

// Value returns the opaque token value.
func (t *AccessToken) Value() string {
	return t.value
}

// ExpiresIn returns the remaining lifetime in whole seconds, never
// negative. Zero when no expiration is set.
func (t *AccessToken) ExpiresIn(now time.Time) int {
	if t.Expiration == nil {
		return 0
	}
	secs := int(t.Expiration.Sub(now).Round(time.Second) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// Expired reports whether the expiration instant has passed.
func (t *AccessToken) Expired(now time.Time) bool {
	return t.Expiration != nil && t.Expiration.Before(now)
}

// Equal compares tokens by value only.
func (t *AccessToken) Equal(other *AccessToken) bool {
	return other != nil && t.value == other.value
}

func (t *AccessToken) String() string {
	return t.value
}

// RefreshToken is an opaque credential used to obtain a replacement access
// token. Rotation semantics live in the refresh store, not here.
type RefreshToken struct {
	Value string
}

// ExpiringRefreshToken is a refresh token that carries its own expiration.
type ExpiringRefreshToken struct {
	RefreshToken
	Expiration time.Time
}

// ParseScope splits a space-delimited scope string into a slice, dropping
// empty entries. Returns nil for a blank input.
func ParseScope(raw string) []string {
	return splitScope(raw, func(r rune) bool { return r == ' ' })
}

// ParseScopeLenient additionally accepts commas as separators, for
// providers that deviate from the spec.
func ParseScopeLenient(raw string) []string {
	return splitScope(raw, func(r rune) bool { return r == ' ' || r == ',' })
}

func splitScope(raw string, isSep func(rune) bool) []string {
	fields := strings.FieldsFunc(raw, isSep)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// FormatScope joins scopes with spaces in sorted order so serialized
// output is stable regardless of insertion order.
func FormatScope(scope []string) string {
	sorted := make([]string, len(scope))
	copy(sorted, scope)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

// ScopeContainsAny reports whether granted and wanted intersect.
func ScopeContainsAny(granted, wanted []string) bool {
	for _, w := range wanted {
		for _, g := range granted {
			if g == w {
				return true
			}
		}
	}
	return false
}
