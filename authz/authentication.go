// Package authz models the dual-principal OAuth2 security context and the
// boolean authorization predicates evaluated against it by method-level
// guards.
package authz

import (
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-oauth2-provider/clients"
)

// Authentication is a minimal authenticated principal. Plain (non-OAuth2)
// authentications satisfy it directly; OAuth2 contexts wrap one or two of
// them.
type Authentication interface {
	Name() string
	Authorities() []string
	Authenticated() bool
}

// UserAuthentication is a basic principal with a name and granted
// authorities.
type UserAuthentication struct {
	name        string
	authorities []string
}

func NewUserAuthentication(name string, authorities ...string) *UserAuthentication {
	return &UserAuthentication{name: name, authorities: authorities}
}

func (u *UserAuthentication) Name() string          { return u.name }
func (u *UserAuthentication) Authorities() []string { return u.authorities }
func (u *UserAuthentication) Authenticated() bool   { return true }

// AuthorizationRequest captures what a client asked for and whether the
// resource owner (or policy) approved it. Approved defaults to false; an
// unapproved request denies all scope checks.
type AuthorizationRequest struct {
	ClientID string
	Scope    []string
	Approved bool

	// Client carries the registered details when known. Authorities come
	// from here.
	Client *clients.Client
}

func NewAuthorizationRequest(clientID string, scope ...string) *AuthorizationRequest {
	return &AuthorizationRequest{ClientID: clientID, Scope: scope}
}

func (r *AuthorizationRequest) Name() string { return r.ClientID }

func (r *AuthorizationRequest) Authorities() []string {
	if r.Client == nil {
		return nil
	}
	return r.Client.Authorities
}

func (r *AuthorizationRequest) Authenticated() bool { return true }

// OAuth2Authentication composes the client authentication (always present)
// with an optional resource-owner authentication. A user without a client
// is not a valid state.
type OAuth2Authentication struct {
	request *AuthorizationRequest
	user    Authentication
}

// NewOAuth2Authentication builds the security context root for a grant.
// Pass a nil user for client-only (machine to machine) grants.
func NewOAuth2Authentication(request *AuthorizationRequest, user Authentication) (*OAuth2Authentication, error) {
	if request == nil {
		return nil, errors.New("[NewOAuth2Authentication] authorization request is required")
	}
	return &OAuth2Authentication{request: request, user: user}, nil
}

// Request returns the client-side authorization request.
func (a *OAuth2Authentication) Request() *AuthorizationRequest { return a.request }

// User returns the resource-owner authentication, nil for client-only
// contexts.
func (a *OAuth2Authentication) User() Authentication { return a.user }

// IsClientOnly reports whether no resource owner is attached.
func (a *OAuth2Authentication) IsClientOnly() bool { return a.user == nil }

func (a *OAuth2Authentication) Name() string {
	if a.user != nil {
		return a.user.Name()
	}
	return a.request.Name()
}

// Authorities returns the resource owner's authorities when a user is
// present, otherwise the client's.
func (a *OAuth2Authentication) Authorities() []string {
	if a.user != nil {
		return a.user.Authorities()
	}
	return a.request.Authorities()
}

func (a *OAuth2Authentication) Authenticated() bool { return true }
