package authz

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-oauth2-provider/oauthmodel"
)

// ErrAccessDenied is the failure a guard raises when a required check does
// not hold. ErrInsufficientScope is the scope-specific variant; boolean
// combinators may treat it as a short-circuitable false while top-level
// evaluation still denies.
var (
	ErrAccessDenied      = errors.New("access denied")
	ErrInsufficientScope = fmt.Errorf("insufficient scope: %w", ErrAccessDenied)
)

// Invocation describes the guarded operation, for diagnostics only.
type Invocation struct {
	Target string
	Method string
}

// EvaluationContext binds one authentication and one invocation for a
// single evaluation. Contexts are cheap values built fresh per call and
// carry no state between evaluations; reusing a compiled Expression
// against a new context is always safe.
type EvaluationContext struct {
	auth       Authentication
	invocation Invocation
}

// NewEvaluationContext is a pure function of its arguments.
func NewEvaluationContext(auth Authentication, invocation Invocation) *EvaluationContext {
	return &EvaluationContext{auth: auth, invocation: invocation}
}

// Authentication returns the bound principal, which may be nil.
func (c *EvaluationContext) Authentication() Authentication { return c.auth }

// Invocation returns the bound operation descriptor.
func (c *EvaluationContext) Invocation() Invocation { return c.invocation }

func (c *EvaluationContext) oauth() (*OAuth2Authentication, bool) {
	oauth, ok := c.auth.(*OAuth2Authentication)
	return oauth, ok
}

// HasAnyScope reports whether the granted scope set intersects the wanted
// set. A context without an OAuth2 request yields an advisory false. When
// the scopes do not intersect and the request was never approved the
// check is a hard denial, not a false.
func (c *EvaluationContext) HasAnyScope(scopes ...string) (bool, error) {
	oauth, ok := c.oauth()
	if !ok {
		return false, nil
	}
	request := oauth.Request()
	if oauthmodel.ScopeContainsAny(request.Scope, scopes) {
		return true, nil
	}
	if !request.Approved {
		return false, errors.Wrapf(ErrInsufficientScope, "required scope %v for %s.%s",
			scopes, c.invocation.Target, c.invocation.Method)
	}
	return false, nil
}

// IsUser reports whether a resource-owner principal is present,
// distinguishing delegated-user grants from client-only grants.
func (c *EvaluationContext) IsUser() bool {
	oauth, ok := c.oauth()
	return ok && !oauth.IsClientOnly()
}

// IsClient reports whether the context is an OAuth2 context with no
// resource owner.
func (c *EvaluationContext) IsClient() bool {
	oauth, ok := c.oauth()
	return ok && oauth.IsClientOnly()
}

// ClientHasAnyRole intersects the client's authorities with the wanted
// roles. With no arguments it asks whether the client has any authority
// at all. A non-OAuth2 context is false, never vacuously true.
func (c *EvaluationContext) ClientHasAnyRole(roles ...string) bool {
	oauth, ok := c.oauth()
	if !ok {
		return false
	}
	clientAuthorities := oauth.Request().Authorities()
	if len(roles) == 0 {
		return len(clientAuthorities) > 0
	}
	for _, wanted := range roles {
		for _, have := range clientAuthorities {
			if have == wanted {
				return true
			}
		}
	}
	return false
}

// IsAuthenticated is the base, non-OAuth2 predicate. It evaluates
// unchanged against plain authentications.
func (c *EvaluationContext) IsAuthenticated() bool {
	return c.auth != nil && c.auth.Authenticated()
}
