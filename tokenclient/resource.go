// Package tokenclient acquires access tokens from a provider's token
// endpoint. It performs a single authenticated request/response exchange
// and reconstructs either a token or a typed OAuth error from the body.
package tokenclient

import (
	"fmt"
	"net/http"
)

// AuthStyle selects how client credentials travel on the token request.
type AuthStyle int

const (
	// AuthStyleHeader sends credentials in an Authorization Basic header.
	AuthStyleHeader AuthStyle = iota

	// AuthStyleForm sends client_id and client_secret as form fields.
	AuthStyleForm
)

// ResourceDetails describes one protected resource's token endpoint and
// the credentials used to obtain tokens for it.
type ResourceDetails struct {
	ID             string
	AccessTokenURI string
	ClientID       string
	ClientSecret   string
	Scope          []string
	AuthStyle      AuthStyle

	// Method is http.MethodPost when empty. Some providers only accept
	// GET, in which case form fields travel as query parameters.
	Method string
}

// RequestMethod returns the HTTP method for the token call.
func (r *ResourceDetails) RequestMethod() string {
	if r.Method == "" {
		return http.MethodPost
	}
	return r.Method
}

// AccessDeniedError wraps every token acquisition failure, whether the
// provider refused the request or the network call itself failed. The
// two cases are distinguished by inspecting the cause chain.
type AccessDeniedError struct {
	Resource *ResourceDetails
	Err      error
}

func (e *AccessDeniedError) Error() string {
	resource := "unknown resource"
	if e.Resource != nil && e.Resource.ID != "" {
		resource = e.Resource.ID
	}
	return fmt.Sprintf("access token request failed for %s: %v", resource, e.Err)
}

func (e *AccessDeniedError) Unwrap() error {
	return e.Err
}
