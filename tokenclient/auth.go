package tokenclient

import (
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-oauth2-provider/oauthmodel"
)

// AuthenticationHandler attaches client credentials to a token request
// before it is sent. Implementations may mutate the form body or the
// request headers.
type AuthenticationHandler interface {
	AuthenticateTokenRequest(res *ResourceDetails, form url.Values, header http.Header) error
}

// DefaultAuthenticationHandler applies the resource's AuthStyle: Basic
// auth on the Authorization header, or client_id/client_secret form
// fields.
type DefaultAuthenticationHandler struct{}

func (DefaultAuthenticationHandler) AuthenticateTokenRequest(res *ResourceDetails, form url.Values, header http.Header) error {
	if res.ClientID == "" {
		return errors.New("[DefaultAuthenticationHandler.AuthenticateTokenRequest] resource has no client id")
	}
	switch res.AuthStyle {
	case AuthStyleForm:
		form.Set(oauthmodel.ParamClientID, res.ClientID)
		form.Set(oauthmodel.ParamClientSecret, res.ClientSecret)
	default:
		req := http.Request{Header: header}
		req.SetBasicAuth(res.ClientID, res.ClientSecret)
	}
	return nil
}
