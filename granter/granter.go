// Package granter dispatches OAuth2 token grants to pluggable
// grant-type handlers and implements the standard grants. Handlers
// validate client credentials and grant parameters themselves; the
// dispatcher does no post-processing of a minted token.
package granter

import (
	"context"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-oauth2-provider/clients"
	"github.com/jrsteele09/go-oauth2-provider/oauthmodel"
)

// TokenGranter grants an access token for one grant type. Failures are
// *oauthmodel.Error values from the protocol taxonomy.
type TokenGranter interface {
	Grant(ctx context.Context, grantType string, params map[string]string, clientID, clientSecret string, scope []string) (*oauthmodel.AccessToken, error)
}

// Dispatcher routes a grant to the handler registered for its grant
// type. An unregistered grant type is a typed unsupported_grant_type
// failure, never a nil token.
type Dispatcher struct {
	granters map[string]TokenGranter
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{granters: make(map[string]TokenGranter)}
}

// Register binds a handler to a grant type. Double registration is a
// configuration error and fails eagerly.
func (d *Dispatcher) Register(grantType string, g TokenGranter) error {
	if grantType == "" {
		return errors.New("[Dispatcher.Register] grant type is required")
	}
	if g == nil {
		return errors.New("[Dispatcher.Register] granter is required")
	}
	if _, exists := d.granters[grantType]; exists {
		return errors.Errorf("[Dispatcher.Register] grant type %q already registered", grantType)
	}
	d.granters[grantType] = g
	return nil
}

func (d *Dispatcher) Grant(ctx context.Context, grantType string, params map[string]string, clientID, clientSecret string, scope []string) (*oauthmodel.AccessToken, error) {
	g, ok := d.granters[grantType]
	if !ok {
		return nil, oauthmodel.NewUnsupportedGrantType(grantType)
	}
	return g.Grant(ctx, grantType, params, clientID, clientSecret, scope)
}

// clientAuthenticator is the credential and grant-type check shared by
// every concrete granter.
type clientAuthenticator struct {
	repo clients.Repo
}

func (a clientAuthenticator) authenticate(ctx context.Context, clientID, clientSecret, grantType string) (*clients.Client, error) {
	if clientID == "" {
		return nil, oauthmodel.NewInvalidClient("no client id supplied")
	}
	client, err := a.repo.Get(ctx, clientID)
	if err != nil {
		return nil, oauthmodel.NewInvalidClient("unknown client")
	}
	if !client.CheckSecret(clientSecret) {
		return nil, oauthmodel.NewInvalidClient("bad client credentials")
	}
	if !client.AllowsGrantType(grantType) {
		return nil, oauthmodel.NewUnauthorizedClient("client is not authorized for grant type: " + grantType)
	}
	return client, nil
}

// narrowScope resolves the granted scope: the client's full allowance
// when nothing was requested, otherwise the validated request.
func narrowScope(client *clients.Client, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return client.Scopes, nil
	}
	if err := client.ValidateScopes(requested); err != nil {
		return nil, err
	}
	return requested, nil
}
