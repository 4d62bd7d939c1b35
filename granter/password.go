package granter

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-oauth2-provider/clients"
	"github.com/jrsteele09/go-oauth2-provider/oauthmodel"
	"github.com/jrsteele09/go-oauth2-provider/token"
)

// UserVerifier checks resource-owner credentials. Implementations return
// the user's authorities on success and any error on failure; the error
// detail is never exposed to the requesting client.
type UserVerifier interface {
	Verify(ctx context.Context, username, password string) (authorities []string, err error)
}

var _ TokenGranter = (*PasswordGranter)(nil)

// PasswordGranter implements the resource-owner password credentials
// grant.
type PasswordGranter struct {
	clients       clients.Repo
	users         UserVerifier
	minter        token.Minter
	tokenValidity time.Duration
}

func NewPasswordGranter(clientRepo clients.Repo, users UserVerifier, minter token.Minter, tokenValidity time.Duration) (*PasswordGranter, error) {
	if clientRepo == nil {
		return nil, errors.New("[NewPasswordGranter] client repo is required")
	}
	if users == nil {
		return nil, errors.New("[NewPasswordGranter] user verifier is required")
	}
	if minter == nil {
		return nil, errors.New("[NewPasswordGranter] minter is required")
	}
	return &PasswordGranter{
		clients:       clientRepo,
		users:         users,
		minter:        minter,
		tokenValidity: tokenValidity,
	}, nil
}

func (g *PasswordGranter) Grant(ctx context.Context, grantType string, params map[string]string, clientID, clientSecret string, scope []string) (*oauthmodel.AccessToken, error) {
	username := params[oauthmodel.ParamUsername]
	password := params[oauthmodel.ParamPassword]
	if username == "" || password == "" {
		return nil, oauthmodel.NewInvalidRequest("username and password must be supplied")
	}

	client, err := clientAuthenticator{g.clients}.authenticate(ctx, clientID, clientSecret, grantType)
	if err != nil {
		return nil, err
	}

	if _, err := g.users.Verify(ctx, username, password); err != nil {
		return nil, oauthmodel.NewInvalidGrant("bad user credentials")
	}

	granted, err := narrowScope(client, scope)
	if err != nil {
		return nil, err
	}

	return g.minter.Mint(ctx, token.MintSpec{
		ClientID: client.ID,
		UserName: username,
		Scope:    granted,
		Validity: g.tokenValidity,
	})
}
