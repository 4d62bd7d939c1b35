package granter

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-oauth2-provider/clients"
	"github.com/jrsteele09/go-oauth2-provider/oauthmodel"
	"github.com/jrsteele09/go-oauth2-provider/token"
)

var _ TokenGranter = (*ClientCredentialsGranter)(nil)

// ClientCredentialsGranter issues tokens directly to a confidential
// client with no resource owner involved.
type ClientCredentialsGranter struct {
	clients       clients.Repo
	minter        token.Minter
	tokenValidity time.Duration
}

func NewClientCredentialsGranter(clientRepo clients.Repo, minter token.Minter, tokenValidity time.Duration) (*ClientCredentialsGranter, error) {
	if clientRepo == nil {
		return nil, errors.New("[NewClientCredentialsGranter] client repo is required")
	}
	if minter == nil {
		return nil, errors.New("[NewClientCredentialsGranter] minter is required")
	}
	return &ClientCredentialsGranter{
		clients:       clientRepo,
		minter:        minter,
		tokenValidity: tokenValidity,
	}, nil
}

func (g *ClientCredentialsGranter) Grant(ctx context.Context, grantType string, _ map[string]string, clientID, clientSecret string, scope []string) (*oauthmodel.AccessToken, error) {
	client, err := clientAuthenticator{g.clients}.authenticate(ctx, clientID, clientSecret, grantType)
	if err != nil {
		return nil, err
	}

	granted, err := narrowScope(client, scope)
	if err != nil {
		return nil, err
	}

	return g.minter.Mint(ctx, token.MintSpec{
		ClientID: client.ID,
		Scope:    granted,
		Validity: g.tokenValidity,
	})
}
