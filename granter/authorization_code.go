package granter

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-oauth2-provider/clients"
	"github.com/jrsteele09/go-oauth2-provider/granter/codes"
	"github.com/jrsteele09/go-oauth2-provider/granter/refresh"
	"github.com/jrsteele09/go-oauth2-provider/oauthmodel"
	"github.com/jrsteele09/go-oauth2-provider/token"
)

var _ TokenGranter = (*AuthorizationCodeGranter)(nil)

// AuthorizationCodeGranter redeems a single-use authorization code for a
// token. Client-side checks run before redemption so an honest retry is
// possible after, say, a credential slip; once the store hands the code
// over it is consumed, and any later validation failure burns it.
type AuthorizationCodeGranter struct {
	clients         clients.Repo
	codes           codes.Store
	refreshTokens   refresh.Store
	minter          token.Minter
	tokenValidity   time.Duration
	refreshValidity time.Duration
	nowFunc         func() time.Time
}

type AuthorizationCodeOption func(*AuthorizationCodeGranter)

// WithAuthCodeNowFunc sets the clock (primarily for testing).
func WithAuthCodeNowFunc(now func() time.Time) AuthorizationCodeOption {
	return func(g *AuthorizationCodeGranter) { g.nowFunc = now }
}

// WithRefreshTokenIssuance enables refresh tokens on this grant, stored
// in the given store with the given validity window.
func WithRefreshTokenIssuance(store refresh.Store, validity time.Duration) AuthorizationCodeOption {
	return func(g *AuthorizationCodeGranter) {
		g.refreshTokens = store
		g.refreshValidity = validity
	}
}

func NewAuthorizationCodeGranter(clientRepo clients.Repo, codeStore codes.Store, minter token.Minter, tokenValidity time.Duration, options ...AuthorizationCodeOption) (*AuthorizationCodeGranter, error) {
	if clientRepo == nil {
		return nil, errors.New("[NewAuthorizationCodeGranter] client repo is required")
	}
	if codeStore == nil {
		return nil, errors.New("[NewAuthorizationCodeGranter] code store is required")
	}
	if minter == nil {
		return nil, errors.New("[NewAuthorizationCodeGranter] minter is required")
	}
	g := &AuthorizationCodeGranter{
		clients:       clientRepo,
		codes:         codeStore,
		minter:        minter,
		tokenValidity: tokenValidity,
		nowFunc:       time.Now,
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

func (g *AuthorizationCodeGranter) Grant(ctx context.Context, grantType string, params map[string]string, clientID, clientSecret string, _ []string) (*oauthmodel.AccessToken, error) {
	code := params[oauthmodel.ParamCode]
	if code == "" {
		return nil, oauthmodel.NewInvalidRequest("an authorization code must be supplied")
	}

	client, err := clientAuthenticator{g.clients}.authenticate(ctx, clientID, clientSecret, grantType)
	if err != nil {
		return nil, err
	}

	auth, err := g.codes.Redeem(ctx, code)
	if errors.Is(err, codes.ErrNotFound) {
		return nil, oauthmodel.NewInvalidGrant("invalid authorization code: " + code)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[AuthorizationCodeGranter.Grant] Redeem")
	}

	if auth.ClientID != client.ID {
		return nil, oauthmodel.NewInvalidGrant("authorization code was issued to another client")
	}
	if g.nowFunc().After(auth.ExpiresAt) {
		return nil, oauthmodel.NewInvalidGrant("authorization code expired")
	}
	if auth.RedirectURI != "" && params[oauthmodel.ParamRedirectURI] != auth.RedirectURI {
		return nil, oauthmodel.NewRedirectMismatch("redirect_uri does not match the authorization request")
	}

	tok, err := g.minter.Mint(ctx, token.MintSpec{
		ClientID: client.ID,
		UserName: auth.UserName,
		Scope:    auth.Scope,
		Validity: g.tokenValidity,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[AuthorizationCodeGranter.Grant] Mint")
	}

	if g.refreshTokens != nil {
		value, err := token.NewRefreshTokenValue()
		if err != nil {
			return nil, errors.Wrap(err, "[AuthorizationCodeGranter.Grant] NewRefreshTokenValue")
		}
		if err := g.refreshTokens.Save(ctx, &refresh.StoredRefreshToken{
			Token:           value,
			ClientID:        client.ID,
			UserName:        auth.UserName,
			UserAuthorities: auth.UserAuthorities,
			Scope:           auth.Scope,
			IssuedAt:        g.nowFunc(),
		}); err != nil {
			return nil, errors.Wrap(err, "[AuthorizationCodeGranter.Grant] refresh Save")
		}
		tok.RefreshToken = &oauthmodel.RefreshToken{Value: value}
	}

	return tok, nil
}
