package granter

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-oauth2-provider/clients"
	"github.com/jrsteele09/go-oauth2-provider/granter/refresh"
	"github.com/jrsteele09/go-oauth2-provider/oauthmodel"
	"github.com/jrsteele09/go-oauth2-provider/token"
)

var _ TokenGranter = (*RefreshTokenGranter)(nil)

// RefreshTokenGranter exchanges a stored refresh token for a new access
// token, rotating the refresh token in the process. Rotation rides the
// store's atomic Rotate, so a concurrently replayed token loses.
type RefreshTokenGranter struct {
	clients         clients.Repo
	refreshTokens   refresh.Store
	minter          token.Minter
	tokenValidity   time.Duration
	refreshValidity time.Duration
	nowFunc         func() time.Time
}

type RefreshTokenOption func(*RefreshTokenGranter)

func WithRefreshNowFunc(now func() time.Time) RefreshTokenOption {
	return func(g *RefreshTokenGranter) { g.nowFunc = now }
}

func NewRefreshTokenGranter(clientRepo clients.Repo, store refresh.Store, minter token.Minter, tokenValidity, refreshValidity time.Duration, options ...RefreshTokenOption) (*RefreshTokenGranter, error) {
	if clientRepo == nil {
		return nil, errors.New("[NewRefreshTokenGranter] client repo is required")
	}
	if store == nil {
		return nil, errors.New("[NewRefreshTokenGranter] refresh token store is required")
	}
	if minter == nil {
		return nil, errors.New("[NewRefreshTokenGranter] minter is required")
	}
	g := &RefreshTokenGranter{
		clients:         clientRepo,
		refreshTokens:   store,
		minter:          minter,
		tokenValidity:   tokenValidity,
		refreshValidity: refreshValidity,
		nowFunc:         time.Now,
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

func (g *RefreshTokenGranter) Grant(ctx context.Context, grantType string, params map[string]string, clientID, clientSecret string, _ []string) (*oauthmodel.AccessToken, error) {
	presented := params[oauthmodel.ParamRefreshToken]
	if presented == "" {
		return nil, oauthmodel.NewInvalidRequest("a refresh token must be supplied")
	}

	client, err := clientAuthenticator{g.clients}.authenticate(ctx, clientID, clientSecret, grantType)
	if err != nil {
		return nil, err
	}

	stored, err := g.refreshTokens.Rotate(ctx, presented)
	if errors.Is(err, refresh.ErrNotFound) {
		return nil, oauthmodel.NewInvalidGrant("invalid refresh token")
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RefreshTokenGranter.Grant] Rotate")
	}

	if stored.ClientID != client.ID {
		return nil, oauthmodel.NewInvalidGrant("refresh token was issued to another client")
	}
	if g.refreshValidity > 0 && g.nowFunc().Sub(stored.IssuedAt) > g.refreshValidity {
		return nil, oauthmodel.NewInvalidGrant("refresh token expired")
	}

	tok, err := g.minter.Mint(ctx, token.MintSpec{
		ClientID: client.ID,
		UserName: stored.UserName,
		Scope:    stored.Scope,
		Validity: g.tokenValidity,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[RefreshTokenGranter.Grant] Mint")
	}

	value, err := token.NewRefreshTokenValue()
	if err != nil {
		return nil, errors.Wrap(err, "[RefreshTokenGranter.Grant] NewRefreshTokenValue")
	}
	if err := g.refreshTokens.Save(ctx, &refresh.StoredRefreshToken{
		Token:           value,
		ClientID:        stored.ClientID,
		UserName:        stored.UserName,
		UserAuthorities: stored.UserAuthorities,
		Scope:           stored.Scope,
		IssuedAt:        g.nowFunc(),
	}); err != nil {
		return nil, errors.Wrap(err, "[RefreshTokenGranter.Grant] Save")
	}
	tok.RefreshToken = &oauthmodel.RefreshToken{Value: value}

	return tok, nil
}
