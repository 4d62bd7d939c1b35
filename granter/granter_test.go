package granter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-oauth2-provider/clients"
	fakeclientrepo "github.com/jrsteele09/go-oauth2-provider/clients/fakerepo"
	"github.com/jrsteele09/go-oauth2-provider/granter"
	"github.com/jrsteele09/go-oauth2-provider/granter/codes"
	"github.com/jrsteele09/go-oauth2-provider/granter/refresh"
	refreshrepofake "github.com/jrsteele09/go-oauth2-provider/granter/refresh/repofake"
	"github.com/jrsteele09/go-oauth2-provider/oauthmodel"
	"github.com/jrsteele09/go-oauth2-provider/token"
)

const (
	testClientID     = "test-client-1"
	testClientSecret = "test-secret-1"
	testUserName     = "john.doe@example.com"
	testUserPassword = "password123"
	testRedirectURI  = "http://localhost:3000/callback"
	tokenValidity    = time.Hour
	refreshValidity  = 7 * 24 * time.Hour
)

type testFixture struct {
	clientRepo   *fakeclientrepo.FakeClientRepo
	codeStore    *codes.InMemoryStore
	refreshStore *refreshrepofake.FakeRefreshTokenStore
	minter       token.Minter
	dispatcher   *granter.Dispatcher
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	cr := fakeclientrepo.NewFakeClientRepo()
	cs := codes.NewInMemoryStore()
	rs := refreshrepofake.NewFakeRefreshTokenStore()
	minter := token.NewOpaqueMinter()

	secretHash, err := clients.HashSecret(testClientSecret)
	require.NoError(t, err)
	require.NoError(t, cr.Upsert(context.Background(), &clients.Client{
		ID:         testClientID,
		SecretHash: secretHash,
		AuthorizedGrantTypes: []string{
			oauthmodel.GrantClientCredentials,
			oauthmodel.GrantAuthorizationCode,
			oauthmodel.GrantRefreshToken,
			oauthmodel.GrantPassword,
		},
		Authorities:  []string{"ROLE_CLIENT"},
		Scopes:       []string{"read", "write"},
		RedirectURIs: []string{testRedirectURI},
	}))

	d := granter.NewDispatcher()

	cc, err := granter.NewClientCredentialsGranter(cr, minter, tokenValidity)
	require.NoError(t, err)
	require.NoError(t, d.Register(oauthmodel.GrantClientCredentials, cc))

	ac, err := granter.NewAuthorizationCodeGranter(cr, cs, minter, tokenValidity,
		granter.WithRefreshTokenIssuance(rs, refreshValidity))
	require.NoError(t, err)
	require.NoError(t, d.Register(oauthmodel.GrantAuthorizationCode, ac))

	rt, err := granter.NewRefreshTokenGranter(cr, rs, minter, tokenValidity, refreshValidity)
	require.NoError(t, err)
	require.NoError(t, d.Register(oauthmodel.GrantRefreshToken, rt))

	pw, err := granter.NewPasswordGranter(cr, staticUserVerifier{}, minter, tokenValidity)
	require.NoError(t, err)
	require.NoError(t, d.Register(oauthmodel.GrantPassword, pw))

	return &testFixture{
		clientRepo:   cr,
		codeStore:    cs,
		refreshStore: rs,
		minter:       minter,
		dispatcher:   d,
	}
}

type staticUserVerifier struct{}

func (staticUserVerifier) Verify(_ context.Context, username, password string) ([]string, error) {
	if username == testUserName && password == testUserPassword {
		return []string{"ROLE_USER"}, nil
	}
	return nil, assert.AnError
}

func (f *testFixture) saveCode(t *testing.T, code string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, f.codeStore.Save(context.Background(), code, &codes.Authorization{
		ClientID:        testClientID,
		RedirectURI:     testRedirectURI,
		Scope:           []string{"read"},
		UserName:        testUserName,
		UserAuthorities: []string{"ROLE_USER"},
		ExpiresAt:       expiresAt,
	}))
}

func requireOAuthError(t *testing.T, err error, code oauthmodel.ErrorCode) *oauthmodel.Error {
	t.Helper()
	require.Error(t, err)
	var oauthErr *oauthmodel.Error
	require.ErrorAs(t, err, &oauthErr)
	require.Equal(t, code, oauthErr.Code)
	return oauthErr
}

func TestUnsupportedGrantType(t *testing.T) {
	f := setupTestFixture(t)

	tok, err := f.dispatcher.Grant(context.Background(), "magic_beans", nil, testClientID, testClientSecret, nil)

	assert.Nil(t, tok)
	requireOAuthError(t, err, oauthmodel.ErrCodeUnsupportedGrantType)
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	f := setupTestFixture(t)
	cc, err := granter.NewClientCredentialsGranter(f.clientRepo, f.minter, tokenValidity)
	require.NoError(t, err)

	assert.Error(t, f.dispatcher.Register(oauthmodel.GrantClientCredentials, cc))
}

func TestClientCredentialsGrant(t *testing.T) {
	f := setupTestFixture(t)

	tok, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantClientCredentials, nil,
		testClientID, testClientSecret, []string{"read"})
	require.NoError(t, err)

	assert.NotEmpty(t, tok.Value())
	assert.Equal(t, []string{"read"}, tok.Scope)
	require.NotNil(t, tok.Expiration)
	assert.InDelta(t, 3600, tok.ExpiresIn(time.Now()), 2)
	assert.Nil(t, tok.RefreshToken)
}

func TestClientCredentialsDefaultsToClientScopes(t *testing.T) {
	f := setupTestFixture(t)

	tok, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantClientCredentials, nil,
		testClientID, testClientSecret, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"read", "write"}, tok.Scope)
}

func TestClientCredentialsBadSecret(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantClientCredentials, nil,
		testClientID, "wrong-secret", nil)
	requireOAuthError(t, err, oauthmodel.ErrCodeInvalidClient)
}

func TestClientCredentialsUnknownClient(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantClientCredentials, nil,
		"nobody", testClientSecret, nil)
	requireOAuthError(t, err, oauthmodel.ErrCodeInvalidClient)
}

func TestClientCredentialsDisallowedScope(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantClientCredentials, nil,
		testClientID, testClientSecret, []string{"admin"})
	requireOAuthError(t, err, oauthmodel.ErrCodeInvalidScope)
}

func TestGrantTypeNotAuthorizedForClient(t *testing.T) {
	f := setupTestFixture(t)
	secretHash, err := clients.HashSecret("s")
	require.NoError(t, err)
	require.NoError(t, f.clientRepo.Upsert(context.Background(), &clients.Client{
		ID:                   "limited-client",
		SecretHash:           secretHash,
		AuthorizedGrantTypes: []string{oauthmodel.GrantAuthorizationCode},
	}))

	_, err = f.dispatcher.Grant(context.Background(), oauthmodel.GrantClientCredentials, nil,
		"limited-client", "s", nil)
	requireOAuthError(t, err, oauthmodel.ErrCodeUnauthorizedClient)
}

func TestAuthorizationCodeGrant(t *testing.T) {
	f := setupTestFixture(t)
	f.saveCode(t, "CODE-1", time.Now().Add(10*time.Minute))
	params := map[string]string{
		oauthmodel.ParamCode:        "CODE-1",
		oauthmodel.ParamRedirectURI: testRedirectURI,
	}

	tok, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantAuthorizationCode, params,
		testClientID, testClientSecret, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, tok.Value())
	assert.Equal(t, []string{"read"}, tok.Scope)
	require.NotNil(t, tok.RefreshToken)
	assert.NotEmpty(t, tok.RefreshToken.Value)

	// The code is single use.
	_, err = f.dispatcher.Grant(context.Background(), oauthmodel.GrantAuthorizationCode, params,
		testClientID, testClientSecret, nil)
	requireOAuthError(t, err, oauthmodel.ErrCodeInvalidGrant)
}

func TestAuthorizationCodeInvalid(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantAuthorizationCode,
		map[string]string{oauthmodel.ParamCode: "NO-SUCH-CODE"},
		testClientID, testClientSecret, nil)
	requireOAuthError(t, err, oauthmodel.ErrCodeInvalidGrant)
}

func TestAuthorizationCodeMissingParam(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantAuthorizationCode,
		map[string]string{}, testClientID, testClientSecret, nil)
	requireOAuthError(t, err, oauthmodel.ErrCodeInvalidRequest)
}

func TestAuthorizationCodeExpired(t *testing.T) {
	f := setupTestFixture(t)
	f.saveCode(t, "OLD-CODE", time.Now().Add(-time.Minute))

	_, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantAuthorizationCode,
		map[string]string{
			oauthmodel.ParamCode:        "OLD-CODE",
			oauthmodel.ParamRedirectURI: testRedirectURI,
		},
		testClientID, testClientSecret, nil)
	requireOAuthError(t, err, oauthmodel.ErrCodeInvalidGrant)
}

func TestAuthorizationCodeRedirectMismatch(t *testing.T) {
	f := setupTestFixture(t)
	f.saveCode(t, "CODE-2", time.Now().Add(10*time.Minute))

	_, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantAuthorizationCode,
		map[string]string{
			oauthmodel.ParamCode:        "CODE-2",
			oauthmodel.ParamRedirectURI: "http://evil.example.com/callback",
		},
		testClientID, testClientSecret, nil)
	requireOAuthError(t, err, oauthmodel.ErrCodeRedirectMismatch)
}

func TestAuthorizationCodeFailedClientAuthLeavesCodeValid(t *testing.T) {
	f := setupTestFixture(t)
	f.saveCode(t, "CODE-3", time.Now().Add(10*time.Minute))
	params := map[string]string{
		oauthmodel.ParamCode:        "CODE-3",
		oauthmodel.ParamRedirectURI: testRedirectURI,
	}

	_, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantAuthorizationCode, params,
		testClientID, "wrong-secret", nil)
	requireOAuthError(t, err, oauthmodel.ErrCodeInvalidClient)

	// An honest retry with correct credentials still succeeds.
	tok, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantAuthorizationCode, params,
		testClientID, testClientSecret, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Value())
}

func TestConcurrentCodeRedemption(t *testing.T) {
	f := setupTestFixture(t)
	f.saveCode(t, "RACE-CODE", time.Now().Add(10*time.Minute))
	params := map[string]string{
		oauthmodel.ParamCode:        "RACE-CODE",
		oauthmodel.ParamRedirectURI: testRedirectURI,
	}

	const attempts = 2
	results := make(chan error, attempts)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < attempts; i++ {
		go func() {
			start.Wait()
			_, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantAuthorizationCode, params,
				testClientID, testClientSecret, nil)
			results <- err
		}()
	}
	start.Done()

	var successes, invalidGrants int
	for i := 0; i < attempts; i++ {
		err := <-results
		if err == nil {
			successes++
			continue
		}
		var oauthErr *oauthmodel.Error
		require.ErrorAs(t, err, &oauthErr)
		require.Equal(t, oauthmodel.ErrCodeInvalidGrant, oauthErr.Code)
		invalidGrants++
	}
	assert.Equal(t, 1, successes, "exactly one redemption may win")
	assert.Equal(t, 1, invalidGrants)
}

func TestRefreshTokenGrantRotates(t *testing.T) {
	f := setupTestFixture(t)
	f.saveCode(t, "CODE-4", time.Now().Add(10*time.Minute))
	first, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantAuthorizationCode,
		map[string]string{
			oauthmodel.ParamCode:        "CODE-4",
			oauthmodel.ParamRedirectURI: testRedirectURI,
		},
		testClientID, testClientSecret, nil)
	require.NoError(t, err)
	require.NotNil(t, first.RefreshToken)

	second, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantRefreshToken,
		map[string]string{oauthmodel.ParamRefreshToken: first.RefreshToken.Value},
		testClientID, testClientSecret, nil)
	require.NoError(t, err)

	require.NotNil(t, second.RefreshToken)
	assert.NotEqual(t, first.RefreshToken.Value, second.RefreshToken.Value, "refresh token must rotate")
	assert.Equal(t, first.Scope, second.Scope)

	// The old refresh token is spent.
	_, err = f.dispatcher.Grant(context.Background(), oauthmodel.GrantRefreshToken,
		map[string]string{oauthmodel.ParamRefreshToken: first.RefreshToken.Value},
		testClientID, testClientSecret, nil)
	requireOAuthError(t, err, oauthmodel.ErrCodeInvalidGrant)
}

func storedRefreshToken(value string, issuedAt time.Time) *refresh.StoredRefreshToken {
	return &refresh.StoredRefreshToken{
		Token:           value,
		ClientID:        testClientID,
		UserName:        testUserName,
		UserAuthorities: []string{"ROLE_USER"},
		Scope:           []string{"read"},
		IssuedAt:        issuedAt,
	}
}

func TestRefreshTokenExpired(t *testing.T) {
	f := setupTestFixture(t)

	past := time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, f.refreshStore.Save(context.Background(), storedRefreshToken("stale", past)))

	_, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantRefreshToken,
		map[string]string{oauthmodel.ParamRefreshToken: "stale"},
		testClientID, testClientSecret, nil)
	requireOAuthError(t, err, oauthmodel.ErrCodeInvalidGrant)
}

func TestRefreshTokenWrongClient(t *testing.T) {
	f := setupTestFixture(t)
	secretHash, err := clients.HashSecret("other-secret")
	require.NoError(t, err)
	require.NoError(t, f.clientRepo.Upsert(context.Background(), &clients.Client{
		ID:                   "other-client",
		SecretHash:           secretHash,
		AuthorizedGrantTypes: []string{oauthmodel.GrantRefreshToken},
	}))
	require.NoError(t, f.refreshStore.Save(context.Background(), storedRefreshToken("owned", time.Now())))

	_, err = f.dispatcher.Grant(context.Background(), oauthmodel.GrantRefreshToken,
		map[string]string{oauthmodel.ParamRefreshToken: "owned"},
		"other-client", "other-secret", nil)
	requireOAuthError(t, err, oauthmodel.ErrCodeInvalidGrant)
}

func TestPasswordGrant(t *testing.T) {
	f := setupTestFixture(t)

	tok, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantPassword,
		map[string]string{
			oauthmodel.ParamUsername: testUserName,
			oauthmodel.ParamPassword: testUserPassword,
		},
		testClientID, testClientSecret, []string{"read"})
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Value())
}

func TestPasswordGrantBadCredentials(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.dispatcher.Grant(context.Background(), oauthmodel.GrantPassword,
		map[string]string{
			oauthmodel.ParamUsername: testUserName,
			oauthmodel.ParamPassword: "nope",
		},
		testClientID, testClientSecret, nil)
	requireOAuthError(t, err, oauthmodel.ErrCodeInvalidGrant)
}
