package clients

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/go-oauth2-provider/oauthmodel"
)

// Client holds the registered details of an OAuth2 client. Authorities are
// roles granted to the client itself, distinct from any resource owner's
// authorities.
type Client struct {
	ID                   string   `json:"id"`
	SecretHash           string   `json:"secretHash"` // bcrypt hash, never the plaintext
	Description          string   `json:"description"`
	ResourceIDs          []string `json:"resourceIds"`
	AuthorizedGrantTypes []string `json:"authorizedGrantTypes"`
	Authorities          []string `json:"authorities"`
	Scopes               []string `json:"scopes"` // Allowed scopes for this client
	RedirectURIs         []string `json:"redirectURIs"`
}

// HashSecret prepares a plaintext secret for storage.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckSecret compares a presented secret against the stored hash. A
// client registered without a secret accepts only an empty secret.
func (c *Client) CheckSecret(secret string) bool {
	if c.SecretHash == "" {
		return secret == ""
	}
	return bcrypt.CompareHashAndPassword([]byte(c.SecretHash), []byte(secret)) == nil
}

// AllowsGrantType checks the client's registered grant types. A client
// with none registered allows nothing.
func (c *Client) AllowsGrantType(grantType string) bool {
	for _, gt := range c.AuthorizedGrantTypes {
		if gt == grantType {
			return true
		}
	}
	return false
}

// HasScope checks if the client may request a specific scope.
func (c *Client) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// ValidateScopes checks that every requested scope is allowed for this
// client. An empty request is always valid.
func (c *Client) ValidateScopes(requested []string) error {
	for _, scope := range requested {
		if !c.HasScope(scope) {
			return oauthmodel.NewInvalidScope("scope not allowed for client: " + scope)
		}
	}
	return nil
}

// AllowsRedirectURI checks a presented redirect URI against the
// registered whitelist. Exact match only.
func (c *Client) AllowsRedirectURI(uri string) bool {
	for _, registered := range c.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}
