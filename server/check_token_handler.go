package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jrsteele09/go-oauth2-provider/oauthmodel"
)

// CheckToken introspects a signed access token. Inactive or unparseable
// tokens report active=false rather than an error, so resource servers
// can treat the response uniformly.
func (s *Server) CheckToken() http.HandlerFunc {
	type introspection struct {
		Active   bool   `json:"active"`
		ClientID string `json:"client_id,omitempty"`
		UserName string `json:"username,omitempty"`
		Scope    string `json:"scope,omitempty"`
		Expiry   int64  `json:"exp,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeOAuthError(w, oauthmodel.NewInvalidRequest("Failed to parse form data"))
			return
		}
		raw := r.PostFormValue("token")
		if raw == "" {
			writeOAuthError(w, oauthmodel.NewInvalidRequest("token parameter is required"))
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "no-store")

		claims := jwt.MapClaims{}
		parsed, err := jwt.ParseWithClaims(raw, claims, s.verifier.GetVerificationKey)
		if err != nil || !parsed.Valid {
			_ = json.NewEncoder(w).Encode(introspection{Active: false})
			return
		}

		resp := introspection{Active: true}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			if exp.Before(time.Now()) {
				_ = json.NewEncoder(w).Encode(introspection{Active: false})
				return
			}
			resp.Expiry = exp.Unix()
		}
		if v, ok := claims["client_id"].(string); ok {
			resp.ClientID = v
		}
		if v, ok := claims["sub"].(string); ok && v != resp.ClientID {
			resp.UserName = v
		}
		if v, ok := claims["scope"].(string); ok {
			resp.Scope = v
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
