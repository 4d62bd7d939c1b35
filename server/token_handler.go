package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-oauth2-provider/oauthmodel"
)

// Token handles the token endpoint. The client principal arrives either
// as HTTP Basic auth or as client_id/client_secret form fields; the
// grant parameters are everything else on the form.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeOAuthError(w, oauthmodel.NewInvalidRequest("Failed to parse form data"))
			return
		}

		clientID, clientSecret, ok := clientCredentials(r)
		if !ok {
			writeOAuthError(w, oauthmodel.NewInvalidClient("insufficient authentication"))
			return
		}

		grantType := r.PostFormValue(oauthmodel.ParamGrantType)
		if grantType == "" {
			writeOAuthError(w, oauthmodel.NewInvalidRequest("grant_type parameter is required"))
			return
		}
		scope := oauthmodel.ParseScope(r.PostFormValue(oauthmodel.ParamScope))

		params := make(map[string]string, len(r.PostForm))
		for k := range r.PostForm {
			switch k {
			case oauthmodel.ParamGrantType, oauthmodel.ParamScope,
				oauthmodel.ParamClientID, oauthmodel.ParamClientSecret:
				continue
			}
			params[k] = r.PostFormValue(k)
		}

		tok, err := s.dispatcher.Grant(r.Context(), grantType, params, clientID, clientSecret, scope)
		if err != nil {
			writeOAuthError(w, err)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		_ = json.NewEncoder(w).Encode(tok)
	}
}

// clientCredentials extracts the client principal. Basic auth wins over
// form fields when both are present.
func clientCredentials(r *http.Request) (clientID, clientSecret string, ok bool) {
	if id, secret, found := r.BasicAuth(); found {
		return id, secret, true
	}
	id := r.PostFormValue(oauthmodel.ParamClientID)
	if id == "" {
		return "", "", false
	}
	return id, r.PostFormValue(oauthmodel.ParamClientSecret), true
}

// writeOAuthError renders a failure through the wire codec with its
// kind's fixed status. Anything that is not an OAuth error is logged
// and hidden behind a generic body.
func writeOAuthError(w http.ResponseWriter, err error) {
	var oauthErr *oauthmodel.Error
	if !errors.As(err, &oauthErr) {
		log.Err(err).Msg("Token request failed")
		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(oauthmodel.NewUnclassified("Internal error"))
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(oauthErr.HTTPStatus())
	_ = json.NewEncoder(w).Encode(oauthErr)
}
