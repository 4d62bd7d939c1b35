package tokenclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-oauth2-provider/internal/utils"
	"github.com/jrsteele09/go-oauth2-provider/oauthmodel"
)

const maxResponseBody = 1 << 20

// Client exchanges grant parameters for access tokens at a provider's
// token endpoint. One request, one response, no retries; retry policy
// belongs to the caller.
type Client struct {
	httpClient *http.Client
	auth       AuthenticationHandler
}

// Option configures a Client.
type Option func(*Client)

// WithAuthenticationHandler replaces the default credential attachment
// strategy.
func WithAuthenticationHandler(h AuthenticationHandler) Option {
	return func(c *Client) {
		c.auth = h
	}
}

// NewClient wraps the given http.Client for token acquisition. The
// client is copied so that redirects on the token call can be disabled
// without affecting the caller's client; a redirect response from the
// token endpoint is data, not navigation.
func NewClient(httpClient *http.Client, options ...Option) (*Client, error) {
	if httpClient == nil {
		return nil, errors.New("[tokenclient.NewClient] nil http client")
	}
	noRedirect := *httpClient
	noRedirect.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c := &Client{
		httpClient: &noRedirect,
		auth:       DefaultAuthenticationHandler{},
	}
	for _, opt := range options {
		opt(c)
	}
	if c.auth == nil {
		return nil, errors.New("[tokenclient.NewClient] nil authentication handler")
	}
	return c, nil
}

// Retrieve performs the token exchange for the given resource. Grant
// specific parameters (grant_type, code, refresh_token, ...) come in via
// form; credentials are attached by the authentication handler. Any
// failure after the request is built is returned as *AccessDeniedError
// with the provider refusal or transport error in the cause chain.
func (c *Client) Retrieve(ctx context.Context, res *ResourceDetails, form url.Values) (*oauthmodel.AccessToken, error) {
	if res == nil {
		return nil, errors.New("[Client.Retrieve] nil resource details")
	}
	if res.AccessTokenURI == "" {
		return nil, errors.New("[Client.Retrieve] resource has no access token URI")
	}

	body := url.Values{}
	for k, vs := range form {
		for _, v := range vs {
			body.Add(k, v)
		}
	}
	if body.Get(oauthmodel.ParamScope) == "" && len(res.Scope) > 0 {
		body.Set(oauthmodel.ParamScope, oauthmodel.FormatScope(res.Scope))
	}

	header := http.Header{}
	if err := c.auth.AuthenticateTokenRequest(res, body, header); err != nil {
		return nil, &AccessDeniedError{Resource: res, Err: err}
	}

	req, err := c.buildRequest(ctx, res, body, header)
	if err != nil {
		return nil, &AccessDeniedError{Resource: res, Err: err}
	}

	log.Debug().
		Str("resource", res.ID).
		Str("method", req.Method).
		Str("uri", res.AccessTokenURI).
		Msg("Requesting access token")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AccessDeniedError{Resource: res, Err: errors.Wrap(err, "[Client.Retrieve] token request")}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &AccessDeniedError{Resource: res, Err: errors.Wrap(err, "[Client.Retrieve] reading response")}
	}

	tok, err := c.decodeResponse(resp, raw)
	if err != nil {
		return nil, &AccessDeniedError{Resource: res, Err: err}
	}
	return tok, nil
}

func (c *Client) buildRequest(ctx context.Context, res *ResourceDetails, body url.Values, header http.Header) (*http.Request, error) {
	method := res.RequestMethod()

	var req *http.Request
	var err error
	if method == http.MethodGet {
		uri := res.AccessTokenURI
		if encoded := body.Encode(); encoded != "" {
			sep := "?"
			if strings.Contains(uri, "?") {
				sep = "&"
			}
			uri += sep + encoded
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, res.AccessTokenURI, strings.NewReader(body.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Client.buildRequest]")
	}

	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json, application/x-www-form-urlencoded")
	return req, nil
}

// decodeResponse turns the raw response into a token or an error. Some
// providers return form encoded bodies where JSON is expected, and some
// report errors on a 200; both shapes are handled.
func (c *Client) decodeResponse(resp *http.Response, raw []byte) (*oauthmodel.AccessToken, error) {
	if resp.StatusCode >= http.StatusMultipleChoices && resp.StatusCode < http.StatusBadRequest {
		return nil, oauthmodel.NewUnclassified(
			fmt.Sprintf("token endpoint redirected to %s", resp.Header.Get("Location")))
	}

	isJSON := isJSONBody(resp.Header.Get("Content-Type"), raw)

	if resp.StatusCode >= http.StatusBadRequest {
		if oauthErr := decodeError(isJSON, raw); oauthErr != nil {
			return nil, oauthErr
		}
		return nil, oauthmodel.NewUnclassified(
			fmt.Sprintf("token endpoint returned %s", resp.Status))
	}

	if oauthErr := decodeError(isJSON, raw); oauthErr != nil {
		return nil, oauthErr
	}
	return decodeToken(isJSON, raw)
}

func isJSONBody(contentType string, raw []byte) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if strings.Contains(mediaType, "json") {
			return true
		}
		if mediaType == "application/x-www-form-urlencoded" {
			return false
		}
	}
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{"))
}

// decodeError returns the OAuth error carried in the body, or nil when
// the body is not an error response.
func decodeError(isJSON bool, raw []byte) *oauthmodel.Error {
	if isJSON {
		probe := make(map[string]json.RawMessage)
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil
		}
		if _, ok := probe[oauthmodel.FieldError]; !ok {
			return nil
		}
		var oauthErr oauthmodel.Error
		if err := json.Unmarshal(raw, &oauthErr); err != nil {
			return nil
		}
		return &oauthErr
	}

	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil
	}
	if _, ok := values[oauthmodel.FieldError]; !ok {
		return nil
	}
	fields := make(map[string]*string, len(values))
	for k := range values {
		fields[k] = utils.Ptr(values.Get(k))
	}
	return oauthmodel.DeserializeError(fields)
}

func decodeToken(isJSON bool, raw []byte) (*oauthmodel.AccessToken, error) {
	if isJSON {
		var tok oauthmodel.AccessToken
		if err := json.Unmarshal(raw, &tok); err != nil {
			return nil, errors.Wrap(err, "[tokenclient.decodeToken] parsing token body")
		}
		return &tok, nil
	}

	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, errors.Wrap(err, "[tokenclient.decodeToken] parsing form body")
	}
	fields := make(map[string]string, len(values))
	for k := range values {
		fields[k] = values.Get(k)
	}
	tok, err := oauthmodel.DeserializeAccessToken(fields, time.Now())
	if err != nil {
		return nil, errors.Wrap(err, "[tokenclient.decodeToken]")
	}
	return tok, nil
}
