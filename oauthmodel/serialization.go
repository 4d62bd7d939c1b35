package oauthmodel

import (
	"strconv"
	"time"
)

// Wire field names shared by the JSON and form-encoded renditions of the
// token and error bodies.
const (
	FieldAccessToken      = "access_token"
	FieldTokenType        = "token_type"
	FieldExpiresIn        = "expires_in"
	FieldRefreshToken     = "refresh_token"
	FieldScope            = "scope"
	FieldError            = "error"
	FieldErrorDescription = "error_description"
)

// SerializeAccessToken flattens a token into wire fields. Optional fields
// are omitted when absent rather than emitted as zero values: expires_in
// only appears when an expiration is set, refresh_token and scope only
// when present.
func SerializeAccessToken(tok *AccessToken, now time.Time) map[string]string {
	out := map[string]string{
		FieldAccessToken: tok.Value(),
		FieldTokenType:   tok.TokenType,
	}
	if tok.Expiration != nil {
		out[FieldExpiresIn] = strconv.Itoa(tok.ExpiresIn(now))
	}
	if tok.RefreshToken != nil {
		out[FieldRefreshToken] = tok.RefreshToken.Value
	}
	if len(tok.Scope) > 0 {
		out[FieldScope] = FormatScope(tok.Scope)
	}
	return out
}

// DeserializeAccessToken rebuilds a token from wire fields. A relative
// expires_in is anchored at now. Scope accepts space or comma separators
// since some providers deviate from the spec.
func DeserializeAccessToken(fields map[string]string, now time.Time) (*AccessToken, error) {
	value, ok := fields[FieldAccessToken]
	if !ok || value == "" {
		return nil, NewUnclassified("missing access_token field")
	}

	tok := NewAccessToken(value)
	if tt := fields[FieldTokenType]; tt != "" {
		tok.TokenType = tt
	}
	if raw, ok := fields[FieldExpiresIn]; ok && raw != "" {
		delta, err := strconv.Atoi(raw)
		if err != nil {
			return nil, NewUnclassified("malformed expires_in: " + raw)
		}
		exp := now.Add(time.Duration(delta) * time.Second)
		tok.Expiration = &exp
	}
	if rt := fields[FieldRefreshToken]; rt != "" {
		tok.RefreshToken = &RefreshToken{Value: rt}
	}
	tok.Scope = ParseScopeLenient(fields[FieldScope])
	return tok, nil
}

// SerializeError flattens a protocol error into wire fields. Additional
// information rides along verbatim; nil values stay nil so the JSON layer
// can emit explicit nulls.
func SerializeError(e *Error) map[string]*string {
	code := e.WireCode()
	desc := e.Error()
	out := map[string]*string{
		FieldError:            &code,
		FieldErrorDescription: &desc,
	}
	for k, v := range e.Additional {
		if k == FieldError || k == FieldErrorDescription {
			continue
		}
		out[k] = v
	}
	return out
}

// DeserializeError reconstructs a protocol error from wire fields. The
// message falls back from error_description to the error code to the
// literal "OAuth Error"; an unrecognised code yields the unclassified
// kind. Every key other than the two reserved ones is preserved in
// Additional, including explicit nulls.
func DeserializeError(fields map[string]*string) *Error {
	var code, message string
	if v := fields[FieldError]; v != nil {
		code = *v
	}
	if v := fields[FieldErrorDescription]; v != nil {
		message = *v
	}
	if message == "" {
		if code == "" {
			message = defaultErrorMessage
		} else {
			message = code
		}
	}

	var e *Error
	switch ErrorCode(code) {
	case ErrCodeInvalidClient:
		e = NewInvalidClient(message)
	case ErrCodeUnauthorizedClient:
		e = NewUnauthorizedClient(message)
	case ErrCodeInvalidGrant:
		e = NewInvalidGrant(message)
	case ErrCodeInvalidScope:
		e = NewInvalidScope(message)
	case ErrCodeInvalidToken:
		e = NewInvalidToken(message)
	case ErrCodeInvalidRequest:
		e = NewInvalidRequest(message)
	case ErrCodeRedirectMismatch:
		e = NewRedirectMismatch(message)
	case ErrCodeUnsupportedGrantType:
		e = &Error{Code: ErrCodeUnsupportedGrantType, Message: message}
	case ErrCodeUnsupportedResponseType:
		e = NewUnsupportedResponseType(message)
	case ErrCodeUserDeniedAuthorization:
		e = NewUserDeniedAuthorization(message)
	default:
		e = NewUnclassified(message)
	}

	for k, v := range fields {
		if k == FieldError || k == FieldErrorDescription {
			continue
		}
		e.WithAdditional(k, v)
	}
	return e
}
