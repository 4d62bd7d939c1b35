package oauthmodel

import (
	"fmt"
	"net/http"
)

// ErrorCode identifies one of the canonical OAuth2 error kinds. The string
// value is the wire `error` field.
type ErrorCode string

const (
	ErrCodeInvalidClient           ErrorCode = "invalid_client"
	ErrCodeUnauthorizedClient      ErrorCode = "unauthorized_client"
	ErrCodeInvalidGrant            ErrorCode = "invalid_grant"
	ErrCodeInvalidScope            ErrorCode = "invalid_scope"
	ErrCodeInvalidToken            ErrorCode = "invalid_token"
	ErrCodeInvalidRequest          ErrorCode = "invalid_request"
	ErrCodeRedirectMismatch        ErrorCode = "redirect_uri_mismatch"
	ErrCodeUnsupportedGrantType    ErrorCode = "unsupported_grant_type"
	ErrCodeUnsupportedResponseType ErrorCode = "unsupported_response_type"
	ErrCodeUserDeniedAuthorization ErrorCode = "access_denied"
	ErrCodeUnclassified            ErrorCode = ""
)

const defaultErrorMessage = "OAuth Error"

// Error is the closed set of OAuth2 protocol failures. Granters raise
// these, the wire codec reconstructs them, and the HTTP boundary renders
// them with the status mapped from the code. Additional holds extension
// fields from the wire; values are pointers so an explicit null survives a
// round-trip.
type Error struct {
	Code       ErrorCode
	Message    string
	Additional map[string]*string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != ErrCodeUnclassified {
		return string(e.Code)
	}
	return defaultErrorMessage
}

// WireCode returns the `error` field value. Unclassified errors report
// "error" like the generic original did, so the field is never empty.
func (e *Error) WireCode() string {
	if e.Code == ErrCodeUnclassified {
		return "error"
	}
	return string(e.Code)
}

// HTTPStatus maps the error kind to its fixed response status.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case ErrCodeInvalidClient, ErrCodeInvalidToken:
		return http.StatusUnauthorized
	case ErrCodeUserDeniedAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// WithAdditional attaches one extension field and returns the error for
// chaining.
func (e *Error) WithAdditional(key string, value *string) *Error {
	if e.Additional == nil {
		e.Additional = make(map[string]*string)
	}
	e.Additional[key] = value
	return e
}

func newError(code ErrorCode, msg string) *Error {
	if msg == "" && code != ErrCodeUnclassified {
		msg = string(code)
	}
	if msg == "" {
		msg = defaultErrorMessage
	}
	return &Error{Code: code, Message: msg}
}

func NewInvalidClient(msg string) *Error       { return newError(ErrCodeInvalidClient, msg) }
func NewUnauthorizedClient(msg string) *Error  { return newError(ErrCodeUnauthorizedClient, msg) }
func NewInvalidGrant(msg string) *Error        { return newError(ErrCodeInvalidGrant, msg) }
func NewInvalidScope(msg string) *Error        { return newError(ErrCodeInvalidScope, msg) }
func NewInvalidToken(msg string) *Error        { return newError(ErrCodeInvalidToken, msg) }
func NewInvalidRequest(msg string) *Error      { return newError(ErrCodeInvalidRequest, msg) }
func NewRedirectMismatch(msg string) *Error    { return newError(ErrCodeRedirectMismatch, msg) }
func NewUnsupportedResponseType(msg string) *Error {
	return newError(ErrCodeUnsupportedResponseType, msg)
}
func NewUserDeniedAuthorization(msg string) *Error {
	return newError(ErrCodeUserDeniedAuthorization, msg)
}
func NewUnclassified(msg string) *Error { return newError(ErrCodeUnclassified, msg) }

// NewUnsupportedGrantType is the failure for a grant type with no
// registered granter. Dispatch never returns a nil token in its place.
func NewUnsupportedGrantType(grantType string) *Error {
	return newError(ErrCodeUnsupportedGrantType, fmt.Sprintf("Unsupported grant type: %s", grantType))
}
