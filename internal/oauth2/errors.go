// Copyright 2026 The AuthWard Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package oauth2

import (
	"fmt"
	"net/http"
)

// OAuth2 Standard Error Types (RFC 6749 Section 5.2)
const (
	ErrInvalidGrant         = "invalid_grant"
	ErrUnsupportedGrantType = "unsupported_grant_type"
	ErrInvalidRequest       = "invalid_request"
	ErrInvalidClient        = "invalid_client"
	ErrInvalidScope         = "invalid_scope"
	ErrInvalidCredentials   = "invalid_credentials"
	ErrServerError          = "server_error"
	ErrAccessDenied         = "access_denied"
)

// Scenario codes identify the exact failure a factory classified.
// They are stable and never renumbered: callers dispatch on them and
// logs reference them. New scenarios must allocate fresh codes.
const (
	CodeInvalidGrant        = 1
	CodeUnsupportedGrant    = 2
	CodeInvalidRequest      = 3
	CodeInvalidClient       = 4
	CodeInvalidScope        = 5
	CodeInvalidCredentials  = 6
	CodeServerError         = 7
	CodeInvalidRefreshToken = 8
	CodeAccessDenied        = 9
)

// Error represents a classified protocol-level OAuth2 failure (RFC 6749).
// It is constructed by exactly one of the New* factories, is immutable
// afterwards, and is consumed by Render.
type Error struct {
	code        int
	errorType   string
	status      int
	message     string
	hint        string
	redirectURI string
}

func (e *Error) Error() string {
	return fmt.Sprintf("oauth2 error: %s (%s)", e.errorType, e.message)
}

// Code returns the stable scenario code (1-9).
func (e *Error) Code() int { return e.code }

// ErrorType returns the wire-visible RFC 6749 error identifier.
func (e *Error) ErrorType() string { return e.errorType }

// HTTPStatusCode returns the HTTP status the error must be sent with.
func (e *Error) HTTPStatusCode() int { return e.status }

// Message returns the human-readable description.
func (e *Error) Message() string { return e.message }

// Hint returns the advisory hint, or "" when the scenario carries none.
func (e *Error) Hint() string { return e.hint }

// RedirectURI returns the redirect delivery target, or "" for plain
// JSON delivery.
func (e *Error) RedirectURI() string { return e.redirectURI }

// NewInvalidGrant classifies a rejected authorization grant: the grant
// is invalid, expired, revoked, or was issued to another client.
func NewInvalidGrant() *Error {
	return &Error{
		code:      CodeInvalidGrant,
		errorType: ErrInvalidGrant,
		status:    http.StatusBadRequest,
		message:   "The provided authorization grant is invalid, expired, revoked, or was issued to another client.",
		hint:      "Check the `grant_type` parameter",
	}
}

// NewUnsupportedGrantType classifies a grant type the server does not
// implement.
func NewUnsupportedGrantType() *Error {
	return &Error{
		code:      CodeUnsupportedGrant,
		errorType: ErrUnsupportedGrantType,
		status:    http.StatusBadRequest,
		message:   "The authorization grant type is not supported by the authorization server.",
		hint:      "Check the `grant_type` parameter",
	}
}

// NewInvalidRequest classifies a malformed request. parameter names the
// offending request parameter; when hint is "" a default hint naming
// that parameter is synthesized, otherwise hint is used verbatim.
func NewInvalidRequest(parameter, hint string) *Error {
	if hint == "" {
		hint = fmt.Sprintf("Check the `%s` parameter", parameter)
	}
	return &Error{
		code:      CodeInvalidRequest,
		errorType: ErrInvalidRequest,
		status:    http.StatusBadRequest,
		message:   "The request is missing a required parameter, includes an invalid parameter value, includes a parameter more than once, or is otherwise malformed.",
		hint:      hint,
	}
}

// NewInvalidClient classifies failed client authentication. Rendering
// it with the original request attached produces the WWW-Authenticate
// challenge required by RFC 6749 Section 5.2.
func NewInvalidClient() *Error {
	return &Error{
		code:      CodeInvalidClient,
		errorType: ErrInvalidClient,
		status:    http.StatusUnauthorized,
		message:   "Client authentication failed.",
	}
}

// NewInvalidScope classifies a rejected scope. redirectURI may be ""
// for plain JSON delivery, or the client's callback to deliver the
// error by redirect.
func NewInvalidScope(scope, redirectURI string) *Error {
	return &Error{
		code:        CodeInvalidScope,
		errorType:   ErrInvalidScope,
		status:      http.StatusBadRequest,
		message:     "The requested scope is invalid, unknown, or malformed.",
		hint:        fmt.Sprintf("Check the `%s` scope", scope),
		redirectURI: redirectURI,
	}
}

// NewInvalidCredentials classifies incorrect resource-owner credentials.
func NewInvalidCredentials() *Error {
	return &Error{
		code:      CodeInvalidCredentials,
		errorType: ErrInvalidCredentials,
		status:    http.StatusUnauthorized,
		message:   "The user credentials were incorrect.",
	}
}

// NewServerError classifies an unexpected internal failure. hint is
// required and is folded into the message itself rather than the hint
// field; it must never contain secrets.
func NewServerError(hint string) *Error {
	return &Error{
		code:      CodeServerError,
		errorType: ErrServerError,
		status:    http.StatusInternalServerError,
		message:   "The authorization server encountered an unexpected condition which prevented it from fulfilling the request: " + hint,
	}
}

// NewInvalidRefreshToken classifies a rejected refresh token. It is a
// distinct scenario for dispatch purposes but travels on the wire as
// invalid_request. hint may be "".
func NewInvalidRefreshToken(hint string) *Error {
	return &Error{
		code:      CodeInvalidRefreshToken,
		errorType: ErrInvalidRequest,
		status:    http.StatusBadRequest,
		message:   "The refresh token is invalid.",
		hint:      hint,
	}
}

// NewAccessDenied classifies a request the resource owner or the server
// refused. hint and redirectURI may independently be "".
func NewAccessDenied(hint, redirectURI string) *Error {
	return &Error{
		code:        CodeAccessDenied,
		errorType:   ErrAccessDenied,
		status:      http.StatusUnauthorized,
		message:     "The resource owner or authorization server denied the request.",
		hint:        hint,
		redirectURI: redirectURI,
	}
}
