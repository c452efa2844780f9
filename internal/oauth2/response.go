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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Response is a rendered HTTP response descriptor: status line, headers
// and body bytes. It is a value transformed through With* steps inside a
// single Render call; the final version belongs to the caller and is
// never retained by this package.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewResponse creates a default response (200, no headers, empty body).
func NewResponse() *Response {
	return &Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
	}
}

// WithStatus returns a copy of the response with the status replaced.
func (r *Response) WithStatus(code int) *Response {
	next := r.clone()
	next.StatusCode = code
	return next
}

// WithHeader returns a copy of the response with the header set,
// replacing any existing values for the key.
func (r *Response) WithHeader(key, value string) *Response {
	next := r.clone()
	next.Header.Set(key, value)
	return next
}

// WithBody returns a copy of the response with the body replaced.
func (r *Response) WithBody(body []byte) *Response {
	next := r.clone()
	next.Body = body
	return next
}

func (r *Response) clone() *Response {
	next := &Response{
		StatusCode: r.StatusCode,
		Header:     r.Header.Clone(),
		Body:       r.Body,
	}
	if next.Header == nil {
		next.Header = http.Header{}
	}
	return next
}

// Write flushes the descriptor onto a net/http response writer.
func (r *Response) Write(w http.ResponseWriter) error {
	for key, values := range r.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(r.StatusCode)
	_, err := w.Write(r.Body)
	return err
}

// payload is the wire-visible JSON body (RFC 6749 Section 5.2). These
// three keys are the only ones this package ever emits.
type payload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

func (e *Error) payload() payload {
	return payload{
		Error:   e.errorType,
		Message: e.message,
		Hint:    e.hint,
	}
}

// Render turns the error into a complete HTTP response.
//
// base is the response-in-progress to build on; nil starts from a fresh
// default response. req is the original inbound request, consulted only
// to compute the WWW-Authenticate challenge for invalid_client (nil is
// fine and simply omits the challenge). useFragment selects fragment
// delivery for redirect errors, for implicit-style flows where error
// parameters must not reach the redirect target's server.
//
// When the error carries a redirect URI, its existing query parameters
// are preserved and the payload keys merged in (payload wins on
// collision), or the payload is placed in the fragment in fragment
// mode; the resulting URI becomes the Location header. The JSON body is
// written in both delivery modes. A malformed redirect URI fails the
// render; no partial response is returned.
func (e *Error) Render(base *Response, req *http.Request, useFragment bool) (*Response, error) {
	resp := base
	if resp == nil {
		resp = NewResponse()
	}

	headers := e.Headers(req)

	body, err := json.Marshal(e.payload())
	if err != nil {
		return nil, fmt.Errorf("encode error payload: %w", err)
	}

	if e.redirectURI != "" {
		location, err := e.redirectLocation(useFragment)
		if err != nil {
			return nil, err
		}
		headers.Set("Location", location)
	}

	for key := range headers {
		resp = resp.WithHeader(key, headers.Get(key))
	}

	return resp.WithBody(body).WithStatus(e.status), nil
}

// redirectLocation merges the payload into the redirect URI's query
// string, or into its fragment in fragment mode (leaving the query
// untouched).
func (e *Error) redirectLocation(useFragment bool) (string, error) {
	u, err := url.Parse(e.redirectURI)
	if err != nil {
		return "", fmt.Errorf("parse redirect uri %q: %w", e.redirectURI, err)
	}

	p := e.payload()
	params := url.Values{}
	params.Set("error", p.Error)
	params.Set("message", p.Message)
	if p.Hint != "" {
		params.Set("hint", p.Hint)
	}

	if useFragment {
		u.Fragment = ""
		u.RawFragment = ""
		return u.String() + "#" + params.Encode(), nil
	}

	query := u.Query()
	for key := range params {
		query.Set(key, params.Get(key))
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
