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

package oauth2_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/authward/authward/internal/oauth2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, resp *oauth2.Response) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body, &body))
	return body
}

// TestPurpose: Verifies baseline rendering: JSON content type, valid JSON body with error and message keys, error status.
// Scope: Unit Test
// Security: Wire-correct RFC 6749 Section 5.2 responses
// Expected: Content-Type application/json, body carries error+message, status matches the scenario.
func TestOAuth2_Render_JSONBody(t *testing.T) {
	resp, err := oauth2.NewInvalidGrant().Render(nil, nil, false)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body := decodeBody(t, resp)
	assert.Equal(t, "invalid_grant", body["error"])
	assert.NotEmpty(t, body["message"])
	assert.Equal(t, "Check the `grant_type` parameter", body["hint"])
}

func TestOAuth2_Render_HintOmittedWhenAbsent(t *testing.T) {
	resp, err := oauth2.NewInvalidClient().Render(nil, nil, false)
	require.NoError(t, err)

	body := decodeBody(t, resp)
	_, present := body["hint"]
	assert.False(t, present)
}

// TestPurpose: Verifies query-mode redirect delivery merges error parameters into the redirect URI while preserving existing query parameters.
// Scope: Unit Test
// Expected: Location carries foo=bar plus error/message/hint; status and body stay per the scenario.
func TestOAuth2_Render_RedirectQueryMerge(t *testing.T) {
	e := oauth2.NewInvalidScope("email", "https://client.example/cb?foo=bar")

	resp, err := e.Render(nil, nil, false)
	require.NoError(t, err)

	location := resp.Header.Get("Location")
	require.NotEmpty(t, location)

	u, err := url.Parse(location)
	require.NoError(t, err)

	query := u.Query()
	assert.Equal(t, "bar", query.Get("foo"))
	assert.Equal(t, "invalid_scope", query.Get("error"))
	assert.Equal(t, "The requested scope is invalid, unknown, or malformed.", query.Get("message"))
	assert.Equal(t, "Check the `email` scope", query.Get("hint"))
	assert.Empty(t, u.Fragment)

	// Redirect mode still writes the JSON body and keeps the error status.
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "invalid_scope", body["error"])
}

// TestPurpose: Verifies fragment-mode delivery places error parameters in the fragment and leaves the original query untouched.
// Scope: Unit Test
// Security: Implicit-flow error parameters must not reach the redirect target server.
// Expected: Query still foo=bar only; fragment carries error/message/hint.
func TestOAuth2_Render_RedirectFragmentMerge(t *testing.T) {
	e := oauth2.NewInvalidScope("email", "https://client.example/cb?foo=bar")

	resp, err := e.Render(nil, nil, true)
	require.NoError(t, err)

	location := resp.Header.Get("Location")
	base, frag, found := strings.Cut(location, "#")
	require.True(t, found, "location must carry a fragment")

	u, err := url.Parse(base)
	require.NoError(t, err)
	assert.Equal(t, "foo=bar", u.RawQuery)

	params, err := url.ParseQuery(frag)
	require.NoError(t, err)
	assert.Equal(t, "invalid_scope", params.Get("error"))
	assert.Equal(t, "Check the `email` scope", params.Get("hint"))
	assert.Empty(t, params.Get("foo"))
}

func TestOAuth2_Render_RedirectWithoutExistingQuery(t *testing.T) {
	e := oauth2.NewAccessDenied("", "https://client.example/cb")

	resp, err := e.Render(nil, nil, false)
	require.NoError(t, err)

	u, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "access_denied", u.Query().Get("error"))
}

// TestPurpose: Verifies payload keys overwrite colliding pre-existing query parameters on the redirect URI.
// Scope: Unit Test
// Expected: A stale error=old query value is replaced by the rendered error type.
func TestOAuth2_Render_PayloadWinsOnCollision(t *testing.T) {
	e := oauth2.NewAccessDenied("", "https://client.example/cb?error=old&state=xyz")

	resp, err := e.Render(nil, nil, false)
	require.NoError(t, err)

	u, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "access_denied", u.Query().Get("error"))
	assert.Equal(t, "xyz", u.Query().Get("state"))
}

func TestOAuth2_Render_MalformedRedirectURI(t *testing.T) {
	e := oauth2.NewAccessDenied("", "://not a uri")

	resp, err := e.Render(nil, nil, false)
	assert.Error(t, err)
	assert.Nil(t, resp)
}

// TestPurpose: Verifies rendering is idempotent: the same error rendered twice against fresh responses yields identical bodies and headers.
// Scope: Unit Test
// Expected: Byte-identical bodies, equal header sets.
func TestOAuth2_Render_Idempotent(t *testing.T) {
	e := oauth2.NewInvalidScope("email", "https://client.example/cb?foo=bar")

	first, err := e.Render(nil, nil, false)
	require.NoError(t, err)
	second, err := e.Render(nil, nil, false)
	require.NoError(t, err)

	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, first.Header, second.Header)
	assert.Equal(t, first.StatusCode, second.StatusCode)
}

// TestPurpose: Verifies a caller-supplied response-in-progress is built upon without mutating the original value.
// Scope: Unit Test
// Expected: Pre-set headers survive; the base response is untouched.
func TestOAuth2_Render_BuildsOnSuppliedResponse(t *testing.T) {
	base := oauth2.NewResponse().WithHeader("Cache-Control", "no-store")

	resp, err := oauth2.NewInvalidGrant().Render(base, nil, false)
	require.NoError(t, err)

	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Immutable-update: the base keeps its default status and empty body.
	assert.Equal(t, http.StatusOK, base.StatusCode)
	assert.Empty(t, base.Body)
}

func TestOAuth2_Response_Write(t *testing.T) {
	resp, err := oauth2.NewServerError("database unreachable").Render(nil, nil, false)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, resp.Write(w))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "database unreachable")
}
