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
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/authward/authward/internal/oauth2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Verifies the WWW-Authenticate challenge mirrors the scheme the client attempted (RFC 6749 Section 5.2).
// Scope: Unit Test
// Security: Challenge header must match the client's authentication mechanism.
// Expected: Bearer/MAC/Basic prefixes map to matching challenges; unknown schemes and missing requests omit the header.
func TestOAuth2_Challenge_SchemeFromAuthorizationHeader(t *testing.T) {
	tests := []struct {
		name          string
		authorization string
		want          string
	}{
		{"bearer", "Bearer abc123", `Bearer realm="OAuth"`},
		{"mac", "MAC id=h480djs93hd8", `MAC realm="OAuth"`},
		{"basic", "Basic dXNlcjpwYXNz", `Basic realm="OAuth"`},
		{"unknown scheme", "Digest nonce=abc", ""},
		{"no header", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/oauth2/token", nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}

			headers := oauth2.NewInvalidClient().Headers(req)
			assert.Equal(t, tt.want, headers.Get("WWW-Authenticate"))
			assert.Equal(t, "application/json", headers.Get("Content-Type"))
		})
	}
}

func TestOAuth2_Challenge_NilRequestOmitsHeader(t *testing.T) {
	headers := oauth2.NewInvalidClient().Headers(nil)
	assert.Empty(t, headers.Get("WWW-Authenticate"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
}

// TestPurpose: Verifies basic credentials carried in the request URL userinfo resolve to a Basic challenge even without an Authorization header.
// Scope: Unit Test
// Expected: Scheme is Basic.
func TestOAuth2_Challenge_BasicFromURLUserinfo(t *testing.T) {
	req := httptest.NewRequest("POST", "/oauth2/token", nil)
	req.URL.User = url.UserPassword("client-1", "secret")

	headers := oauth2.NewInvalidClient().Headers(req)
	assert.Equal(t, `Basic realm="OAuth"`, headers.Get("WWW-Authenticate"))
}

func TestOAuth2_Challenge_OnlyInvalidClient(t *testing.T) {
	req := httptest.NewRequest("POST", "/oauth2/token", nil)
	req.Header.Set("Authorization", "Bearer abc123")

	for _, e := range []*oauth2.Error{
		oauth2.NewInvalidGrant(),
		oauth2.NewUnsupportedGrantType(),
		oauth2.NewInvalidRequest("grant_type", ""),
		oauth2.NewInvalidScope("email", ""),
		oauth2.NewInvalidCredentials(),
		oauth2.NewServerError("boom"),
		oauth2.NewInvalidRefreshToken(""),
		oauth2.NewAccessDenied("", ""),
	} {
		headers := e.Headers(req)
		assert.Empty(t, headers.Get("WWW-Authenticate"), "no challenge for %s (code %d)", e.ErrorType(), e.Code())
	}
}

// TestPurpose: Verifies invalid_client rendered through the full renderer carries the challenge computed from the original request.
// Scope: Unit Test
// Expected: WWW-Authenticate present with request, absent without.
func TestOAuth2_Challenge_ThroughRender(t *testing.T) {
	req := httptest.NewRequest("POST", "/oauth2/token", nil)
	req.Header.Set("Authorization", "Bearer abc123")

	resp, err := oauth2.NewInvalidClient().Render(nil, req, false)
	require.NoError(t, err)
	assert.Equal(t, `Bearer realm="OAuth"`, resp.Header.Get("WWW-Authenticate"))

	resp, err = oauth2.NewInvalidClient().Render(nil, nil, false)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("WWW-Authenticate"))
}
