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
	"net/http"
	"strings"
)

// Realm echoed back in WWW-Authenticate challenges.
const realm = "OAuth"

// Headers computes the response headers for the error without rendering
// the full response. Content-Type is always present. For invalid_client
// the original request, when supplied, is inspected to determine the
// authentication scheme the client attempted, and a matching
// WWW-Authenticate challenge is added (RFC 6749 Section 5.2). This is
// the only place the inbound request is read.
func (e *Error) Headers(req *http.Request) http.Header {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	if e.errorType == ErrInvalidClient {
		if scheme := challengeScheme(req); scheme != "" {
			headers.Set("WWW-Authenticate", scheme+` realm="`+realm+`"`)
		}
	}

	return headers
}

// challengeScheme determines which authentication scheme the client
// used. Credentials in the request URL's userinfo section count as
// Basic even without an Authorization header; otherwise the first
// Authorization header value is matched by prefix. "" means no scheme
// could be determined and the challenge is omitted.
func challengeScheme(req *http.Request) string {
	if req == nil {
		return ""
	}

	if user := req.URL.User; user != nil && user.Username() != "" {
		return "Basic"
	}

	auth := req.Header.Get("Authorization")
	switch {
	case strings.HasPrefix(auth, "Bearer"):
		return "Bearer"
	case strings.HasPrefix(auth, "MAC"):
		return "MAC"
	case strings.HasPrefix(auth, "Basic"):
		return "Basic"
	}

	return ""
}
