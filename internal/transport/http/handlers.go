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

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/authward/authward/internal/oauth2"
	"github.com/authward/authward/internal/observability/logger"
	"github.com/authward/authward/internal/observability/metrics"
)

// TokenService processes a token request envelope that passed
// classification. A *oauth2.Error return is rendered as a protocol
// error; any other error becomes server_error with an incident id.
type TokenService interface {
	Exchange(ctx context.Context, req *oauth2.TokenRequest) (*oauth2.TokenResponse, error)
}

// AuthorizeService processes an authorization request envelope that
// passed classification and returns the location to redirect the user
// agent to on success.
type AuthorizeService interface {
	Authorize(ctx context.Context, req *oauth2.AuthorizeRequest) (string, error)
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	tokenService     TokenService
	authorizeService AuthorizeService
	grantTypes       map[string]bool
	scopes           map[string]bool
	errorCounter     metric.Int64Counter
}

// Options holds the protocol knobs the handler classifies against.
type Options struct {
	// SupportedGrantTypes is the closed set the token endpoint accepts.
	SupportedGrantTypes []string
	// SupportedScopes is the closed set the authorize endpoint accepts;
	// empty disables scope envelope validation.
	SupportedScopes []string
}

// NewHandler creates a new HTTP handler
func NewHandler(tokenService TokenService, authorizeService AuthorizeService, opts Options, meter *metrics.Meter) *Handler {
	h := &Handler{
		tokenService:     tokenService,
		authorizeService: authorizeService,
		grantTypes:       make(map[string]bool, len(opts.SupportedGrantTypes)),
		scopes:           make(map[string]bool, len(opts.SupportedScopes)),
	}
	for _, gt := range opts.SupportedGrantTypes {
		h.grantTypes[gt] = true
	}
	for _, s := range opts.SupportedScopes {
		h.scopes[s] = true
	}

	if meter != nil {
		counter, err := meter.CreateCounter(
			"oauth2_protocol_errors_total",
			"Protocol errors rendered, by error type",
		)
		if err != nil {
			slog.Error("failed to create protocol error counter", logger.Error(err))
		} else {
			h.errorCounter = counter
		}
	}

	return h
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter, requestDuration metric.Float64Histogram) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware(requestDuration))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.HealthCheck)

	// OAuth2 endpoints (RFC 6749)
	r.Route("/oauth2", func(r chi.Router) {
		// RFC 6749 Section 4.1.1
		r.Get("/authorize", h.Authorize)
		// RFC 6749 Section 4.1.3
		r.Post("/token", h.Token)
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "authward",
	})
}

// Token handles the token endpoint: classify the request envelope,
// delegate issuance, and translate every failure into a wire-correct
// protocol error response.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respondProtocolError(w, r, oauth2.NewInvalidRequest("request", "The request body could not be parsed"), false)
		return
	}

	clientID := r.Form.Get("client_id")
	clientSecret := r.Form.Get("client_secret")

	// Client credentials may arrive via Basic Auth instead of the body
	// (RFC 6749 Section 2.3.1).
	if clientID == "" {
		username, password, ok := r.BasicAuth()
		if ok {
			clientID = username
			clientSecret = password
		}
	}

	req := &oauth2.TokenRequest{
		GrantType:    r.Form.Get("grant_type"),
		Code:         r.Form.Get("code"),
		RedirectURI:  r.Form.Get("redirect_uri"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RefreshToken: r.Form.Get("refresh_token"),
		Scope:        r.Form.Get("scope"),
	}

	if req.GrantType == "" {
		h.respondProtocolError(w, r, oauth2.NewInvalidRequest("grant_type", ""), false)
		return
	}
	if !h.grantTypes[req.GrantType] {
		h.respondProtocolError(w, r, oauth2.NewUnsupportedGrantType(), false)
		return
	}
	if req.ClientID == "" {
		h.respondProtocolError(w, r, oauth2.NewInvalidClient(), false)
		return
	}
	if req.GrantType == "refresh_token" && req.RefreshToken == "" {
		h.respondProtocolError(w, r, oauth2.NewInvalidRequest("refresh_token", ""), false)
		return
	}

	resp, err := h.tokenService.Exchange(r.Context(), req)
	if err != nil {
		slog.ErrorContext(r.Context(), "token request failed",
			logger.Error(err),
			logger.GrantType(req.GrantType),
			logger.ClientID(req.ClientID),
		)
		h.respondServiceError(w, r, err, false)
		return
	}

	// Prevent caching (RFC 6749 Section 5.1)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")

	respondJSON(w, http.StatusOK, resp)
}

// Authorize handles the authorization endpoint. Failures tied to a
// trusted redirect URI are delivered by redirecting the user agent with
// the error merged into the callback; fragment mode is used for
// implicit-style requests.
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &oauth2.AuthorizeRequest{
		ClientID:     query.Get("client_id"),
		RedirectURI:  query.Get("redirect_uri"),
		ResponseType: query.Get("response_type"),
		Scope:        query.Get("scope"),
		State:        query.Get("state"),
	}

	useFragment := req.ResponseType == "token"

	// Without a client_id or redirect_uri there is no trusted callback,
	// so these render as plain JSON errors.
	if req.ClientID == "" {
		h.respondProtocolError(w, r, oauth2.NewInvalidRequest("client_id", ""), false)
		return
	}
	if req.RedirectURI == "" {
		h.respondProtocolError(w, r, oauth2.NewInvalidRequest("redirect_uri", ""), false)
		return
	}
	if req.ResponseType == "" {
		h.respondProtocolError(w, r, oauth2.NewInvalidRequest("response_type", ""), false)
		return
	}

	if len(h.scopes) > 0 && req.Scope != "" && !h.scopes[req.Scope] {
		h.respondProtocolError(w, r, oauth2.NewInvalidScope(req.Scope, req.RedirectURI), useFragment)
		return
	}

	location, err := h.authorizeService.Authorize(r.Context(), req)
	if err != nil {
		slog.ErrorContext(r.Context(), "authorize request failed",
			logger.Error(err),
			logger.ClientID(req.ClientID),
			logger.RedirectURI(req.RedirectURI),
		)
		h.respondServiceError(w, r, err, useFragment)
		return
	}

	http.Redirect(w, r, location, http.StatusFound)
}

// respondServiceError translates a service failure: protocol errors
// render as-is, anything else becomes server_error carrying a fresh
// incident id that is also logged for correlation.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, useFragment bool) {
	var perr *oauth2.Error
	if errors.As(err, &perr) {
		h.respondProtocolError(w, r, perr, useFragment)
		return
	}

	incidentID := uuid.NewString()
	slog.ErrorContext(r.Context(), "unexpected service failure",
		logger.Error(err),
		logger.IncidentID(incidentID),
	)
	h.respondProtocolError(w, r, oauth2.NewServerError("unexpected failure, incident "+incidentID), false)
}

// respondProtocolError renders a classified protocol error onto the
// wire and records it.
func (h *Handler) respondProtocolError(w http.ResponseWriter, r *http.Request, perr *oauth2.Error, useFragment bool) {
	if h.errorCounter != nil {
		h.errorCounter.Add(r.Context(), 1,
			metric.WithAttributes(attribute.String("error_type", perr.ErrorType())),
		)
	}

	slog.InfoContext(r.Context(), "protocol error rendered",
		logger.ErrorType(perr.ErrorType()),
		logger.ScenarioCode(perr.Code()),
		logger.StatusCode(perr.HTTPStatusCode()),
	)

	resp, err := perr.Render(nil, r, useFragment)
	if err != nil {
		// Rendering only fails on a malformed redirect URI; fall back to
		// plain JSON delivery of a server_error, which cannot fail.
		slog.ErrorContext(r.Context(), "failed to render protocol error",
			logger.Error(err),
			logger.ErrorType(perr.ErrorType()),
		)
		resp, _ = oauth2.NewServerError("failed to render the error response").Render(nil, nil, false)
	}

	if err := resp.Write(w); err != nil {
		slog.ErrorContext(r.Context(), "failed to write response", logger.Error(err))
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
