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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/authward/authward/internal/config"
	"github.com/authward/authward/internal/oauth2"
	"github.com/authward/authward/internal/observability/logger"
	"github.com/authward/authward/internal/observability/metrics"
	"github.com/authward/authward/internal/observability/tracing"
	transportHTTP "github.com/authward/authward/internal/transport/http"
)

// rejectingBackend is the built-in service wiring: it terminates every
// well-formed request with a classified protocol error. This build
// ships no grant processing, so the server acts as an error-conformance
// endpoint for exercising client-side error handling against
// wire-correct RFC 6749 responses.
type rejectingBackend struct{}

func (rejectingBackend) Exchange(ctx context.Context, req *oauth2.TokenRequest) (*oauth2.TokenResponse, error) {
	if req.GrantType == "refresh_token" {
		return nil, oauth2.NewInvalidRefreshToken("no refresh tokens have been issued by this instance")
	}
	return nil, oauth2.NewInvalidGrant()
}

func (rejectingBackend) Authorize(ctx context.Context, req *oauth2.AuthorizeRequest) (string, error) {
	return "", oauth2.NewAccessDenied("this instance issues no authorization grants", req.RedirectURI)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting authward protocol error front")

	ctx := context.Background()

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	var requestDuration metric.Float64Histogram
	if meter != nil {
		requestDuration, err = meter.CreateHistogram(
			"http_request_duration_ms",
			"HTTP request duration",
			"ms",
		)
		if err != nil {
			slog.Error("failed to create request duration histogram", logger.Error(err))
		}
	}

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	handler := transportHTTP.NewHandler(
		rejectingBackend{},
		rejectingBackend{},
		transportHTTP.Options{
			SupportedGrantTypes: cfg.OAuth2.SupportedGrantTypes,
			SupportedScopes:     cfg.OAuth2.SupportedScopes,
		},
		meter,
	)

	router := transportHTTP.NewRouter(handler, rateLimiter, requestDuration)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}
