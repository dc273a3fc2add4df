// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package api provides the HTTP surface: the telemetry socket, the
// privileged query endpoints, health probes and Prometheus metrics.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cadence/internal/auth"
	"github.com/tomtom215/cadence/internal/authz"
	"github.com/tomtom215/cadence/internal/middleware"
)

// Router holds everything SetupChi mounts.
type Router struct {
	handler       *Handler
	telemetry     http.Handler
	auth          *auth.Middleware
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. telemetry serves the behavioral socket.
func NewRouter(handler *Handler, telemetry http.Handler, authMW *auth.Middleware, authzMW *authz.Middleware, chiMW *ChiMiddleware) *Router {
	return &Router{
		handler:       handler,
		telemetry:     telemetry,
		auth:          authMW,
		authz:         authzMW,
		chiMiddleware: chiMW,
	}
}

// SetupChi configures all HTTP routes using Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order
	r.Use(middleware.RequestID)        // X-Request-ID header with logging context
	r.Use(chimiddleware.RealIP)        // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// ========================
	// Telemetry Socket
	// ========================
	// The token arrives as the first frame, so no auth middleware here.
	r.With(router.chiMiddleware.RateLimitCustom(RateLimitWebSocket)).
		Get("/ws", router.telemetry.ServeHTTP)

	// ========================
	// Privileged Query Surface
	// ========================
	// Bearer token plus Casbin role check on every route
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.auth.Authenticate)
		r.Use(router.authz.AuthorizeRequest)

		r.Get("/security-events", router.handler.SecurityEvents)
		r.Get("/realtime-monitor", router.handler.RealtimeMonitor)
		r.Get("/sessions", router.handler.Sessions)
		r.Get("/profiles/{userId}", router.handler.Profile)
		r.With(router.chiMiddleware.RateLimitCustom(RateLimitWrite)).
			Post("/profiles/{userId}/unblock", router.handler.UnblockProfile)
		r.Get("/monitor/ws", router.handler.MonitorWS)
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	return r
}
