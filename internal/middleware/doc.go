// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package middleware provides HTTP middleware shared by every route.

  - RequestID: honors an upstream X-Request-ID (when it looks sane) or
    generates a UUID, echoes it on the response and stores it on the
    context for logging.Ctx.
  - PrometheusMetrics: counts requests and observes latency labelled by
    the chi route pattern, so /api/v1/profiles/{userId} is one series no
    matter how many users exist.

The response wrapper used for metrics forwards http.Hijacker, which the
WebSocket upgrades on /ws and /api/v1/monitor/ws depend on.

Typical chi wiring:

	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
