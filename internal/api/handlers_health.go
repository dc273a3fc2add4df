// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/cadence/internal/logging"
)

// ReadinessStatus is the body of the readiness probe.
type ReadinessStatus struct {
	Ready          bool    `json:"ready"`
	Storage        string  `json:"storage"`
	Sessions       string  `json:"sessions"`
	ProfilesLoaded int     `json:"profiles_loaded"`
	GlobalModel    bool    `json:"global_model"`
	Uptime         float64 `json:"uptime"`
}

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
//
// @Summary Kubernetes liveness probe
// @Tags Core
// @Produce json
// @Success 200 {object} APIResponse "Service is alive"
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style)
// Returns 200 OK only while storage answers and sessions are accepted
//
// @Summary Kubernetes readiness probe
// @Tags Core
// @Produce json
// @Success 200 {object} APIResponse{data=ReadinessStatus} "Service is ready"
// @Failure 503 {object} APIResponse "Service is not ready"
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := ReadinessStatus{
		Ready:          true,
		Storage:        "memory",
		Sessions:       "accepting",
		ProfilesLoaded: h.profiles.Len(),
		GlobalModel:    h.scorer.Global() != nil,
		Uptime:         time.Since(h.startTime).Seconds(),
	}

	if h.store != nil {
		if err := h.store.Ping(); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness: storage ping failed")
			status.Storage = "unavailable"
			status.Ready = false
		} else {
			status.Storage = "badger"
		}
	}
	if h.sessions.Draining() {
		status.Sessions = "draining"
		status.Ready = false
	}

	if !status.Ready {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "service not ready", status)
		return
	}
	rw.Success(status)
}
