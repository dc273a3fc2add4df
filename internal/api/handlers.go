// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cadence/internal/audit"
	"github.com/tomtom215/cadence/internal/auth"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/profile"
	"github.com/tomtom215/cadence/internal/scoring"
	"github.com/tomtom215/cadence/internal/session"
	"github.com/tomtom215/cadence/internal/storage"
	"github.com/tomtom215/cadence/internal/validation"
	ws "github.com/tomtom215/cadence/internal/websocket"
)

// recentMonitorEvents is how many events the realtime monitor includes.
const recentMonitorEvents = 50

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers.go: Handler struct, constructor, query endpoints
//   - handlers_health.go: liveness and readiness probes
type Handler struct {
	events    *audit.Logger
	profiles  *profile.Store
	scorer    *scoring.Scorer
	sessions  *session.Handler
	wsHub     *ws.Hub
	store     *storage.Store // nil when running in memory only
	startTime time.Time
}

// Deps are the engine components the API reads from.
type Deps struct {
	Events   *audit.Logger
	Profiles *profile.Store
	Scorer   *scoring.Scorer
	Sessions *session.Handler
	Hub      *ws.Hub
	Store    *storage.Store
}

// NewHandler creates a new API handler.
//
// Example:
//
//	handler := api.NewHandler(api.Deps{Events: events, Profiles: profiles, ...})
//	router := api.NewRouter(handler, sessions, authMW, authzMW, chiMW)
//	http.ListenAndServe(":8080", router.SetupChi())
func NewHandler(d Deps) *Handler {
	return &Handler{
		events:    d.Events,
		profiles:  d.Profiles,
		scorer:    d.Scorer,
		sessions:  d.Sessions,
		wsHub:     d.Hub,
		store:     d.Store,
		startTime: time.Now(),
	}
}

// SecurityEvents returns recent security events, newest first.
//
// @Summary List security events
// @Tags Security
// @Produce json
// @Param limit query int false "Events to return (1-500)" default(100)
// @Param username query string false "Only events of this user"
// @Param kind query string false "Only events of this kind"
// @Param since query string false "RFC3339 lower bound"
// @Success 200 {object} APIResponse{data=[]audit.Event}
// @Failure 400 {object} APIResponse
// @Router /security-events [get]
func (h *Handler) SecurityEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req, err := parseSecurityEventsRequest(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	// One extra row tells us whether more events match.
	events, err := h.events.Query(r.Context(), audit.Filter{
		Limit:  req.Limit + 1,
		UserID: req.Username,
		Kind:   audit.Kind(req.Kind),
		Since:  req.Since,
	})
	if err != nil {
		rw.StorageError(err)
		return
	}

	hasMore := len(events) > req.Limit
	if hasMore {
		events = events[:req.Limit]
	}
	rw.SuccessWithPagination(events, &PaginationMeta{
		Count:   len(events),
		Limit:   req.Limit,
		HasMore: hasMore,
	})
}

// MonitorRuntime is the live engine state in the realtime monitor.
type MonitorRuntime struct {
	SessionsActive     int     `json:"sessions_active"`
	ProfilesTotal      int     `json:"profiles_total"`
	ProfilesTrained    int     `json:"profiles_trained"`
	ProfilesBlocked    int     `json:"profiles_blocked"`
	GlobalModelVersion uint64  `json:"global_model_version"`
	MonitorClients     int     `json:"monitor_clients"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
}

// MonitorSnapshot is the body of GET /realtime-monitor.
type MonitorSnapshot struct {
	Counters     map[string]int64 `json:"counters"`
	Runtime      MonitorRuntime   `json:"runtime"`
	RecentEvents []audit.Event    `json:"recent_events"`
}

// RealtimeMonitor returns counters, runtime state and the latest events.
//
// @Summary Realtime monitor snapshot
// @Tags Security
// @Produce json
// @Success 200 {object} APIResponse{data=MonitorSnapshot}
// @Router /realtime-monitor [get]
func (h *Handler) RealtimeMonitor(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.monitorSnapshot())
}

func (h *Handler) monitorSnapshot() MonitorSnapshot {
	stats := h.profiles.Stats()

	var globalVersion uint64
	if m := h.scorer.Global(); m != nil {
		globalVersion = m.Meta().Version
	}

	rt := MonitorRuntime{
		SessionsActive: h.sessions.Registry().Len(),
		ProfilesTotal:  stats.Total,
		// Stale profiles still score with their last model.
		ProfilesTrained:    stats.Trained + stats.Stale,
		ProfilesBlocked:    stats.Blocked,
		GlobalModelVersion: globalVersion,
		UptimeSeconds:      time.Since(h.startTime).Seconds(),
	}
	if h.wsHub != nil {
		rt.MonitorClients = h.wsHub.GetClientCount()
	}

	return MonitorSnapshot{
		Counters:     h.sessions.Counters().Snapshot(),
		Runtime:      rt,
		RecentEvents: h.events.Recent(recentMonitorEvents),
	}
}

// ProfileResponse describes one user's profile.
type ProfileResponse struct {
	UserID       string    `json:"user_id"`
	State        string    `json:"state"`
	HistoryLen   int       `json:"history_len"`
	SinceTrain   int       `json:"vectors_since_train"`
	ModelVersion uint64    `json:"model_version"`
	Algorithm    string    `json:"algorithm,omitempty"`
	LastTrained  time.Time `json:"last_trained,omitempty"`
	Blocked      bool      `json:"blocked"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func profileResponse(v *profile.View) ProfileResponse {
	out := ProfileResponse{
		UserID:       v.UserID,
		State:        string(v.State),
		HistoryLen:   v.HistoryLen,
		SinceTrain:   v.SinceTrain,
		ModelVersion: v.ModelVersion,
		LastTrained:  v.LastTrained,
		Blocked:      v.Blocked,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
	if v.Model != nil {
		out.Algorithm = v.Model.Meta().Algorithm
	}
	return out
}

// profileUserID reads and validates the {userId} path parameter.
func profileUserID(rw *ResponseWriter, r *http.Request) (string, bool) {
	req := ProfileRequest{UserID: chi.URLParam(r, "userId")}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return "", false
	}
	return req.UserID, true
}

// Profile returns one user's profile state.
//
// @Summary Get a behavioral profile
// @Tags Profiles
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} APIResponse{data=ProfileResponse}
// @Failure 404 {object} APIResponse
// @Router /profiles/{userId} [get]
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, ok := profileUserID(rw, r)
	if !ok {
		return
	}

	v, err := h.profiles.Get(userID)
	if errors.Is(err, profile.ErrNotFound) {
		rw.NotFound("profile not found")
		return
	}
	if err != nil {
		rw.InternalError("failed to load profile")
		return
	}
	rw.Success(profileResponse(v))
}

// UnblockProfile clears a user's block so new sessions may bind to it.
//
// @Summary Unblock a user
// @Tags Profiles
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} APIResponse{data=ProfileResponse}
// @Failure 404 {object} APIResponse
// @Router /profiles/{userId}/unblock [post]
func (h *Handler) UnblockProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, ok := profileUserID(rw, r)
	if !ok {
		return
	}

	prev, err := h.profiles.Get(userID)
	if errors.Is(err, profile.ErrNotFound) {
		rw.NotFound("profile not found")
		return
	}
	if err != nil {
		rw.InternalError("failed to load profile")
		return
	}

	v, err := h.profiles.SetBlocked(r.Context(), userID, false)
	if err != nil {
		rw.InternalError("failed to unblock profile")
		return
	}

	if prev.Blocked {
		actor := ""
		if id, ok := auth.IdentityFromContext(r.Context()); ok {
			actor = id.Subject
		}
		h.events.Append(&audit.Event{
			Kind:       audit.KindUserUnblocked,
			UserID:     userID,
			Reason:     "unblocked by " + actor,
			RemoteAddr: r.RemoteAddr,
		})
		logging.Ctx(r.Context()).Info().
			Str("user_id", logging.Sanitize(userID)).
			Str("actor", logging.Sanitize(actor)).
			Msg("Profile unblocked")
	}
	rw.Success(profileResponse(v))
}

// Sessions lists the live telemetry sessions, oldest first.
//
// @Summary List active sessions
// @Tags Sessions
// @Produce json
// @Success 200 {object} APIResponse{data=[]session.Info}
// @Router /sessions [get]
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	list := h.sessions.Registry().List()
	NewResponseWriter(w, r).SuccessWithPagination(list, &PaginationMeta{Count: len(list)})
}

// MonitorWS upgrades to the live security event stream.
//
// @Summary Security event stream
// @Tags Security
// @Router /monitor/ws [get]
func (h *Handler) MonitorWS(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		NewResponseWriter(w, r).ServiceUnavailable("monitor stream is not running")
		return
	}
	subject := ""
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		subject = id.Subject
	}
	h.wsHub.ServeWS(w, r, subject)
}
