// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Request structs for the query surface. Parameters are parsed into these
// and checked with go-playground/validator tags before any lookup runs:
//   - min,max: numeric bounds
//   - oneof: value must be one of the specified options
//   - userid: the user id charset shared with the telemetry socket
//   - omitempty: skip validation if field is empty/zero

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 500
)

// SecurityEventsRequest holds the validated query for GET /security-events.
//
// Fields:
//   - Limit: events to return (1-500, default 100)
//   - Username: only events of this user
//   - Kind: only events of this kind
//   - Since: only events at or after this instant (RFC3339)
type SecurityEventsRequest struct {
	Limit    int    `validate:"min=1,max=500"`
	Username string `validate:"omitempty,userid"`
	Kind     string `validate:"omitempty,oneof=connect auth-success auth-failure score-update anomaly-block session-terminated feedback user-unblocked"`
	Since    time.Time
}

// ProfileRequest holds the validated path parameter for profile routes.
type ProfileRequest struct {
	UserID string `validate:"required,userid"`
}

func parseSecurityEventsRequest(r *http.Request) (*SecurityEventsRequest, error) {
	q := r.URL.Query()
	req := &SecurityEventsRequest{
		Limit:    defaultEventLimit,
		Username: q.Get("username"),
		Kind:     q.Get("kind"),
	}

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: limit must be an integer", ErrInvalidParam)
		}
		req.Limit = n
	}
	if s := q.Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("%w: since must be RFC3339", ErrInvalidParam)
		}
		req.Since = t
	}
	return req, nil
}
