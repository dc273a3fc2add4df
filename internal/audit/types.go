// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package audit

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// ErrEventNotFound is returned by Get for an unknown event id.
var ErrEventNotFound = errors.New("security event not found")

// Kind categorizes security events.
type Kind string

const (
	KindConnect           Kind = "connect"
	KindAuthSuccess       Kind = "auth-success"
	KindAuthFailure       Kind = "auth-failure"
	KindScoreUpdate       Kind = "score-update"
	KindAnomalyBlock      Kind = "anomaly-block"
	KindSessionTerminated Kind = "session-terminated"
	KindFeedback          Kind = "feedback"
	KindUserUnblocked     Kind = "user-unblocked"
)

// Severity indicates how urgently an analyst should look at an event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// DefaultSeverity returns the severity used when an event does not set one.
func (k Kind) DefaultSeverity() Severity {
	switch k {
	case KindAnomalyBlock:
		return SeverityCritical
	case KindAuthFailure, KindFeedback:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Event is one immutable security event.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"kind"`
	Severity  Severity  `json:"severity"`
	SessionID string    `json:"session_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`

	// RiskScore is set on score-update and anomaly-block events.
	RiskScore     *float64 `json:"risk_score,omitempty"`
	LowConfidence bool     `json:"low_confidence,omitempty"`
	ModelSource   string   `json:"model_source,omitempty"`
	ModelVersion  uint64   `json:"model_version,omitempty"`
	AlertLevel    string   `json:"alert_level,omitempty"`

	Reason     string          `json:"reason,omitempty"`
	RemoteAddr string          `json:"remote_addr,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
}

// Score returns the risk score, or 0 when the event carries none.
func (e *Event) Score() float64 {
	if e.RiskScore == nil {
		return 0
	}
	return *e.RiskScore
}

// WithScore sets the risk score and returns e.
func (e *Event) WithScore(score float64) *Event {
	e.RiskScore = &score
	return e
}

// Filter selects events for Query. Results are always newest first.
type Filter struct {
	Limit  int
	UserID string
	Kind   Kind
	Since  time.Time
}

func (f *Filter) matches(e *Event) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}

// Store persists security events.
type Store interface {
	// Save persists an event.
	Save(ctx context.Context, event *Event) error

	// Get retrieves an event by ID.
	Get(ctx context.Context, id string) (*Event, error)

	// Query returns matching events, newest first.
	Query(ctx context.Context, filter Filter) ([]Event, error)

	// Delete removes events older than the cutoff.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// Publisher receives every appended event. Implementations must not block.
type Publisher interface {
	PublishEvent(event *Event)
}
