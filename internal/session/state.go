// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package session

import (
	"time"

	"github.com/gorilla/websocket"
)

// State is a session's position in the protocol state machine.
type State string

const (
	StateConnecting     State = "connecting"
	StateAuthenticating State = "authenticating"
	StateActive         State = "active"
	StateBlocked        State = "blocked"
	StateTerminated     State = "terminated"
)

// Reason explains why a session was terminated. The string is sent to the
// client as is.
type Reason string

const (
	ReasonAuthFailed     Reason = "auth-failed"
	ReasonAnomaly        Reason = "anomaly"
	ReasonDisconnected   Reason = "disconnected"
	ReasonBlocked        Reason = "blocked"
	ReasonUserMismatch   Reason = "user-mismatch"
	ReasonProtocolError  Reason = "protocol-error"
	ReasonServerShutdown Reason = "server-shutdown"
)

// CloseCode returns the WebSocket close code sent with r.
func (r Reason) CloseCode() int {
	switch r {
	case ReasonDisconnected:
		return websocket.CloseNormalClosure
	case ReasonServerShutdown:
		return websocket.CloseGoingAway
	default:
		return websocket.ClosePolicyViolation
	}
}

// Info is a point-in-time description of a live session.
type Info struct {
	ID           string    `json:"session_id"`
	UserID       string    `json:"user_id,omitempty"`
	State        State     `json:"state"`
	RiskScore    float64   `json:"risk_score"`
	LastDecision time.Time `json:"last_decision"`
	ConnectedAt  time.Time `json:"connected_at"`
	RemoteAddr   string    `json:"remote_addr,omitempty"`
	Messages     int64     `json:"messages"`
}

// Decision is the outcome of the risk policy for one score.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionAlert Decision = "alert"
	DecisionBlock Decision = "block"
)

// Alert levels.
const (
	AlertMedium = "MEDIUM"
	AlertHigh   = "HIGH"
)

// Policy maps a risk score to a decision.
type Policy struct {
	Low  float64
	High float64
}

// Decide applies the thresholds: below Low allows, below High alerts,
// anything else blocks.
func (p Policy) Decide(score float64) Decision {
	switch {
	case score < p.Low:
		return DecisionAllow
	case score < p.High:
		return DecisionAlert
	default:
		return DecisionBlock
	}
}

func alertFor(d Decision) *Alert {
	switch d {
	case DecisionAlert:
		return &Alert{
			Level:   AlertMedium,
			Message: "Behavioral patterns slightly deviate from norm",
		}
	case DecisionBlock:
		return &Alert{
			Level:             AlertHigh,
			Message:           "Unusual behavioral patterns detected",
			RecommendedAction: "Require additional authentication",
		}
	default:
		return nil
	}
}
