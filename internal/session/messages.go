// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package session

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/features"
	"github.com/tomtom215/cadence/internal/model"
	"github.com/tomtom215/cadence/internal/scoring"
)

// Inbound message types.
const (
	TypeAuth               = "auth"
	TypeUserAuthentication = "user_authentication"
	TypeBehavioralData     = "behavioral_data"
	TypeFeedback           = "feedback"
)

// Outbound message types.
const (
	TypeAuthSuccess           = "auth_success"
	TypeAuthenticationSuccess = "authentication_success"
	TypeAnalysisResult        = "analysis_result"
	TypeFeedbackReceived      = "feedback_received"
	TypeSessionTerminated     = "session_terminated"
	TypeError                 = "error"
)

// Generic error messages sent to clients. Internal failures are never
// reported verbatim.
const (
	ErrMsgInvalidMessage      = "invalid message"
	ErrMsgNotAuthenticated    = "not authenticated"
	ErrMsgUnsupportedType     = "unsupported message type"
	ErrMsgRateLimited         = "rate limited"
	ErrMsgAnalysisUnavailable = "analysis unavailable"
)

// Feedback values.
const (
	FeedbackGenuine  = "genuine"
	FeedbackImpostor = "impostor"
)

// envelope is decoded first to route a frame by type and check the
// claimed user before the full body is parsed.
type envelope struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// AuthMessage must be the first frame on a connection.
type AuthMessage struct {
	Type  string `json:"type" validate:"omitempty,eq=auth"`
	Token string `json:"token" validate:"required,max=8192"`
}

// UserAuthenticationMessage binds the session to a user profile.
type UserAuthenticationMessage struct {
	Type      string `json:"type"`
	UserID    string `json:"userId" validate:"required,userid"`
	SessionID string `json:"sessionId" validate:"omitempty,max=128"`
}

// Telemetry is one client flush of raw input events.
type Telemetry struct {
	KeystrokeData []features.KeystrokeEvent `json:"keystrokeData" validate:"max=4096,dive"`
	MouseData     []features.MouseEvent     `json:"mouseData" validate:"max=4096,dive"`
}

// Batch converts the wire arrays into an extractor batch for sessionID.
func (t *Telemetry) Batch(sessionID string) features.Batch {
	return features.FromTelemetry(sessionID, t.KeystrokeData, t.MouseData)
}

// BehavioralDataMessage carries telemetry for scoring.
type BehavioralDataMessage struct {
	Type      string `json:"type"`
	UserID    string `json:"userId" validate:"omitempty,userid"`
	SessionID string `json:"sessionId" validate:"omitempty,max=128"`
	Telemetry
	Timestamp float64 `json:"timestamp"`
}

// FeedbackMessage labels recent behavior as genuine or not.
type FeedbackMessage struct {
	Type           string     `json:"type"`
	UserID         string     `json:"userId" validate:"omitempty,userid"`
	SessionID      string     `json:"sessionId" validate:"omitempty,max=128"`
	Feedback       string     `json:"feedback" validate:"required,oneof=genuine impostor"`
	BehavioralData *Telemetry `json:"behavioralData,omitempty" validate:"omitempty"`
}

// Alert is the advisory attached to an elevated score.
type Alert struct {
	Level             string `json:"level"`
	Message           string `json:"message"`
	RecommendedAction string `json:"recommended_action,omitempty"`
}

// RiskExplanation tells the client which model produced a score.
type RiskExplanation struct {
	Source        scoring.Source       `json:"source"`
	ModelVersion  uint64               `json:"modelVersion"`
	LowConfidence bool                 `json:"lowConfidence"`
	TopFeatures   []model.Contribution `json:"topFeatures,omitempty"`
}

// AnalysisResult is sent after every scoring pass.
type AnalysisResult struct {
	Type            string          `json:"type"`
	SessionID       string          `json:"sessionId"`
	RiskScore       float64         `json:"riskScore"`
	Alert           *Alert          `json:"alert,omitempty"`
	RiskExplanation RiskExplanation `json:"riskExplanation"`
	Timestamp       time.Time       `json:"timestamp"`
}

// SessionTerminated is the last frame before the server closes.
type SessionTerminated struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId,omitempty"`
	RiskScore *float64  `json:"riskScore,omitempty"`
	Reason    Reason    `json:"reason"`
	Blocked   bool      `json:"blocked"`
	Timestamp time.Time `json:"timestamp"`
}

// AuthSuccess acknowledges the token.
type AuthSuccess struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// AuthenticationSuccess acknowledges a user binding.
type AuthenticationSuccess struct {
	Type         string `json:"type"`
	UserID       string `json:"userId"`
	ProfileState string `json:"profileState"`
}

// FeedbackReceived acknowledges feedback.
type FeedbackReceived struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ErrorMessage reports a protocol error.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func encode(v any) ([]byte, error) {
	return json.Marshal(v)
}
