// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package session

import (
	"testing"

	"github.com/gorilla/websocket"
)

func TestPolicyDecide(t *testing.T) {
	p := Policy{Low: 0.3, High: 0.7}
	tests := []struct {
		score float64
		want  Decision
	}{
		{0, DecisionAllow},
		{0.29, DecisionAllow},
		{0.3, DecisionAlert},
		{0.69, DecisionAlert},
		{0.7, DecisionBlock},
		{1, DecisionBlock},
	}
	for _, tt := range tests {
		if got := p.Decide(tt.score); got != tt.want {
			t.Errorf("Decide(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestReasonCloseCode(t *testing.T) {
	tests := []struct {
		reason Reason
		want   int
	}{
		{ReasonAuthFailed, websocket.ClosePolicyViolation},
		{ReasonAnomaly, websocket.ClosePolicyViolation},
		{ReasonBlocked, websocket.ClosePolicyViolation},
		{ReasonUserMismatch, websocket.ClosePolicyViolation},
		{ReasonProtocolError, websocket.ClosePolicyViolation},
		{ReasonDisconnected, websocket.CloseNormalClosure},
		{ReasonServerShutdown, websocket.CloseGoingAway},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			if got := tt.reason.CloseCode(); got != tt.want {
				t.Errorf("CloseCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAlertFor(t *testing.T) {
	if a := alertFor(DecisionAllow); a != nil {
		t.Errorf("allow alert = %+v, want nil", a)
	}
	if a := alertFor(DecisionAlert); a == nil || a.Level != AlertMedium {
		t.Errorf("alert level = %+v, want MEDIUM", a)
	}
	if a := alertFor(DecisionBlock); a == nil || a.Level != AlertHigh {
		t.Errorf("block level = %+v, want HIGH", a)
	}
}
