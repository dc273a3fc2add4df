// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

type eventsQuery struct {
	Limit    int    `json:"limit" validate:"min=1,max=500"`
	Username string `json:"username" validate:"omitempty,userid"`
}

type bindMessage struct {
	UserID    string `json:"userId" validate:"required,userid"`
	SessionID string `json:"sessionId" validate:"omitempty,max=128"`
	Feedback  string `json:"feedback" validate:"omitempty,oneof=genuine impostor"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantTag   string
	}{
		{"valid query", &eventsQuery{Limit: 50, Username: "alice"}, "", ""},
		{"limit too low", &eventsQuery{Limit: 0}, "limit", "min"},
		{"limit too high", &eventsQuery{Limit: 501}, "limit", "max"},
		{"username with space", &eventsQuery{Limit: 1, Username: "a b"}, "username", "userid"},
		{"valid bind", &bindMessage{UserID: "user-42", Feedback: "genuine"}, "", ""},
		{"missing user", &bindMessage{}, "userId", "required"},
		{"bad feedback", &bindMessage{UserID: "u", Feedback: "maybe"}, "feedback", "oneof"},
		{"long session", &bindMessage{UserID: "u", SessionID: strings.Repeat("s", 129)}, "sessionId", "max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors: %v", len(errs), err)
			}
			if errs[0].Field() != tt.wantField || errs[0].Tag() != tt.wantTag {
				t.Errorf("error = %s/%s, want %s/%s", errs[0].Field(), errs[0].Tag(), tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	err := ValidateStruct(&eventsQuery{Limit: 0, Username: "bad id"})
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "limit") || !strings.Contains(apiErr.Message, "username") {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestValidUserID(t *testing.T) {
	tests := map[string]bool{
		"alice":                  true,
		"user@example.com":       true,
		"jose.garcia":            true,
		"":                       false,
		"has space":              false,
		"tab\tchar":              false,
		"nul\x00":                false,
		strings.Repeat("x", 128): true,
		strings.Repeat("x", 129): false,
	}
	for id, want := range tests {
		if got := ValidUserID(id); got != want {
			t.Errorf("ValidUserID(%q) = %v, want %v", id, got, want)
		}
	}
}
