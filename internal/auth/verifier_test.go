// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenVerifier(t *testing.T) {
	m := newManager(t)
	token, err := m.GenerateToken("bob", "viewer")
	if err != nil {
		t.Fatal(err)
	}

	v := NewTokenVerifier(m, "legacy-static-token-value")

	tests := []struct {
		name    string
		token   string
		subject string
		legacy  bool
		wantErr bool
	}{
		{"jwt", token, "bob", false, false},
		{"jwt with bearer prefix", "Bearer " + token, "bob", false, false},
		{"legacy", "legacy-static-token-value", "", true, false},
		{"wrong legacy", "legacy-static-token-valuf", "", false, true},
		{"empty", "  ", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Verify(tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Errorf("error = %v, want ErrInvalidToken", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if id.Subject != tt.subject || id.Legacy != tt.legacy {
				t.Errorf("identity = %+v", id)
			}
		})
	}
}

func TestTokenVerifierWithoutLegacy(t *testing.T) {
	v := NewTokenVerifier(newManager(t), "")
	if _, err := v.Verify("anything"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestMiddlewareAuthenticate(t *testing.T) {
	m := newManager(t)
	token, err := m.GenerateToken("carol", "admin")
	if err != nil {
		t.Fatal(err)
	}

	var seen *Identity
	h := NewMiddleware(m).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no credentials", func(*http.Request) {}, http.StatusUnauthorized},
		{"bad scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, http.StatusUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: token}) }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusOK && (seen == nil || seen.Subject != "carol" || seen.Role != "admin") {
				t.Errorf("identity = %+v", seen)
			}
			if tt.status == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate header")
			}
		})
	}
}
