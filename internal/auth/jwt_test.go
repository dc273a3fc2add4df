// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/cadence/internal/config"
)

const testSecret = "this_is_a_very_long_secret_key_with_32_plus_characters"

func newManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return m
}

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestNewJWTManager(t *testing.T) {
	if _, err := NewJWTManager(&config.SecurityConfig{}); err == nil {
		t.Error("expected error for empty secret")
	}
	if m := newManager(t); m == nil {
		t.Fatal("nil manager")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newManager(t)
	token, err := m.GenerateToken("alice", "analyst")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Identity() != "alice" || claims.Role != "analyst" || claims.Type != TokenTypeAccess {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	m := newManager(t)
	now := time.Now()
	valid := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("another_secret_that_is_long_enough_123"),
			&Claims{Type: TokenTypeAccess, RegisteredClaims: valid()})},
		{"expired", sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
			Type: TokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "alice",
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
			},
		})},
		{"no expiry", sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
			Type:             TokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"},
		})},
		{"refresh token", sign(t, jwt.SigningMethodHS256, []byte(testSecret),
			&Claims{Type: "refresh", RegisteredClaims: valid()})},
		{"no subject", sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
			Type:             TokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		})},
		{"hs512", sign(t, jwt.SigningMethodHS512, []byte(testSecret),
			&Claims{Type: TokenTypeAccess, RegisteredClaims: valid()})},
		{"alg none", sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType,
			&Claims{Type: TokenTypeAccess, RegisteredClaims: valid()})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ValidateToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestClaimsIdentityFallbacks(t *testing.T) {
	tests := []struct {
		claims Claims
		want   string
	}{
		{Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "sub"}, UserID: "uid", Username: "name"}, "sub"},
		{Claims{UserID: "uid", Username: "name"}, "uid"},
		{Claims{Username: "name"}, "name"},
	}
	for _, tt := range tests {
		if got := tt.claims.Identity(); got != tt.want {
			t.Errorf("Identity() = %q, want %q", got, tt.want)
		}
	}
}

func TestEphemeralSecret(t *testing.T) {
	a, err := EphemeralSecret()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := EphemeralSecret()
	if len(a) < 32 || a == b {
		t.Errorf("EphemeralSecret returned %q and %q", a, b)
	}
}
