// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package auth

import (
	"crypto/subtle"
	"strings"
)

// Identity is a verified caller.
type Identity struct {
	// Subject is the user id, empty for the legacy token.
	Subject string
	Role    string
	Legacy  bool
}

// TokenVerifier checks tokens presented on the telemetry socket.
type TokenVerifier struct {
	jwt    *JWTManager
	legacy []byte
}

// NewTokenVerifier accepts JWTs from m and, when legacyToken is set, the
// static token.
func NewTokenVerifier(m *JWTManager, legacyToken string) *TokenVerifier {
	v := &TokenVerifier{jwt: m}
	if legacyToken != "" {
		v.legacy = []byte(legacyToken)
	}
	return v
}

// Verify returns the identity behind token or ErrInvalidToken.
func (v *TokenVerifier) Verify(token string) (*Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, ErrInvalidToken
	}
	if v.legacy != nil && subtle.ConstantTimeCompare([]byte(token), v.legacy) == 1 {
		return &Identity{Legacy: true}, nil
	}
	if v.jwt == nil {
		return nil, ErrInvalidToken
	}
	claims, err := v.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &Identity{Subject: claims.Identity(), Role: claims.Role}, nil
}
