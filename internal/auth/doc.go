// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package auth verifies the bearer tokens presented to Cadence.

Credential issuance lives in the host application. Cadence only checks
tokens it is handed:

  - JWTManager validates HS256 access tokens carrying sub (or user_id),
    role and type=access claims. GenerateToken exists for tests and for
    operators minting analyst tokens with the same secret.
  - TokenVerifier is used on the telemetry socket. It accepts a JWT or,
    when AUTH_TOKEN is configured, the static legacy token compared in
    constant time. A legacy token carries no subject, so user binding on
    that session is taken from the first user_authentication message.
  - Middleware protects the privileged REST surface. It reads the token
    from the Authorization header or the token cookie and stores the
    Identity on the request context.

All failures surface as ErrInvalidToken so callers never leak why a
token was rejected.
*/
package auth
