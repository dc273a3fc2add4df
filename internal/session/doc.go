// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package session runs the telemetry protocol for one WebSocket connection.

Each connection moves through Connecting, Authenticating, Active, Blocked
and Terminated. The first frame must be an auth message carrying a bearer
token (a JWT or the legacy static token); anything else, or silence past
the auth timeout, terminates the connection with reason auth-failed.

Once active, behavioral_data frames are turned into feature vectors,
scored against the user's profile (or the global model during cold start)
and answered with analysis_result. A score at or above the high threshold
blocks the session. With the terminal block policy the user is marked
blocked and the session ends with reason anomaly; with the recoverable
policy the session stays Blocked until enough consecutive scores fall
below the low threshold.

Terminated is absorbing. Every termination sends session_terminated with
the reason before the close frame; policy terminations close with 1008.

Handler owns the Registry of live sessions and the monitor Counters.
*/
package session
