// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package alerting posts anomaly-block alerts to an operator webhook.
//
// The notifier consumes the security event bus and ignores every kind but
// anomaly-block. Deliveries are spaced by a token bucket and guarded by a
// circuit breaker so a dead endpoint is not hammered. Failures are logged
// and counted; they never reach the session that triggered the block.
package alerting
