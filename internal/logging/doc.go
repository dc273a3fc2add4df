// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package logging provides the process-wide zerolog logger for Cadence.
//
// Every package logs through the helpers in this package rather than
// constructing its own logger, so level and format are controlled in one
// place:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("user_id", id).Msg("Profile trained")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Retrain failed")
//
// Libraries that speak log/slog (the suture supervisor, watermill) receive
// a bridge built by NewSlogLogger, so their output lands in the same stream
// with the same field names.
//
// Values that originate from clients must pass through Sanitize before they
// are logged.
package logging
