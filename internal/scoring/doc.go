// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package scoring turns a feature vector into a risk score.
//
// A trained (or stale) profile is scored against its own model. Anything
// else falls back to the published global model, and with no global model
// yet the score is a neutral 0.0 marked low-confidence. The global model is
// a single published pointer: Publish swaps it atomically and Score loads
// it once per call, so a call sees either the old model or the new one in
// full. Scoring takes no locks.
package scoring
