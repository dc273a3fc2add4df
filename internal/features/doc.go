// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package features turns a batch of raw keystroke and mouse telemetry into
// a fixed-dimension feature vector.
//
// Extraction is a pure function of the batch: no randomness, no I/O, no
// state carried between calls. Every vector has exactly Dim components in
// the order given by Names, so models trained on one vector shape can score
// every later vector.
//
// # Keystroke features
//
// A keyup is paired with the most recent unmatched keydown of the same key
// in the same session. Each pair contributes one dwell sample (keyup minus
// keydown). Flight time is measured from the latest keyup to the next
// keydown; inter-key latency is measured between consecutive keydowns.
// Unmatched keydowns and keyups contribute no dwell sample.
//
// # Mouse features
//
// Velocity and acceleration are computed from consecutive mousemove samples
// with strictly increasing timestamps. The collector throttles mousemove to
// one sample per 50ms; the extractor tolerates denser input without
// re-throttling.
package features
