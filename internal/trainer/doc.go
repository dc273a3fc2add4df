// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package trainer rebuilds the population-level global model in the
background.

Every interval the GlobalTrainer pools history from trained and stale
profiles, trains a new model and publishes it to the scorer in a single
pointer swap. An interval of zero disables periodic training.

# Sampling

Pooling is deterministic for a fixed set of profiles: profiles are visited
in user id order and vectors are taken newest first, one per profile per
round, until MaxSamples is reached. Every profile contributes before any
profile contributes twice.

A cycle is skipped when nothing changed since the last published model
(same profiles, same pooled volume, same per-user model versions), and it
fails without touching the published model when fewer than MinSamples
vectors are available or training errors.
*/
package trainer
