// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package profile owns each user's behavioral baseline: a bounded history of
recent feature vectors, the active per-user model and the training state.

# State Machine

	untrained -> calibrating -> trained <-> stale

A profile is untrained until its first vector arrives and calibrating until
the history reaches the calibration floor, at which point a retrain is
queued. A trained profile goes stale once enough new vectors accumulate or
the retrain interval elapses; it keeps scoring with its previous model
until the queued retrain swaps in a new one. No transition returns to
untrained, including a restart: persisted profiles resume in their stored
state.

# Concurrency

Record is serialized per user by a per-profile mutex. Every mutation
publishes an immutable View through an atomic pointer, so scorers read the
current model without taking any lock the write path uses. Retraining runs
on the RetrainPool workers, never on the caller's goroutine, and trains on
a copy of the history taken under the lock.

# Persistence

A Repository stores one record per user. BadgerRepository keeps them under
profile:<userId> in the shared storage.Store. Records are written through
on every mutation; a failed write is logged and the in-memory profile stays
authoritative until the next successful write.
*/
package profile
