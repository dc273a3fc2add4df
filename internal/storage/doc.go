// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package storage owns the embedded BadgerDB instance shared by the profile
// repository, the global model checkpoint and the persisted security event
// log. Each owner keeps its records under its own key prefix:
//
//	profile:<userId>            profile record
//	globalmodel:current         published global model envelope
//	audit:<unix-nano>:<id>      security event
//
// Values are JSON. Every Put is a single Badger transaction, so a record is
// either fully written or not written at all.
package storage
