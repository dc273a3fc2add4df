// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package audit provides the security event log.

The risk engine appends one immutable Event for each authentication,
scoring, block and termination decision. Events are never edited. The
Logger keeps the most recent events in a bounded in-memory ring for the
live monitor, hands each event to an optional Publisher for fan-out, and
persists events asynchronously to a Store.

# Event Kinds

  - connect: a telemetry connection was accepted
  - auth-success / auth-failure: outcome of the session handshake
  - score-update: a scoring pass completed
  - anomaly-block: a score crossed the high threshold
  - session-terminated: a session ended, with its reason
  - feedback: a client reported an impostor
  - user-unblocked: an administrator cleared a block

# Storage

MemoryStore keeps a bounded slice and suits tests and STORAGE_IN_MEMORY
deployments. BadgerStore keys events by audit:<unix-nano>:<id> so a
reverse prefix scan returns them newest first.

# Retention

RetentionService deletes persisted events older than the configured
retention window on a fixed interval. A zero retention keeps everything.

# Usage

	log := audit.NewLogger(store, audit.Config{BufferSize: 1000, RecentCapacity: 200})
	defer log.Close()

	log.Append(&audit.Event{
		Kind:      audit.KindAuthSuccess,
		SessionID: sessionID,
		UserID:    userID,
	})

	events, err := log.Query(ctx, audit.Filter{Limit: 50, UserID: "alice"})
*/
package audit
