// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package eventbus fans security events out to in-process consumers and,
optionally, to an external NATS subject.

The Bus is a Watermill GoChannel pub/sub. The audit logger publishes every
appended event on TopicSecurityEvents; each consumer (the analyst monitor
hub, the alert notifier, the NATS forwarder) runs as its own Dispatcher
service under the supervisor and receives a private copy of the stream.

Delivery is at-most-once and in-memory. A slow consumer only delays its
own Dispatcher; Append never blocks on a consumer.

# NATS Forwarding

When NATS_URL is set, a Forwarder republishes each event to the configured
subject through the watermill-nats publisher. The event id is sent as the
Nats-Msg-Id header so JetStream deduplicates redeliveries.
*/
package eventbus
