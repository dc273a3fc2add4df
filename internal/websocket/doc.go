// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package websocket streams security events to analyst dashboards.

The Hub is a hub-and-spoke broadcaster over gorilla/websocket. It consumes
the security event bus and pushes every event to each connected monitor
client as a security_event message. Clients may send ping and receive pong;
everything else they send is ignored.

Each client has two goroutines:
  - readPump: reads from the socket, answers pings, detects disconnects
  - writePump: writes queued messages and keepalive pings

A client whose send buffer is full is dropped rather than slowing the hub.

Message format:

	{"type": "security_event", "data": {"id": "...", "kind": "anomaly-block", ...}}

Settings:
  - writeWait: 10 seconds
  - pongWait: 60 seconds
  - pingPeriod: 54 seconds
  - maxMessageSize: 4 KB inbound
*/
package websocket
