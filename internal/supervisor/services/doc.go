// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package services adapts Cadence components to suture's Serve(ctx) pattern.

Most engine components (the retrain pool, storage GC, audit retention and
eventbus dispatchers) already implement suture.Service and are added to the
tree directly. This package covers the two lifecycle shapes that do not:

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Drains hijacked telemetry sockets before the listener shuts down

Runners (RunnerService):
  - Wraps anything with RunWithContext(ctx) error, such as the monitor hub
    and the global model trainer
*/
package services
