// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"github.com/tomtom215/cadence/internal/alerting"
	"github.com/tomtom215/cadence/internal/audit"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/eventbus"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/supervisor"
	"github.com/tomtom215/cadence/internal/supervisor/services"
	ws "github.com/tomtom215/cadence/internal/websocket"
)

// eventFanout owns the bus and the optional NATS forwarder.
type eventFanout struct {
	bus       *eventbus.Bus
	forwarder *eventbus.Forwarder
}

// initEvents attaches the security event log to an in-process bus and
// subscribes the monitor hub, the alert webhook and, when NATS_URL is set,
// the NATS forwarder. Every consumer runs as a supervised dispatcher.
func initEvents(cfg *config.Config, events *audit.Logger, hub *ws.Hub, tree *supervisor.SupervisorTree) *eventFanout {
	bus := eventbus.New(cfg.Events.BufferSize)
	events.SetPublisher(bus)

	tree.AddEngineService(services.NewRunnerService("monitor-hub", hub))
	tree.AddEngineService(eventbus.NewDispatcher(bus, "monitor", hub))

	notifier := alerting.NewWebhookNotifier(cfg.Alerts)
	if notifier.Enabled() {
		tree.AddEngineService(eventbus.NewDispatcher(bus, "webhook", notifier))
		logging.Info().Dur("timeout", cfg.Alerts.Timeout).Msg("Anomaly alert webhook enabled")
	} else {
		logging.Info().Msg("Anomaly alert webhook disabled (ALERT_WEBHOOK_URL not set)")
	}

	f := &eventFanout{bus: bus}
	if cfg.Events.NATSURL != "" {
		fwd, err := eventbus.NewNATSForwarder(cfg.Events, bus.Logger())
		if err != nil {
			// Forwarding is optional; local consumers keep working.
			logging.Warn().Err(err).Msg("NATS forwarding disabled")
		} else {
			f.forwarder = fwd
			tree.AddEngineService(eventbus.NewDispatcher(bus, "nats", fwd))
			logging.Info().
				Str("subject", cfg.Events.Subject).
				Bool("jetstream", cfg.Events.JetStream).
				Msg("Security events forwarded to NATS")
		}
	}
	return f
}

// close stops delivery. It must run after the supervisor tree has stopped.
func (f *eventFanout) close() {
	if f.forwarder != nil {
		if err := f.forwarder.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing NATS forwarder")
		}
	}
	if err := f.bus.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing event bus")
	}
}
