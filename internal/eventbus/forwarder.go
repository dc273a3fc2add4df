// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/cadence/internal/audit"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
)

// Forwarder republishes security events to an external subject.
type Forwarder struct {
	publisher message.Publisher
	subject   string
}

// NewForwarder wraps an existing Watermill publisher.
func NewForwarder(publisher message.Publisher, subject string) *Forwarder {
	return &Forwarder{publisher: publisher, subject: subject}
}

// NewNATSForwarder connects to NATS using cfg.
func NewNATSForwarder(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Forwarder, error) {
	if cfg.NATSURL == "" {
		return nil, fmt.Errorf("nats url is empty")
	}
	if logger == nil {
		logger = watermill.NewSlogLogger(logging.NewSlogLogger())
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("cadence"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      !cfg.JetStream,
			AutoProvision: cfg.AutoProvision,
			TrackMsgId:    cfg.JetStream,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}
	return NewForwarder(pub, cfg.Subject), nil
}

// HandleEvent implements Handler.
func (f *Forwarder) HandleEvent(_ context.Context, e *audit.Event) {
	msg, err := encode(e)
	if err != nil {
		logging.Error().Err(err).Str("event_id", e.ID).Msg("Failed to encode event for forwarding")
		return
	}
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	if err := f.publisher.Publish(f.subject, msg); err != nil {
		logging.Warn().Err(err).Str("subject", f.subject).Str("event_id", e.ID).Msg("Failed to forward security event")
	}
}

// Close closes the underlying publisher.
func (f *Forwarder) Close() error {
	return f.publisher.Close()
}
