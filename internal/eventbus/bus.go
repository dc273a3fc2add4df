// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package eventbus

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/audit"
	"github.com/tomtom215/cadence/internal/logging"
)

// TopicSecurityEvents carries every appended security event.
const TopicSecurityEvents = "security.events"

// Metadata keys set on published messages.
const (
	MetaKind   = "kind"
	MetaUserID = "user_id"
)

// Bus is the in-process security event pub/sub.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
	closed atomic.Bool
}

// New creates a bus. buffer sizes each subscriber's output channel.
func New(buffer int64) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	logger := watermill.NewSlogLogger(logging.NewSlogLogger())
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: buffer,
		}, logger),
		logger: logger,
	}
}

// Logger returns the Watermill logger adapter shared by bus components.
func (b *Bus) Logger() watermill.LoggerAdapter {
	return b.logger
}

// PublishEvent implements audit.Publisher.
func (b *Bus) PublishEvent(e *audit.Event) {
	if b.closed.Load() {
		return
	}
	msg, err := encode(e)
	if err != nil {
		logging.Error().Err(err).Str("event_id", e.ID).Msg("Failed to encode security event")
		return
	}
	if err := b.pubsub.Publish(TopicSecurityEvents, msg); err != nil {
		logging.Warn().Err(err).Str("event_id", e.ID).Msg("Failed to publish security event")
	}
}

// Subscribe returns a private message stream that ends when ctx is done or
// the bus closes. Every received message must be acked.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	ch, err := b.pubsub.Subscribe(ctx, TopicSecurityEvents)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TopicSecurityEvents, err)
	}
	return ch, nil
}

// Close stops delivery to all subscribers.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	return b.pubsub.Close()
}

func encode(e *audit.Event) (*message.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	id := e.ID
	if id == "" {
		id = watermill.NewUUID()
	}
	msg := message.NewMessage(id, data)
	msg.Metadata.Set(MetaKind, string(e.Kind))
	msg.Metadata.Set(MetaUserID, e.UserID)
	return msg, nil
}

// Decode parses a bus message back into an event.
func Decode(msg *message.Message) (*audit.Event, error) {
	var e audit.Event
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		return nil, fmt.Errorf("decode security event %s: %w", msg.UUID, err)
	}
	return &e, nil
}
