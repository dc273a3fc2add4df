// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package eventbus

import (
	"context"

	"github.com/tomtom215/cadence/internal/audit"
	"github.com/tomtom215/cadence/internal/logging"
)

// Handler consumes security events from the bus.
type Handler interface {
	HandleEvent(ctx context.Context, e *audit.Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e *audit.Event)

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, e *audit.Event) { f(ctx, e) }

// Dispatcher feeds one Handler from the bus. It implements suture.Service.
type Dispatcher struct {
	bus     *Bus
	name    string
	handler Handler
	ready   chan struct{}
}

// NewDispatcher creates a dispatcher named name for handler.
func NewDispatcher(bus *Bus, name string, handler Handler) *Dispatcher {
	return &Dispatcher{
		bus:     bus,
		name:    name,
		handler: handler,
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the first subscription is in place.
func (d *Dispatcher) Ready() <-chan struct{} {
	return d.ready
}

// Serve implements suture.Service.
func (d *Dispatcher) Serve(ctx context.Context) error {
	msgs, err := d.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	select {
	case <-d.ready:
	default:
		close(d.ready)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logging.Info().Str("dispatcher", d.name).Msg("Event bus closed")
				<-ctx.Done()
				return ctx.Err()
			}
			e, err := Decode(msg)
			if err != nil {
				logging.Warn().Err(err).Str("dispatcher", d.name).Msg("Dropping undecodable event")
				msg.Ack()
				continue
			}
			d.handler.HandleEvent(ctx, e)
			msg.Ack()
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (d *Dispatcher) String() string {
	return "eventbus-" + d.name
}
