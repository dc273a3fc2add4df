// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/cadence/internal/audit"
	"github.com/tomtom215/cadence/internal/config"
)

func TestDispatcherDeliversToEverySubscriber(t *testing.T) {
	bus := New(16)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu  sync.Mutex
		got = map[string][]string{}
	)
	received := make(chan struct{}, 4)
	record := func(name string) Handler {
		return HandlerFunc(func(_ context.Context, e *audit.Event) {
			mu.Lock()
			got[name] = append(got[name], e.ID)
			mu.Unlock()
			received <- struct{}{}
		})
	}

	a := NewDispatcher(bus, "a", record("a"))
	b := NewDispatcher(bus, "b", record("b"))
	for _, d := range []*Dispatcher{a, b} {
		go d.Serve(ctx) //nolint:errcheck
		select {
		case <-d.Ready():
		case <-time.After(2 * time.Second):
			t.Fatalf("%s never subscribed", d)
		}
	}

	bus.PublishEvent(&audit.Event{ID: "evt-1", Kind: audit.KindAnomalyBlock, UserID: "alice"})

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatal("event not delivered")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, name := range []string{"a", "b"} {
		if len(got[name]) != 1 || got[name][0] != "evt-1" {
			t.Errorf("%s received %v", name, got[name])
		}
	}
}

func TestDispatcherStopsOnCancel(t *testing.T) {
	bus := New(0)
	defer bus.Close()

	d := NewDispatcher(bus, "monitor", HandlerFunc(func(context.Context, *audit.Event) {}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Serve(ctx) }()
	<-d.Ready()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
	if d.String() != "eventbus-monitor" {
		t.Errorf("String() = %q", d.String())
	}
}

func TestPublishAfterCloseIsNoop(t *testing.T) {
	bus := New(1)
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	bus.PublishEvent(&audit.Event{ID: "late"})
}

type fakePublisher struct {
	mu     sync.Mutex
	topics []string
	msgs   []*message.Message
}

func (p *fakePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range msgs {
		p.topics = append(p.topics, topic)
		p.msgs = append(p.msgs, m)
	}
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func TestForwarderPublishesToSubject(t *testing.T) {
	pub := &fakePublisher{}
	f := NewForwarder(pub, "cadence.security")

	f.HandleEvent(context.Background(), (&audit.Event{
		ID:     "evt-9",
		Kind:   audit.KindScoreUpdate,
		UserID: "bob",
	}).WithScore(0.5))

	if len(pub.msgs) != 1 {
		t.Fatalf("published %d messages", len(pub.msgs))
	}
	msg := pub.msgs[0]
	if pub.topics[0] != "cadence.security" {
		t.Errorf("topic = %q", pub.topics[0])
	}
	if msg.Metadata.Get(natsgo.MsgIdHdr) != "evt-9" {
		t.Errorf("msg id header = %q", msg.Metadata.Get(natsgo.MsgIdHdr))
	}
	if msg.Metadata.Get(MetaKind) != string(audit.KindScoreUpdate) {
		t.Errorf("kind metadata = %q", msg.Metadata.Get(MetaKind))
	}

	e, err := Decode(msg)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if e.UserID != "bob" || e.Score() != 0.5 {
		t.Errorf("decoded = %+v", e)
	}
}

func TestNATSForwarderRequiresURL(t *testing.T) {
	if _, err := NewNATSForwarder(configWithoutURL(), nil); err == nil {
		t.Error("expected error for empty NATS url")
	}
}

func configWithoutURL() config.EventsConfig {
	return config.EventsConfig{Subject: "cadence.security"}
}
