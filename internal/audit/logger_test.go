// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package audit

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) PublishEvent(e *Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *e)
}

func TestLoggerAppendFillsDefaults(t *testing.T) {
	l := NewLogger(nil, Config{})
	defer l.Close()

	l.Append(&Event{Kind: KindAnomalyBlock, UserID: "alice"})

	got := l.Recent(1)
	if len(got) != 1 {
		t.Fatalf("Recent(1) returned %d events", len(got))
	}
	e := got[0]
	if e.ID == "" {
		t.Error("ID not assigned")
	}
	if e.Timestamp.IsZero() {
		t.Error("Timestamp not assigned")
	}
	if e.Severity != SeverityCritical {
		t.Errorf("Severity = %q, want %q", e.Severity, SeverityCritical)
	}
}

func TestLoggerRecentRing(t *testing.T) {
	l := NewLogger(nil, Config{RecentCapacity: 3})
	defer l.Close()

	for _, user := range []string{"a", "b", "c", "d", "e"} {
		l.Append(&Event{Kind: KindConnect, UserID: user})
	}

	got := l.Recent(0)
	want := []string{"e", "d", "c"}
	if len(got) != len(want) {
		t.Fatalf("Recent(0) returned %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].UserID != want[i] {
			t.Errorf("Recent(0)[%d].UserID = %q, want %q", i, got[i].UserID, want[i])
		}
	}

	if n := len(l.Recent(2)); n != 2 {
		t.Errorf("Recent(2) returned %d events", n)
	}
	if n := len(l.Recent(10)); n != 3 {
		t.Errorf("Recent(10) returned %d events, want 3", n)
	}
}

func TestLoggerPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	l := NewLogger(nil, Config{})
	defer l.Close()
	l.SetPublisher(pub)

	l.Append(&Event{Kind: KindAuthSuccess, SessionID: "s1"})

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.events) != 1 || pub.events[0].SessionID != "s1" {
		t.Errorf("published = %+v", pub.events)
	}
}

func TestLoggerPersistsOnClose(t *testing.T) {
	store := NewMemoryStore(100)
	l := NewLogger(store, Config{BufferSize: 10})

	for i := 0; i < 5; i++ {
		l.Append(&Event{Kind: KindScoreUpdate})
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if store.Len() != 5 {
		t.Errorf("store has %d events, want 5", store.Len())
	}
}

func TestLoggerQueryWithoutStore(t *testing.T) {
	l := NewLogger(nil, Config{})
	defer l.Close()

	l.Append(&Event{Kind: KindConnect, UserID: "alice"})
	l.Append(&Event{Kind: KindAuthFailure, UserID: "bob"})
	l.Append(&Event{Kind: KindScoreUpdate, UserID: "alice"})

	got, err := l.Query(context.Background(), Filter{UserID: "alice"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 || got[0].Kind != KindScoreUpdate {
		t.Errorf("Query = %+v", got)
	}

	got, err = l.Query(context.Background(), Filter{Limit: 1})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].UserID != "alice" {
		t.Errorf("Query(limit 1) = %+v", got)
	}
}

func TestRetentionPrune(t *testing.T) {
	store := NewMemoryStore(100)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for _, age := range []time.Duration{48 * time.Hour, 36 * time.Hour, time.Hour} {
		if err := store.Save(ctx, &Event{ID: age.String(), Kind: KindConnect, Timestamp: now.Add(-age)}); err != nil {
			t.Fatal(err)
		}
	}

	svc := NewRetentionService(store, 24*time.Hour, time.Hour)
	svc.now = func() time.Time { return now }

	if n := svc.Prune(ctx); n != 2 {
		t.Errorf("Prune deleted %d, want 2", n)
	}
	if store.Len() != 1 {
		t.Errorf("store has %d events, want 1", store.Len())
	}
}

func TestRetentionDisabledWaitsForCancel(t *testing.T) {
	svc := NewRetentionService(NewMemoryStore(10), 0, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if svc.String() != "audit-retention" {
		t.Errorf("String() = %q", svc.String())
	}
}
