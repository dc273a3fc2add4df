// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package features

// Kind identifies a raw telemetry event.
type Kind string

const (
	KindKeyDown   Kind = "keydown"
	KindKeyUp     Kind = "keyup"
	KindMouseMove Kind = "mousemove"
	KindClick     Kind = "click"
	KindMouseDown Kind = "mousedown"
)

// IsKeystroke reports whether k is a keyboard event.
func (k Kind) IsKeystroke() bool {
	return k == KindKeyDown || k == KindKeyUp
}

// IsClick reports whether k counts as a click for click-rate features.
func (k Kind) IsClick() bool {
	return k == KindClick || k == KindMouseDown
}

// RawEvent is one keyboard or pointer event. Timestamps are client
// milliseconds from a monotonic clock.
type RawEvent struct {
	Kind      Kind
	Key       string
	X         float64
	Y         float64
	Timestamp float64
	SessionID string
}

// Batch is the ordered set of events flushed by one client for one session.
type Batch struct {
	SessionID string
	Events    []RawEvent
}

// Len returns the number of events in the batch.
func (b Batch) Len() int {
	return len(b.Events)
}

// KeystrokeEvent is the wire shape of one entry in keystrokeData.
type KeystrokeEvent struct {
	Type      string  `json:"type" validate:"required,oneof=keydown keyup"`
	Key       string  `json:"key" validate:"max=32"`
	Timestamp float64 `json:"timestamp" validate:"gte=0"`
}

// MouseEvent is the wire shape of one entry in mouseData.
type MouseEvent struct {
	Type      string  `json:"type" validate:"required,oneof=mousemove click mousedown"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp float64 `json:"timestamp" validate:"gte=0"`
}

// FromTelemetry builds a batch from the two wire arrays. Keystrokes and
// mouse samples keep their own arrival order.
func FromTelemetry(sessionID string, keys []KeystrokeEvent, mouse []MouseEvent) Batch {
	events := make([]RawEvent, 0, len(keys)+len(mouse))
	for _, k := range keys {
		events = append(events, RawEvent{
			Kind:      Kind(k.Type),
			Key:       k.Key,
			Timestamp: k.Timestamp,
			SessionID: sessionID,
		})
	}
	for _, m := range mouse {
		events = append(events, RawEvent{
			Kind:      Kind(m.Type),
			X:         m.X,
			Y:         m.Y,
			Timestamp: m.Timestamp,
			SessionID: sessionID,
		})
	}
	return Batch{SessionID: sessionID, Events: events}
}
