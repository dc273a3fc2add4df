// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/storage"
)

const keyPrefix = "audit:"

// BadgerStore persists events in the shared Badger store. Keys sort by
// timestamp, so scans run in chronological order.
type BadgerStore struct {
	store *storage.Store
}

// NewBadgerStore returns a store backed by db.
func NewBadgerStore(db *storage.Store) *BadgerStore {
	return &BadgerStore{store: db}
}

// eventKey zero-pads the timestamp so lexical order matches time order.
func eventKey(e *Event) string {
	return fmt.Sprintf("%s%020d:%s", keyPrefix, e.Timestamp.UnixNano(), e.ID)
}

func cutoffKey(t time.Time) string {
	return fmt.Sprintf("%s%020d:", keyPrefix, t.UnixNano())
}

// Save persists an event.
func (s *BadgerStore) Save(_ context.Context, event *Event) error {
	if err := s.store.Put(eventKey(event), event); err != nil {
		return fmt.Errorf("save security event: %w", err)
	}
	return nil
}

// Get scans for the event with id. Events are keyed by time, so this is a
// full scan and meant for diagnostics only.
func (s *BadgerStore) Get(ctx context.Context, id string) (*Event, error) {
	var found *Event
	err := s.store.Scan(ctx, keyPrefix, true, func(key string, raw []byte) bool {
		if !strings.HasSuffix(key, ":"+id) {
			return true
		}
		var e Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return true
		}
		found = &e
		return false
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrEventNotFound
	}
	return found, nil
}

// Query returns matching events newest first.
func (s *BadgerStore) Query(ctx context.Context, filter Filter) ([]Event, error) {
	results := make([]Event, 0)
	err := s.store.Scan(ctx, keyPrefix, true, func(key string, raw []byte) bool {
		var e Event
		if err := json.Unmarshal(raw, &e); err != nil {
			logging.Warn().Err(err).Str("key", key).Msg("Skipping unreadable security event")
			return true
		}
		if !filter.Since.IsZero() && e.Timestamp.Before(filter.Since) {
			return false
		}
		if !filter.matches(&e) {
			return true
		}
		results = append(results, e)
		return filter.Limit <= 0 || len(results) < filter.Limit
	})
	if err != nil {
		return nil, fmt.Errorf("query security events: %w", err)
	}
	return results, nil
}

// Delete removes events older than the cutoff.
func (s *BadgerStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	cutoff := cutoffKey(olderThan)
	n, err := s.store.DeleteWhile(ctx, keyPrefix, func(key string) bool {
		return key >= cutoff
	})
	if err != nil {
		return 0, fmt.Errorf("delete security events: %w", err)
	}
	return int64(n), nil
}
