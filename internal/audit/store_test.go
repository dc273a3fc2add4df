// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/cadence/internal/storage"
)

func seed(t *testing.T, s Store, base time.Time) {
	t.Helper()
	events := []Event{
		{ID: "e1", Kind: KindConnect, UserID: "alice", Timestamp: base},
		{ID: "e2", Kind: KindAuthSuccess, UserID: "alice", Timestamp: base.Add(time.Second)},
		{ID: "e3", Kind: KindAuthFailure, UserID: "bob", Timestamp: base.Add(2 * time.Second)},
		{ID: "e4", Kind: KindAnomalyBlock, UserID: "alice", Timestamp: base.Add(3 * time.Second)},
	}
	for i := range events {
		if err := s.Save(context.Background(), &events[i]); err != nil {
			t.Fatalf("Save(%s): %v", events[i].ID, err)
		}
	}
}

func openBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	db, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBadgerStore(db)
}

func TestStores(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	stores := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore(100) },
		"badger": func(t *testing.T) Store { return openBadgerStore(t) },
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			seed(t, s, base)

			tests := []struct {
				name   string
				filter Filter
				want   []string
			}{
				{"all newest first", Filter{}, []string{"e4", "e3", "e2", "e1"}},
				{"limit", Filter{Limit: 2}, []string{"e4", "e3"}},
				{"by user", Filter{UserID: "alice"}, []string{"e4", "e2", "e1"}},
				{"by kind", Filter{Kind: KindAuthFailure}, []string{"e3"}},
				{"since", Filter{Since: base.Add(2 * time.Second)}, []string{"e4", "e3"}},
				{"no match", Filter{UserID: "carol"}, []string{}},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := s.Query(ctx, tt.filter)
					if err != nil {
						t.Fatalf("Query: %v", err)
					}
					if len(got) != len(tt.want) {
						t.Fatalf("Query returned %d events, want %d", len(got), len(tt.want))
					}
					for i := range tt.want {
						if got[i].ID != tt.want[i] {
							t.Errorf("event[%d] = %s, want %s", i, got[i].ID, tt.want[i])
						}
					}
				})
			}

			e, err := s.Get(ctx, "e3")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if e.UserID != "bob" {
				t.Errorf("Get(e3).UserID = %q", e.UserID)
			}
			if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrEventNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrEventNotFound", err)
			}

			n, err := s.Delete(ctx, base.Add(2*time.Second))
			if err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if n != 2 {
				t.Errorf("Delete removed %d, want 2", n)
			}
			left, _ := s.Query(ctx, Filter{})
			if len(left) != 2 || left[1].ID != "e3" {
				t.Errorf("after Delete = %+v", left)
			}
		})
	}
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	s := NewMemoryStore(10)
	for i := 0; i < 11; i++ {
		if err := s.Save(context.Background(), &Event{Kind: KindConnect}); err != nil {
			t.Fatal(err)
		}
	}
	if s.Len() != 10 {
		t.Errorf("Len = %d, want 10", s.Len())
	}
}

func TestBadgerStoreScore(t *testing.T) {
	s := openBadgerStore(t)
	ctx := context.Background()

	e := (&Event{ID: "x", Kind: KindScoreUpdate, Timestamp: time.Now()}).WithScore(0.42)
	if err := s.Save(ctx, e); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}
	if got.Score() != 0.42 {
		t.Errorf("Score = %v, want 0.42", got.Score())
	}
}
