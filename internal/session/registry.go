// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package session

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tomtom215/cadence/internal/metrics"
)

// Registry tracks authenticated sessions. A session is added when its
// token is accepted and removed when it terminates.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) add(s *Session) {
	r.mu.Lock()
	r.sessions[s.id] = s
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.SessionsActive.Set(float64(n))
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.SessionsActive.Set(float64(n))
}

// Get returns the live session with id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// List describes every live session, oldest first.
func (r *Registry) List() []Info {
	r.mu.RLock()
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.RUnlock()

	out := make([]Info, 0, len(live))
	for _, s := range live {
		out = append(out, s.Info())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}

// TerminateAll ends every live session with reason.
func (r *Registry) TerminateAll(reason Reason) int {
	r.mu.RLock()
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.RUnlock()

	n := 0
	for _, s := range live {
		if s.Terminate(reason) {
			n++
		}
	}
	return n
}

// Counters are the realtime monitor's connection and message totals.
type Counters struct {
	ConnectionsTotal   atomic.Int64
	ConnectionsActive  atomic.Int64
	AuthSuccess        atomic.Int64
	AuthFailed         atomic.Int64
	MessagesTotal      atomic.Int64
	MessagesBehavioral atomic.Int64
	MessagesFeedback   atomic.Int64
	MessagesUserAuth   atomic.Int64
	AnomaliesBlocked   atomic.Int64
}

// Snapshot returns the counters keyed by their monitor names.
func (c *Counters) Snapshot() map[string]int64 {
	return map[string]int64{
		"connections_total":   c.ConnectionsTotal.Load(),
		"connections_active":  c.ConnectionsActive.Load(),
		"auth_success":        c.AuthSuccess.Load(),
		"auth_failed":         c.AuthFailed.Load(),
		"messages_total":      c.MessagesTotal.Load(),
		"messages_behavioral": c.MessagesBehavioral.Load(),
		"messages_feedback":   c.MessagesFeedback.Load(),
		"messages_user_auth":  c.MessagesUserAuth.Load(),
		"anomalies_blocked":   c.AnomaliesBlocked.Load(),
	}
}
