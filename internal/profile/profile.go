// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package profile

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/cadence/internal/features"
	"github.com/tomtom215/cadence/internal/model"
)

// State is a profile's training state.
type State string

const (
	StateUntrained   State = "untrained"
	StateCalibrating State = "calibrating"
	StateTrained     State = "trained"
	StateStale       State = "stale"
)

// HasModel reports whether a profile in state s scores with its own model.
func (s State) HasModel() bool {
	return s == StateTrained || s == StateStale
}

// View is an immutable snapshot of a profile, published after every
// mutation. Model is nil unless State.HasModel().
type View struct {
	UserID       string
	State        State
	Model        model.Model
	ModelVersion uint64
	HistoryLen   int
	SinceTrain   int
	LastTrained  time.Time
	Blocked      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Snapshot is a copy of one profile's history, taken under its lock.
type Snapshot struct {
	UserID       string
	State        State
	ModelVersion uint64
	History      []features.Vector
}

type profile struct {
	mu sync.Mutex

	userID      string
	state       State
	history     *History
	sinceTrain  int
	lastTrained time.Time
	model       model.Model
	envelope    *model.Envelope
	version     uint64
	blocked     bool
	retraining  bool
	createdAt   time.Time
	updatedAt   time.Time

	view atomic.Pointer[View]
}

func newProfile(userID string, capacity int, now time.Time) *profile {
	p := &profile{
		userID:    userID,
		state:     StateUntrained,
		history:   NewHistory(capacity),
		createdAt: now,
		updatedAt: now,
	}
	p.publish()
	return p
}

// publish must be called with mu held (or before the profile is shared).
func (p *profile) publish() {
	v := &View{
		UserID:       p.userID,
		State:        p.state,
		ModelVersion: p.version,
		HistoryLen:   p.history.Len(),
		SinceTrain:   p.sinceTrain,
		LastTrained:  p.lastTrained,
		Blocked:      p.blocked,
		CreatedAt:    p.createdAt,
		UpdatedAt:    p.updatedAt,
	}
	if p.state.HasModel() {
		v.Model = p.model
	}
	p.view.Store(v)
}

func (p *profile) record() *Record {
	hist := p.history.Snapshot()
	rows := make([][]float64, len(hist))
	for i, v := range hist {
		rows[i] = v.Slice()
	}
	return &Record{
		UserID:       p.userID,
		State:        p.state,
		History:      rows,
		SinceTrain:   p.sinceTrain,
		LastTrained:  p.lastTrained,
		Model:        p.envelope,
		ModelVersion: p.version,
		Blocked:      p.blocked,
		CreatedAt:    p.createdAt,
		UpdatedAt:    p.updatedAt,
	}
}
