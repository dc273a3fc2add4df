// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/features"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/model"
)

// MaxUserIDLength bounds user identities accepted by the store.
const MaxUserIDLength = 128

var (
	// ErrNotFound is returned for a user with no profile.
	ErrNotFound = errors.New("profile not found")

	// ErrInvalidUser is returned for an empty or oversized user id.
	ErrInvalidUser = errors.New("invalid user id")
)

// Stats counts profiles by state.
type Stats struct {
	Total       int `json:"total"`
	Untrained   int `json:"untrained"`
	Calibrating int `json:"calibrating"`
	Trained     int `json:"trained"`
	Stale       int `json:"stale"`
	Blocked     int `json:"blocked"`
}

// Store holds every user's profile.
type Store struct {
	cfg     config.ProfilesConfig
	trainer model.Trainer
	repo    Repository

	mu       sync.RWMutex
	profiles map[string]*profile

	queue chan string
	now   func() time.Time
}

// NewStore creates an empty store. repo may be nil for a memory-only store.
func NewStore(cfg config.ProfilesConfig, trainer model.Trainer, repo Repository) *Store {
	queueSize := cfg.RetrainQueueSize
	if queueSize < 1 {
		queueSize = 256
	}
	return &Store{
		cfg:      cfg,
		trainer:  trainer,
		repo:     repo,
		profiles: make(map[string]*profile),
		queue:    make(chan string, queueSize),
		now:      time.Now,
	}
}

func validUserID(userID string) error {
	if userID == "" || len(userID) > MaxUserIDLength {
		return ErrInvalidUser
	}
	return nil
}

func (s *Store) lookup(userID string) *profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profiles[userID]
}

func (s *Store) getOrCreate(userID string) (*profile, bool) {
	if p := s.lookup(userID); p != nil {
		return p, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[userID]; ok {
		return p, false
	}
	p := newProfile(userID, s.cfg.HistoryCapacity, s.now().UTC())
	s.profiles[userID] = p
	return p, true
}

// GetOrCreate returns the user's profile, creating an untrained one on
// first sight. Repeated calls for the same user create exactly one
// profile. It never waits on training.
func (s *Store) GetOrCreate(ctx context.Context, userID string) (*View, error) {
	if err := validUserID(userID); err != nil {
		return nil, err
	}
	p, created := s.getOrCreate(userID)
	if created {
		logging.Debug().Str("user_id", logging.Sanitize(userID)).Msg("Profile created")
		p.mu.Lock()
		s.persist(ctx, p)
		p.mu.Unlock()
	}
	return p.view.Load(), nil
}

// Get returns the current view of the user's profile.
func (s *Store) Get(userID string) (*View, error) {
	p := s.lookup(userID)
	if p == nil {
		return nil, ErrNotFound
	}
	return p.view.Load(), nil
}

// Record appends v to the user's history and advances the state machine.
// Any retrain it triggers is queued for the RetrainPool.
func (s *Store) Record(ctx context.Context, userID string, v features.Vector) (*View, error) {
	if err := validUserID(userID); err != nil {
		return nil, err
	}
	p, _ := s.getOrCreate(userID)

	p.mu.Lock()
	defer p.mu.Unlock()

	now := s.now().UTC()
	p.history.Push(v)
	p.sinceTrain++
	p.updatedAt = now

	if p.state == StateUntrained {
		p.state = StateCalibrating
	}
	if p.state == StateTrained && s.retrainDue(p, now) {
		p.state = StateStale
	}
	if s.needsRetrain(p) {
		s.requestRetrain(p)
	}

	s.persist(ctx, p)
	p.publish()
	return p.view.Load(), nil
}

func (s *Store) retrainDue(p *profile, now time.Time) bool {
	if s.cfg.RetrainEvery > 0 && p.sinceTrain >= s.cfg.RetrainEvery {
		return true
	}
	return s.cfg.RetrainInterval > 0 && now.Sub(p.lastTrained) >= s.cfg.RetrainInterval
}

func (s *Store) needsRetrain(p *profile) bool {
	switch p.state {
	case StateCalibrating:
		return p.history.Len() >= s.cfg.CalibrationFloor
	case StateStale:
		return true
	default:
		return false
	}
}

// requestRetrain must be called with p.mu held. A full queue leaves the
// profile eligible so the next Record retries.
func (s *Store) requestRetrain(p *profile) {
	if p.retraining {
		return
	}
	select {
	case s.queue <- p.userID:
		p.retraining = true
		metrics.RetrainQueueDepth.Set(float64(len(s.queue)))
	default:
		logging.Warn().Str("user_id", logging.Sanitize(p.userID)).Msg("Retrain queue full, deferring retrain")
	}
}

// Retrain trains a new model for the user from a copy of the history and
// swaps it in. On failure the profile keeps its previous state and model.
func (s *Store) Retrain(ctx context.Context, userID string) error {
	p := s.lookup(userID)
	if p == nil {
		return ErrNotFound
	}

	p.mu.Lock()
	samples := p.history.Snapshot()
	consumed := p.sinceTrain
	version := p.version + 1
	p.mu.Unlock()

	start := time.Now()
	m, err := s.trainer.Train(ctx, samples, version)
	metrics.RecordProfileRetrain(time.Since(start), err)

	var env *model.Envelope
	if err == nil {
		env, err = model.Wrap(m)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.retraining = false
	if err != nil {
		logging.Warn().Err(err).
			Str("user_id", logging.Sanitize(userID)).
			Str("state", string(p.state)).
			Msg("Profile retrain failed, keeping previous model")
		return fmt.Errorf("retrain %s: %w", logging.Sanitize(userID), err)
	}

	p.model = m
	p.envelope = env
	p.version = version
	p.state = StateTrained
	p.sinceTrain -= consumed
	if p.sinceTrain < 0 {
		p.sinceTrain = 0
	}
	p.lastTrained = m.Meta().TrainedAt
	p.updatedAt = s.now().UTC()

	s.persist(ctx, p)
	p.publish()

	logging.Info().
		Str("user_id", logging.Sanitize(userID)).
		Uint64("model_version", version).
		Int("samples", len(samples)).
		Dur("duration", time.Since(start)).
		Msg("Profile model trained")
	return nil
}

// SetBlocked records whether the user is blocked from new sessions.
func (s *Store) SetBlocked(ctx context.Context, userID string, blocked bool) (*View, error) {
	p := s.lookup(userID)
	if p == nil {
		return nil, ErrNotFound
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.blocked != blocked {
		p.blocked = blocked
		p.updatedAt = s.now().UTC()
		s.persist(ctx, p)
		p.publish()
	}
	return p.view.Load(), nil
}

// SnapshotAll copies every profile's history, ordered by user id. Each
// copy is taken under that profile's lock, so no snapshot reflects a
// half-applied Record.
func (s *Store) SnapshotAll() []Snapshot {
	s.mu.RLock()
	ps := make([]*profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		ps = append(ps, p)
	}
	s.mu.RUnlock()

	sort.Slice(ps, func(i, j int) bool { return ps[i].userID < ps[j].userID })

	out := make([]Snapshot, 0, len(ps))
	for _, p := range ps {
		p.mu.Lock()
		out = append(out, Snapshot{
			UserID:       p.userID,
			State:        p.state,
			ModelVersion: p.version,
			History:      p.history.Snapshot(),
		})
		p.mu.Unlock()
	}
	return out
}

// Views returns the published view of every profile, ordered by user id.
func (s *Store) Views() []*View {
	s.mu.RLock()
	out := make([]*View, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.view.Load())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Stats counts profiles by state and refreshes the profile gauges.
func (s *Store) Stats() Stats {
	var st Stats
	for _, v := range s.Views() {
		st.Total++
		switch v.State {
		case StateUntrained:
			st.Untrained++
		case StateCalibrating:
			st.Calibrating++
		case StateTrained:
			st.Trained++
		case StateStale:
			st.Stale++
		}
		if v.Blocked {
			st.Blocked++
		}
	}
	metrics.UpdateProfileGauges(map[string]int{
		string(StateUntrained):   st.Untrained,
		string(StateCalibrating): st.Calibrating,
		string(StateTrained):     st.Trained,
		string(StateStale):       st.Stale,
	})
	return st
}

// Len returns the number of profiles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// persist must be called with p.mu held.
func (s *Store) persist(ctx context.Context, p *profile) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Save(ctx, p.record()); err != nil {
		logging.Error().Err(err).Str("user_id", logging.Sanitize(p.userID)).Msg("Failed to persist profile")
	}
}

// Load restores persisted profiles. Profiles resume in their stored state;
// one whose model cannot be decoded falls back to calibrating and is
// queued for retraining. Load must run before the store is shared.
func (s *Store) Load(ctx context.Context) (int, error) {
	if s.repo == nil {
		return 0, nil
	}
	recs, err := s.repo.LoadAll(ctx)
	if err != nil {
		return 0, err
	}

	for _, rec := range recs {
		if validUserID(rec.UserID) != nil {
			continue
		}
		p := s.restore(rec)
		s.mu.Lock()
		s.profiles[rec.UserID] = p
		s.mu.Unlock()

		p.mu.Lock()
		if s.needsRetrain(p) {
			s.requestRetrain(p)
		}
		p.mu.Unlock()
	}

	logging.Info().Int("profiles", len(recs)).Msg("Profiles restored")
	return len(recs), nil
}

func (s *Store) restore(rec *Record) *profile {
	p := newProfile(rec.UserID, s.cfg.HistoryCapacity, rec.CreatedAt)
	for _, row := range rec.History {
		if v, ok := features.FromSlice(row); ok {
			p.history.Push(v)
		}
	}
	p.state = rec.State
	p.sinceTrain = rec.SinceTrain
	p.lastTrained = rec.LastTrained
	p.version = rec.ModelVersion
	p.blocked = rec.Blocked
	p.updatedAt = rec.UpdatedAt

	switch p.state {
	case StateUntrained, StateCalibrating:
	case StateTrained, StateStale:
		if rec.Model != nil {
			m, err := rec.Model.Unwrap()
			if err == nil {
				p.model, p.envelope = m, rec.Model
				break
			}
			logging.Warn().Err(err).Str("user_id", logging.Sanitize(rec.UserID)).Msg("Discarding unreadable profile model")
		}
		p.state = StateCalibrating
	default:
		p.state = StateCalibrating
	}
	if p.state == StateUntrained && p.history.Len() > 0 {
		p.state = StateCalibrating
	}

	p.publish()
	return p
}
