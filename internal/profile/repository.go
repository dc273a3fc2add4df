// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/model"
	"github.com/tomtom215/cadence/internal/storage"
)

const keyPrefix = "profile:"

// Record is the persisted form of a profile.
type Record struct {
	UserID       string          `json:"user_id"`
	State        State           `json:"state"`
	History      [][]float64     `json:"history"`
	SinceTrain   int             `json:"vectors_since_train"`
	LastTrained  time.Time       `json:"last_trained"`
	Model        *model.Envelope `json:"model,omitempty"`
	ModelVersion uint64          `json:"model_version"`
	Blocked      bool            `json:"blocked"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Repository persists profile records across restarts.
type Repository interface {
	Save(ctx context.Context, rec *Record) error
	LoadAll(ctx context.Context) ([]*Record, error)
}

// BadgerRepository stores records in the shared Badger store.
type BadgerRepository struct {
	store *storage.Store
}

// NewBadgerRepository returns a repository backed by store.
func NewBadgerRepository(store *storage.Store) *BadgerRepository {
	return &BadgerRepository{store: store}
}

// Save writes rec in a single transaction.
func (r *BadgerRepository) Save(_ context.Context, rec *Record) error {
	if err := r.store.Put(keyPrefix+rec.UserID, rec); err != nil {
		return fmt.Errorf("save profile %s: %w", logging.Sanitize(rec.UserID), err)
	}
	return nil
}

// LoadAll returns every stored record. Undecodable records are skipped.
func (r *BadgerRepository) LoadAll(ctx context.Context) ([]*Record, error) {
	var recs []*Record
	err := r.store.Scan(ctx, keyPrefix, false, func(key string, raw []byte) bool {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			logging.Warn().Err(err).Str("key", logging.Sanitize(key)).Msg("Skipping unreadable profile record")
			return true
		}
		recs = append(recs, &rec)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return recs, nil
}
