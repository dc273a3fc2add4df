// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package scoring

import (
	"errors"
	"fmt"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/model"
	"github.com/tomtom215/cadence/internal/storage"
)

const checkpointKey = "globalmodel:current"

// Checkpoint persists the published global model so it survives restarts.
type Checkpoint struct {
	store *storage.Store
}

// NewCheckpoint returns a checkpoint backed by store.
func NewCheckpoint(store *storage.Store) *Checkpoint {
	return &Checkpoint{store: store}
}

// Save replaces the stored model in a single transaction.
func (c *Checkpoint) Save(m model.Model) error {
	env, err := model.Wrap(m)
	if err != nil {
		return err
	}
	if err := c.store.Put(checkpointKey, env); err != nil {
		return fmt.Errorf("save global model: %w", err)
	}
	return nil
}

// Load returns the stored model, or nil when none has been saved.
func (c *Checkpoint) Load() (model.Model, error) {
	var env model.Envelope
	err := c.store.Get(checkpointKey, &env)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load global model: %w", err)
	}
	return env.Unwrap()
}

// Restore publishes the checkpointed model on s, if there is one.
func (c *Checkpoint) Restore(s *Scorer) error {
	m, err := c.Load()
	if err != nil {
		return err
	}
	if m == nil {
		logging.Info().Msg("No global model checkpoint, scoring cold-start users neutrally")
		return nil
	}
	s.Publish(m)
	meta := m.Meta()
	logging.Info().
		Str("algorithm", meta.Algorithm).
		Uint64("version", meta.Version).
		Int("samples", meta.Samples).
		Msg("Global model restored")
	return nil
}
