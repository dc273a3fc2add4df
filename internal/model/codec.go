// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package model

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/features"
)

// Envelope is the persisted form of any model variant.
type Envelope struct {
	Meta
	Payload json.RawMessage `json:"payload"`
}

// Wrap converts m to its envelope.
func Wrap(m Model) (*Envelope, error) {
	payload, err := m.MarshalPayload()
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", m.Meta().Algorithm, err)
	}
	return &Envelope{Meta: m.Meta(), Payload: payload}, nil
}

// Unwrap reconstructs the model held by e.
func (e *Envelope) Unwrap() (Model, error) {
	if e.Dims != features.Dim {
		return nil, fmt.Errorf("%w: model has %d, extractor has %d", ErrDimensionMismatch, e.Dims, features.Dim)
	}
	v, ok := variants[e.Algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, e.Algorithm)
	}
	return v.decode(e.Meta, e.Payload)
}

// Encode serializes m as an envelope.
func Encode(m Model) ([]byte, error) {
	env, err := Wrap(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Decode parses an envelope produced by Encode.
func Decode(data []byte) (Model, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode model envelope: %w", err)
	}
	return env.Unwrap()
}
