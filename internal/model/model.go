// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tomtom215/cadence/internal/features"
)

// Algorithm names.
const (
	AlgorithmBaseline = "baseline"
	AlgorithmIForest  = "iforest"
)

// MinSamples is the smallest sample set any variant will train on.
const MinSamples = 2

var (
	// ErrInsufficientSamples is returned when a trainer receives fewer than MinSamples vectors.
	ErrInsufficientSamples = errors.New("insufficient training samples")

	// ErrDimensionMismatch is returned when a persisted model was trained on a different feature set.
	ErrDimensionMismatch = errors.New("feature dimension mismatch")

	// ErrUnknownAlgorithm is returned for an algorithm name with no registered variant.
	ErrUnknownAlgorithm = errors.New("unknown model algorithm")
)

// Meta describes a trained model.
type Meta struct {
	Algorithm string    `json:"algorithm"`
	Version   uint64    `json:"version"`
	Dims      int       `json:"dims"`
	TrainedAt time.Time `json:"trained_at"`
	Samples   int       `json:"samples"`
}

// Model scores feature vectors. Implementations are immutable.
type Model interface {
	// Score returns the risk of v in [0,1]. It is a pure function of the
	// model and v.
	Score(v features.Vector) float64

	// Meta returns the model's descriptive metadata.
	Meta() Meta

	// MarshalPayload encodes the variant-specific parameters for Encode.
	MarshalPayload() ([]byte, error)
}

// Contribution is one feature's share of a risk score.
type Contribution struct {
	Feature string  `json:"feature"`
	ZScore  float64 `json:"z_score"`
}

// Explainer is implemented by models that can attribute a score to features.
type Explainer interface {
	Explain(v features.Vector, n int) []Contribution
}

// Trainer builds models of one algorithm.
type Trainer interface {
	Algorithm() string
	Train(ctx context.Context, samples []features.Vector, version uint64) (Model, error)
}

// Options tune the variants. Zero values select defaults.
type Options struct {
	Trees      int
	SampleSize int
	Seed       int64
}

type variant struct {
	trainer func(Options) Trainer
	decode  func(Meta, []byte) (Model, error)
}

var variants = map[string]variant{
	AlgorithmBaseline: {
		trainer: func(Options) Trainer { return baselineTrainer{} },
		decode:  decodeBaseline,
	},
	AlgorithmIForest: {
		trainer: func(o Options) Trainer { return newForestTrainer(o) },
		decode:  decodeForest,
	},
}

// NewTrainer returns the trainer for the named algorithm.
func NewTrainer(algorithm string, opts Options) (Trainer, error) {
	v, ok := variants[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	return v.trainer(opts), nil
}

// Algorithms lists the registered algorithm names in sorted order.
func Algorithms() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Explain returns the top n contributions for v when m supports attribution.
func Explain(m Model, v features.Vector, n int) []Contribution {
	if e, ok := m.(Explainer); ok {
		return e.Explain(v, n)
	}
	return nil
}

func newMeta(algorithm string, version uint64, samples int) Meta {
	return Meta{
		Algorithm: algorithm,
		Version:   version,
		Dims:      features.Dim,
		TrainedAt: time.Now().UTC(),
		Samples:   samples,
	}
}

// topContributions ranks z-scores by magnitude; ties keep feature order.
func topContributions(z *features.Vector, n int) []Contribution {
	if n <= 0 {
		return nil
	}
	idx := make([]int, features.Dim)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return math.Abs(z[idx[a]]) > math.Abs(z[idx[b]])
	})
	if n > features.Dim {
		n = features.Dim
	}
	out := make([]Contribution, 0, n)
	for _, i := range idx[:n] {
		if z[i] == 0 {
			break
		}
		out = append(out, Contribution{Feature: features.Names[i], ZScore: z[i]})
	}
	return out
}

func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x) || x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

// columnStats returns the per-feature mean and population standard
// deviation across samples.
func columnStats(samples []features.Vector) (mean, std features.Vector) {
	col := make([]float64, len(samples))
	for i := 0; i < features.Dim; i++ {
		for j := range samples {
			col[j] = samples[j][i]
		}
		mean[i], std[i] = features.MeanStd(col)
	}
	return mean, std
}
