// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package model

import (
	"context"
	"fmt"
	"math"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/features"
)

const (
	// relativeStdFloor keeps a near-constant feature from turning tiny
	// deviations into huge z-scores.
	relativeStdFloor = 0.1
	absoluteStdFloor = 0.01

	// distanceScale is the RMS z-score at which risk reaches 1-1/e.
	distanceScale = 4.0
)

// Baseline scores a vector by its distance from the mean of the training
// samples in units of per-feature standard deviation.
type Baseline struct {
	meta Meta
	mean features.Vector
	std  features.Vector
}

type baselinePayload struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

type baselineTrainer struct{}

func (baselineTrainer) Algorithm() string { return AlgorithmBaseline }

func (baselineTrainer) Train(ctx context.Context, samples []features.Vector, version uint64) (Model, error) {
	if len(samples) < MinSamples {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientSamples, len(samples), MinSamples)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := &Baseline{meta: newMeta(AlgorithmBaseline, version, len(samples))}
	b.mean, b.std = columnStats(samples)
	for i := range b.std {
		b.std[i] = flooredStd(b.std[i], b.mean[i])
	}
	return b, nil
}

func flooredStd(std, mean float64) float64 {
	return math.Max(std, math.Max(relativeStdFloor*math.Abs(mean), absoluteStdFloor))
}

func (b *Baseline) zscores(v features.Vector) features.Vector {
	var z features.Vector
	for i := range v {
		z[i] = (v[i] - b.mean[i]) / b.std[i]
	}
	return z
}

// Distance returns the root-mean-square z-score of v.
func (b *Baseline) Distance(v features.Vector) float64 {
	z := b.zscores(v)
	sum := 0.0
	for _, x := range z {
		sum += x * x
	}
	return math.Sqrt(sum / features.Dim)
}

// Score implements Model.
func (b *Baseline) Score(v features.Vector) float64 {
	d := b.Distance(v) / distanceScale
	return clamp01(1 - math.Exp(-d*d))
}

// Explain implements Explainer.
func (b *Baseline) Explain(v features.Vector, n int) []Contribution {
	z := b.zscores(v)
	return topContributions(&z, n)
}

// Meta implements Model.
func (b *Baseline) Meta() Meta { return b.meta }

// MarshalPayload implements Model.
func (b *Baseline) MarshalPayload() ([]byte, error) {
	return json.Marshal(baselinePayload{Mean: b.mean.Slice(), Std: b.std.Slice()})
}

func decodeBaseline(meta Meta, payload []byte) (Model, error) {
	var p baselinePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode baseline payload: %w", err)
	}
	mean, ok1 := features.FromSlice(p.Mean)
	std, ok2 := features.FromSlice(p.Std)
	if !ok1 || !ok2 {
		return nil, ErrDimensionMismatch
	}
	for i := range std {
		if std[i] <= 0 {
			std[i] = absoluteStdFloor
		}
	}
	return &Baseline{meta: meta, mean: mean, std: std}, nil
}
