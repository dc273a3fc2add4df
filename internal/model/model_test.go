// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package model

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/features"
)

// typical returns a baseline behavior vector with every feature set.
func typical() features.Vector {
	var v features.Vector
	for i := range v {
		v[i] = float64(10 * (i + 1))
	}
	return v
}

// population returns n vectors scattered around typical() with unit noise.
func population(n int, seed int64) []features.Vector {
	rng := rand.New(rand.NewSource(seed))
	base := typical()
	out := make([]features.Vector, n)
	for j := range out {
		for i := range base {
			out[j][i] = base[i] + rng.NormFloat64()
		}
	}
	return out
}

func train(t *testing.T, algorithm string, samples []features.Vector) Model {
	t.Helper()
	tr, err := NewTrainer(algorithm, Options{Trees: 50, SampleSize: 128, Seed: 7})
	if err != nil {
		t.Fatalf("NewTrainer(%q) error = %v", algorithm, err)
	}
	m, err := tr.Train(context.Background(), samples, 3)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	return m
}

func TestNewTrainer(t *testing.T) {
	for _, name := range Algorithms() {
		tr, err := NewTrainer(name, Options{})
		if err != nil {
			t.Fatalf("NewTrainer(%q) error = %v", name, err)
		}
		if tr.Algorithm() != name {
			t.Errorf("Algorithm() = %q, want %q", tr.Algorithm(), name)
		}
	}

	if _, err := NewTrainer("svm", Options{}); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("NewTrainer(svm) error = %v, want ErrUnknownAlgorithm", err)
	}
}

func TestTrainInsufficientSamples(t *testing.T) {
	for _, name := range Algorithms() {
		t.Run(name, func(t *testing.T) {
			tr, _ := NewTrainer(name, Options{})
			_, err := tr.Train(context.Background(), []features.Vector{typical()}, 1)
			if !errors.Is(err, ErrInsufficientSamples) {
				t.Errorf("Train() error = %v, want ErrInsufficientSamples", err)
			}
		})
	}
}

func TestTrainHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, name := range Algorithms() {
		tr, _ := NewTrainer(name, Options{})
		if _, err := tr.Train(ctx, population(10, 1), 1); !errors.Is(err, context.Canceled) {
			t.Errorf("%s: Train() error = %v, want context.Canceled", name, err)
		}
	}
}

func TestBaselineSeparatesImpostor(t *testing.T) {
	// 35 near-identical sessions from the same user
	samples := make([]features.Vector, 35)
	for i := range samples {
		samples[i] = typical()
		samples[i][features.FlightMean] += float64(i%3) - 1
	}
	m := train(t, AlgorithmBaseline, samples)

	genuine := typical()
	if got := m.Score(genuine); got >= 0.3 {
		t.Errorf("genuine score = %v, want < 0.3", got)
	}

	impostor := typical()
	impostor[features.FlightMean] *= 10
	got := m.Score(impostor)
	if got < 0.7 {
		t.Errorf("impostor score = %v, want >= 0.7", got)
	}

	top := Explain(m, impostor, 3)
	if len(top) == 0 || top[0].Feature != "flight_mean" {
		t.Errorf("Explain() top = %+v, want flight_mean first", top)
	}
}

func TestBaselineStdFloor(t *testing.T) {
	var a, b features.Vector
	a[features.DwellMean], b[features.DwellMean] = 100, 100
	m := train(t, AlgorithmBaseline, []features.Vector{a, b}).(*Baseline)

	if got := m.std[features.DwellMean]; math.Abs(got-10) > 1e-9 {
		t.Errorf("relative floor = %v, want 10", got)
	}
	if got := m.std[features.ClickRate]; got != absoluteStdFloor {
		t.Errorf("absolute floor = %v, want %v", got, absoluteStdFloor)
	}
	if d := m.Distance(a); d != 0 {
		t.Errorf("Distance(mean) = %v, want 0", d)
	}
}

func TestForestRanksOutlierAboveInlier(t *testing.T) {
	m := train(t, AlgorithmIForest, population(300, 11))

	inlier := typical()
	outlier := typical()
	for i := range outlier {
		outlier[i] += 20
	}

	in, out := m.Score(inlier), m.Score(outlier)
	if in >= 0.3 {
		t.Errorf("inlier score = %v, want < 0.3", in)
	}
	if out <= in || out < 0.3 {
		t.Errorf("outlier score = %v, inlier = %v; want outlier clearly higher", out, in)
	}
}

func TestForestDeterministic(t *testing.T) {
	samples := population(200, 5)
	a := train(t, AlgorithmIForest, samples)
	b := train(t, AlgorithmIForest, samples)

	probe := population(20, 99)
	for i, v := range probe {
		if a.Score(v) != b.Score(v) {
			t.Fatalf("probe %d: scores differ across identical trainings: %v vs %v", i, a.Score(v), b.Score(v))
		}
	}
}

func TestScoresBounded(t *testing.T) {
	extreme := typical()
	for i := range extreme {
		extreme[i] = 1e12
	}
	var zero features.Vector

	for _, name := range Algorithms() {
		m := train(t, name, population(50, 3))
		for _, v := range []features.Vector{typical(), extreme, zero} {
			if s := m.Score(v); s < 0 || s > 1 {
				t.Errorf("%s: Score() = %v outside [0,1]", name, s)
			}
		}
	}
}

func TestCodecRoundTrip(t *testing.T) {
	samples := population(60, 21)
	probe := population(10, 22)

	for _, name := range Algorithms() {
		t.Run(name, func(t *testing.T) {
			m := train(t, name, samples)
			data, err := Encode(m)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			if got.Meta().Algorithm != name || got.Meta().Version != 3 || got.Meta().Samples != 60 {
				t.Errorf("Meta() = %+v", got.Meta())
			}
			for i, v := range probe {
				if got.Score(v) != m.Score(v) {
					t.Errorf("probe %d: decoded score %v != original %v", i, got.Score(v), m.Score(v))
				}
			}
		})
	}
}

func TestDecodeRejectsForeignEnvelopes(t *testing.T) {
	m := train(t, AlgorithmBaseline, population(5, 1))
	env, err := Wrap(m)
	if err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Envelope)
		want   error
	}{
		{"dimension change", func(e *Envelope) { e.Dims = features.Dim + 1 }, ErrDimensionMismatch},
		{"unknown algorithm", func(e *Envelope) { e.Algorithm = "svm" }, ErrUnknownAlgorithm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := *env
			tt.mutate(&e)
			data, _ := json.Marshal(&e)
			if _, err := Decode(data); !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Decode([]byte("{not json")); err == nil {
		t.Error("Decode() accepted malformed input")
	}
}

func TestWellFormed(t *testing.T) {
	tests := []struct {
		name string
		tree []node
		want bool
	}{
		{"single leaf", []node{{Left: -1, Right: -1, Size: 3}}, true},
		{"split", []node{{Feature: 1, Left: 1, Right: 2}, {Left: -1}, {Left: -1}}, true},
		{"self loop", []node{{Left: 0, Right: 0}}, false},
		{"missing right", []node{{Left: 1, Right: -1}, {Left: -1}}, false},
		{"bad feature", []node{{Feature: features.Dim, Left: 1, Right: 2}, {Left: -1}, {Left: -1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wellFormed(tt.tree); got != tt.want {
				t.Errorf("wellFormed() = %v, want %v", got, tt.want)
			}
		})
	}
}
