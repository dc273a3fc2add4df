// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package model

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/features"
)

const (
	defaultTrees      = 100
	defaultSampleSize = 256
	defaultSeed       = 42

	eulerGamma = 0.5772156649
)

// Forest is an isolation forest over standardized features. Anomalous
// vectors isolate in fewer random splits than typical ones.
type Forest struct {
	meta       Meta
	sampleSize int
	norm       float64
	mean       features.Vector
	scale      features.Vector
	trees      [][]node
}

// node is one tree node; Left < 0 marks a leaf.
type node struct {
	Feature int     `json:"f"`
	Split   float64 `json:"s"`
	Left    int32   `json:"l"`
	Right   int32   `json:"r"`
	Size    int     `json:"n"`
}

type forestPayload struct {
	SampleSize int       `json:"sample_size"`
	Mean       []float64 `json:"mean"`
	Scale      []float64 `json:"scale"`
	Trees      [][]node  `json:"trees"`
}

type forestTrainer struct {
	trees      int
	sampleSize int
	seed       int64
}

func newForestTrainer(o Options) forestTrainer {
	t := forestTrainer{trees: o.Trees, sampleSize: o.SampleSize, seed: o.Seed}
	if t.trees <= 0 {
		t.trees = defaultTrees
	}
	if t.sampleSize <= 0 {
		t.sampleSize = defaultSampleSize
	}
	if t.seed == 0 {
		t.seed = defaultSeed
	}
	return t
}

func (forestTrainer) Algorithm() string { return AlgorithmIForest }

// Train builds the forest. The same samples, options and seed always
// produce the same forest.
func (t forestTrainer) Train(ctx context.Context, samples []features.Vector, version uint64) (Model, error) {
	n := len(samples)
	if n < MinSamples {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientSamples, n, MinSamples)
	}

	f := &Forest{meta: newMeta(AlgorithmIForest, version, n)}
	f.fitScaler(samples)
	data := make([]features.Vector, n)
	for i, s := range samples {
		data[i] = f.standardize(s)
	}

	m := t.sampleSize
	if m > n {
		m = n
	}
	f.sampleSize = m
	f.norm = averagePathLength(m)
	heightLimit := int(math.Ceil(math.Log2(float64(m))))

	rng := rand.New(rand.NewSource(t.seed))
	f.trees = make([][]node, 0, t.trees)
	for i := 0; i < t.trees; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		perm := rng.Perm(n)
		sample := make([]*features.Vector, m)
		for j := 0; j < m; j++ {
			sample[j] = &data[perm[j]]
		}
		b := treeBuilder{rng: rng, limit: heightLimit}
		b.build(sample, 0)
		f.trees = append(f.trees, b.nodes)
	}
	return f, nil
}

func (f *Forest) fitScaler(samples []features.Vector) {
	f.mean, f.scale = columnStats(samples)
	for i := range f.scale {
		if f.scale[i] == 0 {
			f.scale[i] = 1
		}
	}
}

func (f *Forest) standardize(v features.Vector) features.Vector {
	var z features.Vector
	for i := range v {
		z[i] = (v[i] - f.mean[i]) / f.scale[i]
	}
	return z
}

type treeBuilder struct {
	rng   *rand.Rand
	limit int
	nodes []node
}

func (b *treeBuilder) leaf(size int) int32 {
	b.nodes = append(b.nodes, node{Left: -1, Right: -1, Size: size})
	return int32(len(b.nodes) - 1)
}

func (b *treeBuilder) build(rows []*features.Vector, depth int) int32 {
	if len(rows) <= 1 || depth >= b.limit {
		return b.leaf(len(rows))
	}

	// split only on features that still vary within this node
	lo, hi := *rows[0], *rows[0]
	for _, r := range rows[1:] {
		for i := range r {
			lo[i] = math.Min(lo[i], r[i])
			hi[i] = math.Max(hi[i], r[i])
		}
	}
	candidates := make([]int, 0, features.Dim)
	for i := range lo {
		if lo[i] < hi[i] {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return b.leaf(len(rows))
	}
	feature := candidates[b.rng.Intn(len(candidates))]
	split := lo[feature] + b.rng.Float64()*(hi[feature]-lo[feature])

	var left, right []*features.Vector
	for _, r := range rows {
		if r[feature] < split {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return b.leaf(len(rows))
	}

	idx := int32(len(b.nodes))
	b.nodes = append(b.nodes, node{Feature: feature, Split: split, Size: len(rows)})
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[idx].Left, b.nodes[idx].Right = l, r
	return idx
}

// averagePathLength is c(n), the mean path length of an unsuccessful
// binary search tree lookup over n points.
func averagePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	if n == 2 {
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}

func pathLength(tree []node, z *features.Vector) float64 {
	depth := 0.0
	i := int32(0)
	for {
		nd := &tree[i]
		if nd.Left < 0 {
			return depth + averagePathLength(nd.Size)
		}
		if z[nd.Feature] < nd.Split {
			i = nd.Left
		} else {
			i = nd.Right
		}
		depth++
	}
}

// AnomalyScore returns s = 2^(-E[h]/c(n)), which approaches 1 for
// isolated points and sits near or below 0.5 for typical ones.
func (f *Forest) AnomalyScore(v features.Vector) float64 {
	if len(f.trees) == 0 || f.norm <= 0 {
		return 0
	}
	z := f.standardize(v)
	sum := 0.0
	for _, t := range f.trees {
		sum += pathLength(t, &z)
	}
	return math.Pow(2, -(sum/float64(len(f.trees)))/f.norm)
}

// Score implements Model.
func (f *Forest) Score(v features.Vector) float64 {
	return clamp01((f.AnomalyScore(v) - 0.5) * 2)
}

// Explain implements Explainer using the standardized deviation of each feature.
func (f *Forest) Explain(v features.Vector, n int) []Contribution {
	z := f.standardize(v)
	return topContributions(&z, n)
}

// Meta implements Model.
func (f *Forest) Meta() Meta { return f.meta }

// MarshalPayload implements Model.
func (f *Forest) MarshalPayload() ([]byte, error) {
	return json.Marshal(forestPayload{
		SampleSize: f.sampleSize,
		Mean:       f.mean.Slice(),
		Scale:      f.scale.Slice(),
		Trees:      f.trees,
	})
}

func decodeForest(meta Meta, payload []byte) (Model, error) {
	var p forestPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode forest payload: %w", err)
	}
	mean, ok1 := features.FromSlice(p.Mean)
	scale, ok2 := features.FromSlice(p.Scale)
	if !ok1 || !ok2 {
		return nil, ErrDimensionMismatch
	}
	for ti, t := range p.Trees {
		if len(t) == 0 {
			return nil, fmt.Errorf("decode forest payload: tree %d is empty", ti)
		}
		if !wellFormed(t) {
			return nil, fmt.Errorf("decode forest payload: tree %d is malformed", ti)
		}
	}
	for i := range scale {
		if scale[i] == 0 {
			scale[i] = 1
		}
	}
	return &Forest{
		meta:       meta,
		sampleSize: p.SampleSize,
		norm:       averagePathLength(p.SampleSize),
		mean:       mean,
		scale:      scale,
		trees:      p.Trees,
	}, nil
}

// wellFormed checks that every internal node points forward to two
// in-range children, which rules out cycles during traversal.
func wellFormed(t []node) bool {
	size := int32(len(t))
	for i, nd := range t {
		if nd.Left < 0 {
			continue
		}
		if nd.Feature < 0 || nd.Feature >= features.Dim {
			return false
		}
		self := int32(i)
		if nd.Left <= self || nd.Right <= self || nd.Left >= size || nd.Right >= size {
			return false
		}
	}
	return true
}
