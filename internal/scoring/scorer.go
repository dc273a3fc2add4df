// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package scoring

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/tomtom215/cadence/internal/features"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/model"
	"github.com/tomtom215/cadence/internal/profile"
)

// Source identifies which model produced a score.
type Source string

const (
	SourceUser   Source = "user"
	SourceGlobal Source = "global"
	SourceNone   Source = "none"
)

// DefaultTopFeatures is the number of contributions attached to a result.
const DefaultTopFeatures = 3

// Result is the outcome of one scoring call.
type Result struct {
	Score         float64              `json:"riskScore"`
	LowConfidence bool                 `json:"lowConfidence"`
	Source        Source               `json:"source"`
	ModelVersion  uint64               `json:"modelVersion"`
	TopFeatures   []model.Contribution `json:"topFeatures,omitempty"`
}

type published struct {
	model model.Model
}

// Scorer applies the scoring policy. It is safe for concurrent use.
type Scorer struct {
	global      atomic.Pointer[published]
	topFeatures int
}

// New returns a scorer with no global model.
func New() *Scorer {
	return &Scorer{topFeatures: DefaultTopFeatures}
}

// Publish makes m the global model for every subsequent Score call. A nil
// m withdraws the global model.
func (s *Scorer) Publish(m model.Model) {
	if m == nil {
		s.global.Store(nil)
		metrics.SetGlobalModel(0, 0)
		return
	}
	s.global.Store(&published{model: m})
	meta := m.Meta()
	metrics.SetGlobalModel(meta.Version, meta.Samples)
}

// Global returns the published global model, or nil.
func (s *Scorer) Global() model.Model {
	if p := s.global.Load(); p != nil {
		return p.model
	}
	return nil
}

// Score scores v for the profile view p, which may be nil. lowConfidence
// marks a vector extracted from too few events; it is carried through to
// the result.
func (s *Scorer) Score(v features.Vector, p *profile.View, lowConfidence bool) Result {
	start := time.Now()

	var m model.Model
	source := SourceNone
	if p != nil && p.State.HasModel() && p.Model != nil {
		m, source = p.Model, SourceUser
	} else if g := s.Global(); g != nil {
		m, source = g, SourceGlobal
	}

	res := Result{Source: source, LowConfidence: lowConfidence}
	if m == nil {
		res.LowConfidence = true
	} else {
		res.Score = clamp(m.Score(v))
		res.ModelVersion = m.Meta().Version
		res.TopFeatures = model.Explain(m, v, s.topFeatures)
	}

	metrics.RecordScore(string(source), res.Score, time.Since(start))
	return res
}

func clamp(x float64) float64 {
	switch {
	case math.IsNaN(x) || x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
