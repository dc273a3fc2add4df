// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package trainer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/features"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/model"
	"github.com/tomtom215/cadence/internal/profile"
)

// ErrInsufficientSamples is returned when the pooled history is below MinSamples.
var ErrInsufficientSamples = errors.New("insufficient pooled samples for global model")

// Outcome labels one training cycle.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeSkipped      Outcome = "skipped"
	OutcomeInsufficient Outcome = "insufficient"
	OutcomeError        Outcome = "error"
)

// Source supplies profile snapshots. Satisfied by *profile.Store.
type Source interface {
	SnapshotAll() []profile.Snapshot
}

// Publisher makes a model visible to scorers. Satisfied by *scoring.Scorer.
type Publisher interface {
	Publish(m model.Model)
	Global() model.Model
}

// Checkpointer persists a published model. Satisfied by *scoring.Checkpoint.
type Checkpointer interface {
	Save(m model.Model) error
}

type fingerprint struct {
	profiles int
	volume   int
	versions uint64
}

// GlobalTrainer periodically trains and publishes the global model.
type GlobalTrainer struct {
	cfg        config.GlobalModelConfig
	trainer    model.Trainer
	source     Source
	publisher  Publisher
	checkpoint Checkpointer
	logger     zerolog.Logger

	mu   sync.Mutex
	last *fingerprint
}

// New creates a global trainer. checkpoint may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg config.GlobalModelConfig, trainer model.Trainer, source Source, publisher Publisher, checkpoint Checkpointer, logger zerolog.Logger) *GlobalTrainer {
	return &GlobalTrainer{
		cfg:        cfg,
		trainer:    trainer,
		source:     source,
		publisher:  publisher,
		checkpoint: checkpoint,
		logger:     logger.With().Str("component", "global-trainer").Logger(),
	}
}

// RunWithContext trains on startup (when configured) and then on every
// interval until ctx is cancelled. Failures are logged and never stop the
// loop. The published model is never left half-replaced on shutdown.
func (g *GlobalTrainer) RunWithContext(ctx context.Context) error {
	if g.cfg.Interval <= 0 {
		g.logger.Info().Msg("Global model training disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	g.logger.Info().
		Dur("interval", g.cfg.Interval).
		Int("min_samples", g.cfg.MinSamples).
		Int("max_samples", g.cfg.MaxSamples).
		Str("algorithm", g.trainer.Algorithm()).
		Msg("Global model trainer starting")

	if g.cfg.TrainOnStartup {
		g.cycle(ctx)
	}

	ticker := time.NewTicker(g.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.logger.Info().Msg("Global model trainer stopped")
			return ctx.Err()
		case <-ticker.C:
			g.cycle(ctx)
		}
	}
}

func (g *GlobalTrainer) cycle(ctx context.Context) {
	outcome, err := g.TrainOnce(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		// shutting down
	case outcome == OutcomeInsufficient:
		g.logger.Info().Err(err).Msg("Global model not retrained")
	case err != nil:
		g.logger.Error().Err(err).Msg("Global model training failed, keeping previous model")
	}
}

// TrainOnce runs a single training cycle.
func (g *GlobalTrainer) TrainOnce(ctx context.Context) (Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	samples, fp := pool(g.source.SnapshotAll(), g.cfg.MaxSamples)

	if g.last != nil && *g.last == fp && g.publisher.Global() != nil {
		metrics.RecordGlobalTraining(string(OutcomeSkipped), 0)
		g.logger.Debug().Int("samples", len(samples)).Msg("Global model inputs unchanged, skipping")
		return OutcomeSkipped, nil
	}
	if len(samples) < g.cfg.MinSamples || len(samples) < model.MinSamples {
		metrics.RecordGlobalTraining(string(OutcomeInsufficient), 0)
		return OutcomeInsufficient, fmt.Errorf("%w: have %d, need %d", ErrInsufficientSamples, len(samples), g.cfg.MinSamples)
	}

	tctx := ctx
	if g.cfg.TrainTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, g.cfg.TrainTimeout)
		defer cancel()
	}

	var version uint64 = 1
	if prev := g.publisher.Global(); prev != nil {
		version = prev.Meta().Version + 1
	}

	m, err := g.trainer.Train(tctx, samples, version)
	if err != nil {
		metrics.RecordGlobalTraining(string(OutcomeError), time.Since(start))
		return OutcomeError, fmt.Errorf("train global model: %w", err)
	}

	g.publisher.Publish(m)
	g.last = &fp
	metrics.RecordGlobalTraining(string(OutcomeSuccess), time.Since(start))

	if g.checkpoint != nil {
		if err := g.checkpoint.Save(m); err != nil {
			g.logger.Error().Err(err).Uint64("version", version).Msg("Failed to checkpoint global model")
		}
	}

	g.logger.Info().
		Uint64("version", version).
		Int("samples", len(samples)).
		Int("profiles", fp.profiles).
		Dur("duration", time.Since(start)).
		Msg("Global model published")
	return OutcomeSuccess, nil
}

// pool draws up to maxSamples vectors from trained and stale profiles,
// newest first and one per profile per round, visiting profiles in the
// order given. maxSamples <= 0 takes everything.
func pool(snaps []profile.Snapshot, maxSamples int) ([]features.Vector, fingerprint) {
	var fp fingerprint
	eligible := make([]profile.Snapshot, 0, len(snaps))
	longest := 0
	for _, s := range snaps {
		if !s.State.HasModel() || len(s.History) == 0 {
			continue
		}
		eligible = append(eligible, s)
		fp.profiles++
		fp.volume += len(s.History)
		fp.versions += s.ModelVersion
		if len(s.History) > longest {
			longest = len(s.History)
		}
	}

	limit := fp.volume
	if maxSamples > 0 && maxSamples < limit {
		limit = maxSamples
	}
	out := make([]features.Vector, 0, limit)
	for round := 0; round < longest && len(out) < limit; round++ {
		for _, s := range eligible {
			if round >= len(s.History) {
				continue
			}
			out = append(out, s.History[len(s.History)-1-round])
			if len(out) == limit {
				break
			}
		}
	}
	return out, fp
}
