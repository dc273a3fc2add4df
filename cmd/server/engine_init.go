// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/cadence/internal/audit"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/model"
	"github.com/tomtom215/cadence/internal/profile"
	"github.com/tomtom215/cadence/internal/scoring"
	"github.com/tomtom215/cadence/internal/storage"
	"github.com/tomtom215/cadence/internal/supervisor"
	"github.com/tomtom215/cadence/internal/supervisor/services"
	"github.com/tomtom215/cadence/internal/trainer"
)

// engine is everything that scores sessions and records what happened.
type engine struct {
	store    *storage.Store
	profiles *profile.Store
	scorer   *scoring.Scorer
	events   *audit.Logger

	retrain   *profile.RetrainPool
	global    *trainer.GlobalTrainer
	retention *audit.RetentionService
	gc        *storage.GCService
}

// initEngine opens storage and restores persisted profiles and the last
// global model. The returned engine owns store; close it with close().
func initEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	userTrainer, err := model.NewTrainer(cfg.Profiles.Algorithm, model.Options{})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("user model: %w", err)
	}
	globalTrainer, err := model.NewTrainer(cfg.GlobalModel.Algorithm, model.Options{
		Trees:      cfg.GlobalModel.Trees,
		SampleSize: cfg.GlobalModel.SampleSize,
		Seed:       cfg.GlobalModel.Seed,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("global model: %w", err)
	}

	profiles := profile.NewStore(cfg.Profiles, userTrainer, profile.NewBadgerRepository(store))
	loadCtx, cancel := context.WithTimeout(ctx, time.Minute)
	_, err = profiles.Load(loadCtx)
	cancel()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	scorer := scoring.New()
	checkpoint := scoring.NewCheckpoint(store)
	if err := checkpoint.Restore(scorer); err != nil {
		// A bad checkpoint only costs us the population model until the
		// next training cycle.
		logging.Warn().Err(err).Msg("Failed to restore global model")
	}

	auditStore := audit.NewBadgerStore(store)
	events := audit.NewLogger(auditStore, audit.ConfigFrom(cfg.Audit))

	return &engine{
		store:     store,
		profiles:  profiles,
		scorer:    scorer,
		events:    events,
		retrain:   profile.NewRetrainPool(profiles, cfg.Profiles.RetrainWorkers),
		global:    trainer.New(cfg.GlobalModel, globalTrainer, profiles, scorer, checkpoint, logging.Logger()),
		retention: audit.NewRetentionService(auditStore, cfg.Audit.Retention, cfg.Audit.CleanupInterval),
		gc:        storage.NewGCService(store, cfg.Storage.GCInterval),
	}, nil
}

// supervise adds the engine's background services to the tree.
func (e *engine) supervise(tree *supervisor.SupervisorTree) {
	tree.AddStorageService(e.gc)
	tree.AddStorageService(e.retention)
	tree.AddEngineService(e.retrain)
	tree.AddEngineService(services.NewRunnerService("global-trainer", e.global))
}

// close flushes the event log and closes storage. It must run after the
// supervisor tree has stopped.
func (e *engine) close() {
	if err := e.events.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing security event log")
	}
	if err := e.store.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing storage")
	}
}
