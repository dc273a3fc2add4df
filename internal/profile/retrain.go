// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package profile

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
)

const defaultRetrainTimeout = time.Minute

// RetrainPool drains the store's retrain queue with a fixed number of
// workers. It implements suture.Service; queued requests survive a
// restart of the pool because the queue belongs to the Store.
type RetrainPool struct {
	store   *Store
	workers int
	timeout time.Duration
}

// NewRetrainPool returns a pool of workers for store.
func NewRetrainPool(store *Store, workers int) *RetrainPool {
	if workers < 1 {
		workers = 1
	}
	return &RetrainPool{store: store, workers: workers, timeout: defaultRetrainTimeout}
}

// Serve runs the workers until ctx is cancelled.
func (r *RetrainPool) Serve(ctx context.Context) error {
	logging.Info().Int("workers", r.workers).Msg("Profile retrain pool started")

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.work(ctx)
		}()
	}
	wg.Wait()

	logging.Info().Msg("Profile retrain pool stopped")
	return ctx.Err()
}

func (r *RetrainPool) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case userID := <-r.store.queue:
			metrics.RetrainQueueDepth.Set(float64(len(r.store.queue)))
			tctx, cancel := context.WithTimeout(ctx, r.timeout)
			_ = r.store.Retrain(tctx, userID) // logged by Retrain
			cancel()
		}
	}
}

func (r *RetrainPool) String() string {
	return "profile-retrain-pool"
}
