// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package storage

import (
	"context"
	"time"

	"github.com/tomtom215/cadence/internal/logging"
)

// GCService periodically reclaims value log space. It implements
// suture.Service.
type GCService struct {
	store    *Store
	interval time.Duration
}

// NewGCService returns a collector for store running every interval.
func NewGCService(store *Store, interval time.Duration) *GCService {
	return &GCService{store: store, interval: interval}
}

// Serve runs until ctx is cancelled.
func (g *GCService) Serve(ctx context.Context) error {
	if g.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := g.store.RunGC(); err != nil {
				logging.Error().Err(err).Msg("Storage GC failed")
				continue
			}
			logging.Debug().Dur("duration", time.Since(start)).Msg("Storage GC complete")
		}
	}
}

func (g *GCService) String() string {
	return "storage-gc"
}
