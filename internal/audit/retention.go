// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package audit

import (
	"context"
	"time"

	"github.com/tomtom215/cadence/internal/logging"
)

// RetentionService prunes persisted events older than the retention window.
// It implements suture.Service.
type RetentionService struct {
	store     Store
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewRetentionService creates the cleanup service. A zero retention or
// interval keeps everything.
func NewRetentionService(store Store, retention, interval time.Duration) *RetentionService {
	return &RetentionService{
		store:     store,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Serve implements suture.Service.
func (s *RetentionService) Serve(ctx context.Context) error {
	if s.store == nil || s.retention <= 0 || s.interval <= 0 {
		logging.Info().Msg("Security event retention disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Prune(ctx)
		}
	}
}

// Prune runs one cleanup pass and returns the number of deleted events.
func (s *RetentionService) Prune(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.retention)
	count, err := s.store.Delete(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("Security event cleanup error")
		return 0
	}
	if count > 0 {
		logging.Info().Int64("count", count).Time("cutoff", cutoff).Msg("Cleaned up old security events")
	}
	return count
}

// String implements fmt.Stringer for suture logging.
func (s *RetentionService) String() string {
	return "audit-retention"
}
