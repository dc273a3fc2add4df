// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

type countingRunner struct {
	runs atomic.Int32
	fail int32
}

func (r *countingRunner) RunWithContext(ctx context.Context) error {
	n := r.runs.Add(1)
	if n <= r.fail {
		return errors.New("runner crashed")
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunnerService(t *testing.T) {
	var _ suture.Service = (*RunnerService)(nil)

	svc := NewRunnerService("global-trainer", &countingRunner{})
	if svc.String() != "global-trainer" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}

func TestRunnerService_RestartedBySupervisor(t *testing.T) {
	runner := &countingRunner{fail: 2}

	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(NewRunnerService("flaky", runner))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for runner.runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-errCh

	if got := runner.runs.Load(); got < 3 {
		t.Errorf("runs = %d, want at least 3 after two crashes", got)
	}
}
