// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
)

// ContextRunner matches components whose main loop is RunWithContext.
//
// Satisfied by *websocket.Hub and *trainer.GlobalTrainer.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService wraps a ContextRunner as a supervised service. The runner
// already follows the suture.Service contract, so this only names it for
// the supervisor's logs.
//
// Example usage:
//
//	tree.AddEngineService(services.NewRunnerService("monitor-hub", hub))
//	tree.AddEngineService(services.NewRunnerService("global-trainer", globalTrainer))
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewRunnerService creates a new runner service wrapper.
func NewRunnerService(name string, runner ContextRunner) *RunnerService {
	return &RunnerService{
		runner: runner,
		name:   name,
	}
}

// Serve implements suture.Service.
func (r *RunnerService) Serve(ctx context.Context) error {
	return r.runner.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
func (r *RunnerService) String() string {
	return r.name
}
