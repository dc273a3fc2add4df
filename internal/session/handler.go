// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/cadence/internal/audit"
	"github.com/tomtom215/cadence/internal/auth"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/features"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/profile"
	"github.com/tomtom215/cadence/internal/scoring"
)

// ErrShuttingDown is returned by Shutdown when sessions outlive its context.
var ErrShuttingDown = errors.New("sessions still draining")

// Verifier checks the credential presented in the auth frame.
type Verifier interface {
	Verify(token string) (*auth.Identity, error)
}

// Options wires a Handler to the engine.
type Options struct {
	Risk     config.RiskConfig
	Session  config.SessionConfig
	Profiles *profile.Store
	Scorer   *scoring.Scorer
	Events   *audit.Logger
	Verifier Verifier

	// CheckOrigin validates the upgrade's Origin header. Nil accepts all.
	CheckOrigin func(r *http.Request) bool
}

// Handler upgrades telemetry connections and runs one Session per
// connection until it terminates.
type Handler struct {
	cfg       config.SessionConfig
	extractor features.Extractor
	policy    Policy
	profiles  *profile.Store
	scorer    *scoring.Scorer
	events    *audit.Logger
	verifier  Verifier
	registry  *Registry
	counters  *Counters
	upgrader  websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewHandler builds a handler from opts.
func NewHandler(opts Options) *Handler {
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		cfg:       opts.Session,
		extractor: features.NewExtractor(opts.Risk.MinBatchEvents),
		policy:    Policy{Low: opts.Risk.LowThreshold, High: opts.Risk.HighThreshold},
		profiles:  opts.Profiles,
		scorer:    opts.Scorer,
		events:    opts.Events,
		verifier:  opts.Verifier,
		registry:  NewRegistry(),
		counters:  &Counters{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Registry returns the live session registry.
func (h *Handler) Registry() *Registry { return h.registry }

// Counters returns the monitor counters.
func (h *Handler) Counters() *Counters { return h.counters }

// Draining reports whether Shutdown has been called.
func (h *Handler) Draining() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// ServeHTTP upgrades the request and blocks until the session ends.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Telemetry upgrade failed")
		return
	}

	s := newSession(h, conn, r.RemoteAddr)
	s.run(h.ctx)
}

// Shutdown refuses new connections, terminates every session with
// server-shutdown and waits for them to finish or ctx to expire.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrShuttingDown
	}
}

func (h *Handler) now() time.Time {
	return time.Now().UTC()
}
