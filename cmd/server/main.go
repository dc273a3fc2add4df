// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/cadence/internal/api"
	"github.com/tomtom215/cadence/internal/auth"
	"github.com/tomtom215/cadence/internal/authz"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/session"
	"github.com/tomtom215/cadence/internal/supervisor"
	"github.com/tomtom215/cadence/internal/supervisor/services"
	ws "github.com/tomtom215/cadence/internal/websocket"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("storage", cfg.Storage.Path).
		Bool("in_memory", cfg.Storage.InMemory).
		Str("block_policy", cfg.Session.BlockPolicy).
		Float64("low_threshold", cfg.Risk.LowThreshold).
		Float64("high_threshold", cfg.Risk.HighThreshold).
		Msg("Starting Cadence with supervisor tree")

	warnInsecureSettings(cfg)

	if cfg.Security.JWTSecret == "" {
		// Validate only lets this through in development.
		secret, err := auth.EphemeralSecret()
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to generate development JWT secret")
		}
		cfg.Security.JWTSecret = secret
		logging.Warn().Msg("JWT_SECRET not set, using an ephemeral development secret; tokens will not survive a restart")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := initEngine(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize engine")
	}
	defer eng.close()

	// This bridges zerolog to slog for sutureslog compatibility
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	eng.supervise(tree)

	checkOrigin := api.OriginChecker(cfg.Security.CORSOrigins)
	hub := ws.NewHub(checkOrigin)
	fanout := initEvents(cfg, eng.events, hub, tree)
	defer fanout.close()

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	enforcer, err := authz.NewEnforcer(cfg.Authz)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}
	defer enforcer.Close()

	sessions := session.NewHandler(session.Options{
		Risk:        cfg.Risk,
		Session:     cfg.Session,
		Profiles:    eng.profiles,
		Scorer:      eng.scorer,
		Events:      eng.events,
		Verifier:    auth.NewTokenVerifier(jwtManager, cfg.Security.LegacyToken),
		CheckOrigin: checkOrigin,
	})

	handler := api.NewHandler(api.Deps{
		Events:   eng.events,
		Profiles: eng.profiles,
		Scorer:   eng.scorer,
		Sessions: sessions,
		Hub:      hub,
		Store:    eng.store,
	})
	router := api.NewRouter(handler, sessions,
		auth.NewMiddleware(jwtManager),
		authz.NewMiddleware(enforcer),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security)))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second, sessions))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// warnInsecureSettings logs loud warnings for settings that are only
// acceptable in development.
func warnInsecureSettings(cfg *config.Config) {
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (RATE_LIMIT_DISABLED=true)")
	}

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: CORS is configured with wildcard origin (CORS_ORIGINS=*)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  Any website may open telemetry sockets and call the query API.")
		logging.Warn().Msg("  RECOMMENDED: Set specific origins in production:")
		logging.Warn().Msg("    CORS_ORIGINS=https://yourdomain.com,https://app.yourdomain.com")
		logging.Warn().Msg("============================================================")
	}

	if cfg.Security.LegacyToken != "" {
		logging.Warn().Msg("Static AUTH_TOKEN accepted on the telemetry socket; sessions bind to the first userId they claim")
	}

	if cfg.Storage.InMemory && !cfg.IsDevelopment() {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  NOTICE: Storage is in memory (STORAGE_IN_MEMORY=true)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  Profiles, blocks and security events are lost on restart.")
		logging.Warn().Msg("============================================================")
	}
}
