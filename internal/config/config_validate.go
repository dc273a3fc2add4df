// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "console": true,
}

var validEnvironments = map[string]bool{
	"production": true, "development": true,
}

// validAlgorithms mirrors the model variants registered in internal/model.
var validAlgorithms = map[string]bool{
	"baseline": true, "iforest": true,
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateSecurity,
		c.validateRisk,
		c.validateProfiles,
		c.validateGlobalModel,
		c.validateSession,
		c.validateStorage,
		c.validateAudit,
		c.validateAlerts,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("ENVIRONMENT must be one of: production, development")
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("HTTP_TIMEOUT must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if err := c.validateJWTSecret(); err != nil {
		return err
	}
	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.Security.LegacyToken != "" && len(c.Security.LegacyToken) < 16 && !c.IsDevelopment() {
		return fmt.Errorf("AUTH_TOKEN must be at least 16 characters")
	}
	return c.validateRateLimits()
}

// validateJWTSecret allows an empty secret only in development, where the
// server generates an ephemeral one at startup.
func (c *Config) validateJWTSecret() error {
	secret := c.Security.JWTSecret
	if secret == "" {
		if c.IsDevelopment() {
			return nil
		}
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	if len(secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if containsPlaceholder(secret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateRisk() error {
	low, high := c.Risk.LowThreshold, c.Risk.HighThreshold
	if low < 0 || low > 1 || high < 0 || high > 1 {
		return fmt.Errorf("risk thresholds must be within [0,1], got low=%.3f high=%.3f", low, high)
	}
	if low >= high {
		return fmt.Errorf("RISK_LOW_THRESHOLD (%.3f) must be below RISK_HIGH_THRESHOLD (%.3f)", low, high)
	}
	if c.Risk.MinBatchEvents < 1 {
		return fmt.Errorf("MIN_BATCH_EVENTS must be at least 1")
	}
	return nil
}

func (c *Config) validateProfiles() error {
	p := c.Profiles
	if p.CalibrationFloor < 2 {
		return fmt.Errorf("CALIBRATION_FLOOR must be at least 2, got %d", p.CalibrationFloor)
	}
	if p.HistoryCapacity < p.CalibrationFloor {
		return fmt.Errorf("HISTORY_CAPACITY (%d) must be at least CALIBRATION_FLOOR (%d)", p.HistoryCapacity, p.CalibrationFloor)
	}
	if p.RetrainEvery < 0 || p.RetrainInterval < 0 {
		return fmt.Errorf("retrain cadence must not be negative")
	}
	if p.RetrainWorkers < 1 {
		return fmt.Errorf("RETRAIN_WORKERS must be at least 1")
	}
	if p.RetrainQueueSize < 1 {
		return fmt.Errorf("profiles.retrain_queue_size must be at least 1")
	}
	if !validAlgorithms[p.Algorithm] {
		return fmt.Errorf("USER_MODEL_ALGORITHM must be one of: %s", algorithmList())
	}
	return nil
}

func (c *Config) validateGlobalModel() error {
	g := c.GlobalModel
	if g.Interval < 0 {
		return fmt.Errorf("GLOBAL_TRAIN_INTERVAL must not be negative (0 disables training)")
	}
	if g.MinSamples < 1 {
		return fmt.Errorf("GLOBAL_MIN_SAMPLES must be at least 1")
	}
	if g.MinSamples > g.MaxSamples {
		return fmt.Errorf("GLOBAL_MIN_SAMPLES (%d) must not exceed GLOBAL_MAX_SAMPLES (%d)", g.MinSamples, g.MaxSamples)
	}
	if g.TrainTimeout < 0 {
		return fmt.Errorf("GLOBAL_TRAIN_TIMEOUT must not be negative")
	}
	if !validAlgorithms[g.Algorithm] {
		return fmt.Errorf("GLOBAL_MODEL_ALGORITHM must be one of: %s", algorithmList())
	}
	if g.Trees < 1 || g.SampleSize < 2 {
		return fmt.Errorf("global_model.trees must be >= 1 and global_model.sample_size >= 2")
	}
	return nil
}

func (c *Config) validateSession() error {
	s := c.Session
	if s.AuthTimeout <= 0 {
		return fmt.Errorf("AUTH_TIMEOUT must be positive")
	}
	if s.ProtocolErrorTolerance < 0 {
		return fmt.Errorf("PROTOCOL_ERROR_TOLERANCE must not be negative")
	}
	switch s.BlockPolicy {
	case BlockPolicyTerminal:
	case BlockPolicyRecoverable:
		if s.RecoveryPasses < 1 {
			return fmt.Errorf("RECOVERY_PASSES must be at least 1 when BLOCK_POLICY is recoverable")
		}
	default:
		return fmt.Errorf("BLOCK_POLICY must be one of: terminal, recoverable")
	}
	if s.MaxMessageBytes <= 0 {
		return fmt.Errorf("session.max_message_bytes must be positive")
	}
	if s.MessagesPerSecond <= 0 || s.MessageBurst < 1 {
		return fmt.Errorf("session message rate limit must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.InMemory && strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("DATA_PATH is required unless STORAGE_IN_MEMORY is true")
	}
	if c.Storage.GCInterval < 0 || c.Storage.CloseTimeout < 0 {
		return fmt.Errorf("storage durations must not be negative")
	}
	if c.Storage.GCRatio <= 0 || c.Storage.GCRatio >= 1 {
		return fmt.Errorf("storage gc_ratio must be in (0, 1), got %v", c.Storage.GCRatio)
	}
	return nil
}

func (c *Config) validateAudit() error {
	if c.Audit.BufferSize < 1 || c.Audit.RecentCapacity < 1 {
		return fmt.Errorf("audit buffer and recent capacity must be positive")
	}
	if c.Audit.Retention < 0 {
		return fmt.Errorf("AUDIT_RETENTION must not be negative")
	}
	return nil
}

func (c *Config) validateAlerts() error {
	if c.Alerts.WebhookURL == "" {
		return nil
	}
	if !strings.HasPrefix(c.Alerts.WebhookURL, "http://") && !strings.HasPrefix(c.Alerts.WebhookURL, "https://") {
		return fmt.Errorf("ALERT_WEBHOOK_URL must be an http(s) URL")
	}
	if c.Alerts.Timeout <= 0 {
		return fmt.Errorf("ALERT_TIMEOUT must be positive")
	}
	return nil
}

func algorithmList() string {
	return "baseline, iforest"
}

var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
