// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"time"
)

// Block policies for a session whose score crossed the high threshold.
const (
	BlockPolicyTerminal    = "terminal"
	BlockPolicyRecoverable = "recoverable"
)

// Config is the complete application configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Security    SecurityConfig    `koanf:"security"`
	Risk        RiskConfig        `koanf:"risk"`
	Profiles    ProfilesConfig    `koanf:"profiles"`
	GlobalModel GlobalModelConfig `koanf:"global_model"`
	Session     SessionConfig     `koanf:"session"`
	Storage     StorageConfig     `koanf:"storage"`
	Audit       AuditConfig       `koanf:"audit"`
	Alerts      AlertsConfig      `koanf:"alerts"`
	Events      EventsConfig      `koanf:"events"`
	Authz       AuthzConfig       `koanf:"authz"`
}

type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // production or development
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SecurityConfig covers bearer token verification and the HTTP surface.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	LegacyToken       string        `koanf:"legacy_token"` // static AUTH_TOKEN accepted on the telemetry socket
	TokenTTL          time.Duration `koanf:"token_ttl"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// RiskConfig holds the decision thresholds applied to every score.
type RiskConfig struct {
	LowThreshold   float64 `koanf:"low_threshold"`
	HighThreshold  float64 `koanf:"high_threshold"`
	MinBatchEvents int     `koanf:"min_batch_events"`
}

// ProfilesConfig controls per-user history and retraining.
type ProfilesConfig struct {
	CalibrationFloor int           `koanf:"calibration_floor"`
	HistoryCapacity  int           `koanf:"history_capacity"`
	RetrainEvery     int           `koanf:"retrain_every"`
	RetrainInterval  time.Duration `koanf:"retrain_interval"`
	RetrainWorkers   int           `koanf:"retrain_workers"`
	RetrainQueueSize int           `koanf:"retrain_queue_size"`
	Algorithm        string        `koanf:"algorithm"`
}

// GlobalModelConfig controls the periodic population model trainer.
// An Interval of zero disables the trainer.
type GlobalModelConfig struct {
	Interval       time.Duration `koanf:"interval"`
	MinSamples     int           `koanf:"min_samples"`
	MaxSamples     int           `koanf:"max_samples"`
	TrainTimeout   time.Duration `koanf:"train_timeout"`
	TrainOnStartup bool          `koanf:"train_on_startup"`
	Algorithm      string        `koanf:"algorithm"`
	Trees          int           `koanf:"trees"`
	SampleSize     int           `koanf:"sample_size"`
	Seed           int64         `koanf:"seed"`
}

type SessionConfig struct {
	AuthTimeout            time.Duration `koanf:"auth_timeout"`
	ProtocolErrorTolerance int           `koanf:"protocol_error_tolerance"`
	BlockPolicy            string        `koanf:"block_policy"`
	RecoveryPasses         int           `koanf:"recovery_passes"`
	MaxMessageBytes        int64         `koanf:"max_message_bytes"`
	MessagesPerSecond      float64       `koanf:"messages_per_second"`
	MessageBurst           int           `koanf:"message_burst"`
}

type StorageConfig struct {
	Path         string        `koanf:"path"`
	InMemory     bool          `koanf:"in_memory"`
	SyncWrites   bool          `koanf:"sync_writes"`
	GCInterval   time.Duration `koanf:"gc_interval"`
	GCRatio      float64       `koanf:"gc_ratio"`
	CloseTimeout time.Duration `koanf:"close_timeout"`
}

type AuditConfig struct {
	BufferSize      int           `koanf:"buffer_size"`
	RecentCapacity  int           `koanf:"recent_capacity"`
	Retention       time.Duration `koanf:"retention"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// AlertsConfig configures the anomaly-block webhook. An empty URL disables it.
type AlertsConfig struct {
	WebhookURL       string            `koanf:"webhook_url"`
	Timeout          time.Duration     `koanf:"timeout"`
	MinInterval      time.Duration     `koanf:"min_interval"`
	Headers          map[string]string `koanf:"headers"`
	FailureThreshold uint32            `koanf:"failure_threshold"`
	OpenTimeout      time.Duration     `koanf:"open_timeout"`
}

// EventsConfig configures security event fan-out. An empty NATSURL keeps
// events in process.
type EventsConfig struct {
	NATSURL       string `koanf:"nats_url"`
	Subject       string `koanf:"subject"`
	BufferSize    int64  `koanf:"buffer_size"`
	JetStream     bool   `koanf:"jetstream"`
	AutoProvision bool   `koanf:"auto_provision"`
}

type AuthzConfig struct {
	ModelPath  string        `koanf:"model_path"`
	PolicyPath string        `koanf:"policy_path"`
	CacheTTL   time.Duration `koanf:"cache_ttl"`
}

// Load reads configuration from defaults, file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return joinHostPort(c.Server.Host, c.Server.Port)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// ShouldWarnAboutCORS reports a wildcard origin outside development.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.hasWildcardCORS() && !c.IsDevelopment()
}

func (c *Config) hasWildcardCORS() bool {
	for _, o := range c.Security.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}
