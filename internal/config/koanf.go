// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cadence/config.yaml",
	"/etc/cadence/config.yml",
}

// ConfigPathEnvVar names an explicit config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns the built-in defaults without reading the file or the
// environment.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8765,
			Timeout:     30 * time.Second,
			Environment: "production",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Security: SecurityConfig{
			JWTSecret:       "",
			LegacyToken:     "",
			TokenTTL:        30 * time.Minute,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Risk: RiskConfig{
			LowThreshold:   0.3,
			HighThreshold:  0.7,
			MinBatchEvents: 3,
		},
		Profiles: ProfilesConfig{
			CalibrationFloor: 30,
			HistoryCapacity:  100,
			RetrainEvery:     20,
			RetrainInterval:  time.Hour,
			RetrainWorkers:   2,
			RetrainQueueSize: 256,
			Algorithm:        "baseline",
		},
		GlobalModel: GlobalModelConfig{
			Interval:       10 * time.Minute,
			MinSamples:     100,
			MaxSamples:     5000,
			TrainTimeout:   2 * time.Minute,
			TrainOnStartup: true,
			Algorithm:      "iforest",
			Trees:          100,
			SampleSize:     256,
			Seed:           42,
		},
		Session: SessionConfig{
			AuthTimeout:            5 * time.Second,
			ProtocolErrorTolerance: 5,
			BlockPolicy:            BlockPolicyTerminal,
			RecoveryPasses:         3,
			MaxMessageBytes:        512 * 1024,
			MessagesPerSecond:      20,
			MessageBurst:           40,
		},
		Storage: StorageConfig{
			Path:         "/data/cadence",
			InMemory:     false,
			SyncWrites:   true,
			GCInterval:   10 * time.Minute,
			GCRatio:      0.5,
			CloseTimeout: 30 * time.Second,
		},
		Audit: AuditConfig{
			BufferSize:      1000,
			RecentCapacity:  200,
			Retention:       30 * 24 * time.Hour,
			CleanupInterval: time.Hour,
		},
		Alerts: AlertsConfig{
			Timeout:          5 * time.Second,
			MinInterval:      500 * time.Millisecond,
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
		},
		Events: EventsConfig{
			Subject:    "cadence.security",
			BufferSize: 256,
			JetStream:  true,
		},
		Authz: AuthzConfig{
			CacheTTL: 5 * time.Minute,
		},
	}
}

// LoadWithKoanf layers defaults, the optional YAML file and environment
// variables, then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths accept comma-separated strings from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"jwt_secret":          "security.jwt_secret",
	"auth_token":          "security.legacy_token",
	"jwt_ttl":             "security.token_ttl",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"risk_low_threshold":  "risk.low_threshold",
	"risk_high_threshold": "risk.high_threshold",
	"min_batch_events":    "risk.min_batch_events",

	"calibration_floor":    "profiles.calibration_floor",
	"history_capacity":     "profiles.history_capacity",
	"retrain_every":        "profiles.retrain_every",
	"retrain_interval":     "profiles.retrain_interval",
	"retrain_workers":      "profiles.retrain_workers",
	"user_model_algorithm": "profiles.algorithm",

	"global_train_interval":  "global_model.interval",
	"global_min_samples":     "global_model.min_samples",
	"global_max_samples":     "global_model.max_samples",
	"global_train_timeout":   "global_model.train_timeout",
	"global_model_algorithm": "global_model.algorithm",
	"global_model_seed":      "global_model.seed",

	"auth_timeout":             "session.auth_timeout",
	"protocol_error_tolerance": "session.protocol_error_tolerance",
	"block_policy":             "session.block_policy",
	"recovery_passes":          "session.recovery_passes",

	"data_path":         "storage.path",
	"storage_in_memory": "storage.in_memory",

	"audit_retention": "audit.retention",

	"alert_webhook_url": "alerts.webhook_url",
	"alert_timeout":     "alerts.timeout",

	"nats_url":     "events.nats_url",
	"nats_subject": "events.subject",

	"casbin_model_path":  "authz.model_path",
	"casbin_policy_path": "authz.policy_path",
}

// envTransformFunc maps an environment variable to its config key.
// Unmapped variables return "" and are ignored.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
