// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package config loads Cadence configuration with Koanf v2.
//
// Sources are layered, highest priority last:
//
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML file (CONFIG_PATH, else config.yaml / /etc/cadence/config.yaml)
//  3. Environment variables, mapped explicitly in envTransformFunc
//
// The loaded configuration is validated before it is returned; an invalid
// threshold pair or sample bound is a startup error, never a runtime one.
//
// Example config.yaml:
//
//	risk:
//	  low_threshold: 0.3
//	  high_threshold: 0.7
//	profiles:
//	  calibration_floor: 30
//	  history_capacity: 100
//	global_model:
//	  interval: 10m
//	  min_samples: 100
//	  max_samples: 5000
//	session:
//	  auth_timeout: 5s
//	  block_policy: terminal
package config
