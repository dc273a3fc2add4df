// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package metrics provides Prometheus instrumentation for the risk engine.

Metrics are registered with the default registry through promauto and
exposed at /metrics in Prometheus text format:

	curl http://localhost:8765/metrics

# Available Metrics

Session Metrics:
  - cadence_connections_total: Telemetry connections accepted (counter)
  - cadence_sessions_active: Sessions currently open (gauge)
  - cadence_session_terminations_total: Terminations (counter)
    Labels: reason
  - cadence_auth_attempts_total: Handshake outcomes (counter)
    Labels: result (success, failure)
  - cadence_messages_total: Inbound protocol messages (counter)
    Labels: type
  - cadence_protocol_errors_total: Rejected inbound messages (counter)

Scoring Metrics:
  - cadence_risk_score: Distribution of risk scores (histogram)
    Labels: source (user, global, none)
  - cadence_scoring_duration_seconds: Extraction plus scoring latency (histogram)
  - cadence_decisions_total: Risk decisions (counter)
    Labels: decision (allow, advisory, block)

Model Lifecycle Metrics:
  - cadence_profiles: Profiles by training state (gauge)
    Labels: state
  - cadence_profile_retrains_total: Per-user retrains (counter)
    Labels: result
  - cadence_profile_retrain_duration_seconds (histogram)
  - cadence_retrain_queue_depth (gauge)
  - cadence_global_model_version (gauge)
  - cadence_global_model_samples (gauge)
  - cadence_global_model_trainings_total (counter)
    Labels: result (success, skipped, insufficient, error)
  - cadence_global_model_training_duration_seconds (histogram)

Event Metrics:
  - cadence_security_events_total (counter), labels: kind
  - cadence_security_events_dropped_total (counter)
  - cadence_alerts_total (counter), labels: result
  - cadence_monitor_clients (gauge)

HTTP Metrics:
  - cadence_http_requests_total (counter), labels: method, endpoint, status
  - cadence_http_request_duration_seconds (histogram), labels: method, endpoint
  - cadence_http_requests_in_flight (gauge)
*/
package metrics
