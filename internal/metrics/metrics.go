// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session Metrics
	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_connections_total",
			Help: "Total telemetry connections accepted",
		},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_sessions_active",
			Help: "Number of telemetry sessions currently open",
		},
	)

	SessionTerminations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_session_terminations_total",
			Help: "Total session terminations by reason",
		},
		[]string{"reason"},
	)

	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_auth_attempts_total",
			Help: "Total session authentication handshakes by result",
		},
		[]string{"result"},
	)

	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_messages_total",
			Help: "Total inbound protocol messages by type",
		},
		[]string{"type"},
	)

	ProtocolErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_protocol_errors_total",
			Help: "Total inbound messages rejected as malformed or out of state",
		},
	)

	// Scoring Metrics
	RiskScores = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_risk_score",
			Help:    "Distribution of computed risk scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"source"},
	)

	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cadence_scoring_duration_seconds",
			Help:    "Time spent extracting features and scoring one batch",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		},
	)

	Decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_decisions_total",
			Help: "Total risk decisions by outcome",
		},
		[]string{"decision"},
	)

	// Model Lifecycle Metrics
	Profiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cadence_profiles",
			Help: "Number of user profiles by training state",
		},
		[]string{"state"},
	)

	ProfileRetrains = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_profile_retrains_total",
			Help: "Total per-user model retrains by result",
		},
		[]string{"result"},
	)

	ProfileRetrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cadence_profile_retrain_duration_seconds",
			Help:    "Duration of per-user model retrains",
			Buckets: prometheus.DefBuckets,
		},
	)

	RetrainQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_retrain_queue_depth",
			Help: "Profiles waiting for a retrain worker",
		},
	)

	GlobalModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_global_model_version",
			Help: "Version of the currently published global model (0 when none)",
		},
	)

	GlobalModelSamples = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_global_model_samples",
			Help: "Number of pooled vectors the published global model was trained on",
		},
	)

	GlobalModelTrainings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_global_model_trainings_total",
			Help: "Total global model training cycles by result",
		},
		[]string{"result"},
	)

	GlobalModelTrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cadence_global_model_training_duration_seconds",
			Help:    "Duration of global model training",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 120},
		},
	)

	// Event Metrics
	SecurityEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_security_events_total",
			Help: "Total security events appended by kind",
		},
		[]string{"kind"},
	)

	SecurityEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_security_events_dropped_total",
			Help: "Security events not persisted because the write buffer was full",
		},
	)

	Alerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_alerts_total",
			Help: "Total outbound anomaly alerts by result",
		},
		[]string{"result"},
	)

	MonitorClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_monitor_clients",
			Help: "Analyst dashboards connected to the live monitor",
		},
	)

	// HTTP Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordScore records one scoring pass.
func RecordScore(source string, score float64, duration time.Duration) {
	RiskScores.WithLabelValues(source).Observe(score)
	ScoringDuration.Observe(duration.Seconds())
}

// RecordDecision records the outcome of the risk decision policy.
func RecordDecision(decision string) {
	Decisions.WithLabelValues(decision).Inc()
}

// RecordAuth records a handshake outcome.
func RecordAuth(success bool) {
	if success {
		AuthAttempts.WithLabelValues("success").Inc()
	} else {
		AuthAttempts.WithLabelValues("failure").Inc()
	}
}

// RecordTermination records a session ending with reason.
func RecordTermination(reason string) {
	SessionTerminations.WithLabelValues(reason).Inc()
}

// RecordMessage records one inbound protocol message.
func RecordMessage(msgType string) {
	MessagesTotal.WithLabelValues(msgType).Inc()
}

// RecordProfileRetrain records a per-user retrain.
func RecordProfileRetrain(duration time.Duration, err error) {
	ProfileRetrainDuration.Observe(duration.Seconds())
	if err != nil {
		ProfileRetrains.WithLabelValues("error").Inc()
		return
	}
	ProfileRetrains.WithLabelValues("success").Inc()
}

// UpdateProfileGauges replaces the per-state profile counts.
func UpdateProfileGauges(byState map[string]int) {
	for state, n := range byState {
		Profiles.WithLabelValues(state).Set(float64(n))
	}
}

// RecordGlobalTraining records one global trainer cycle. result is one of
// success, skipped, insufficient or error.
func RecordGlobalTraining(result string, duration time.Duration) {
	GlobalModelTrainings.WithLabelValues(result).Inc()
	if result == "success" || result == "error" {
		GlobalModelTrainingDuration.Observe(duration.Seconds())
	}
}

// SetGlobalModel records a newly published global model.
func SetGlobalModel(version uint64, samples int) {
	GlobalModelVersion.Set(float64(version))
	GlobalModelSamples.Set(float64(samples))
}

// RecordSecurityEvent counts an appended security event.
func RecordSecurityEvent(kind string) {
	SecurityEvents.WithLabelValues(kind).Inc()
}

// RecordAlert records an outbound alert delivery.
func RecordAlert(err error) {
	if err != nil {
		Alerts.WithLabelValues("error").Inc()
		return
	}
	Alerts.WithLabelValues("sent").Inc()
}
