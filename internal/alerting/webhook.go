// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package alerting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cadence/internal/audit"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
)

// EventTypeAnomalyBlock is the event_type sent for blocked sessions.
const EventTypeAnomalyBlock = "anomaly_block"

// ErrDisabled is returned by Notify when no webhook URL is configured.
var ErrDisabled = errors.New("alerting: webhook disabled")

// Payload is the JSON body posted to the webhook.
type Payload struct {
	EventType string    `json:"event_type"`
	Username  string    `json:"username"`
	SessionID string    `json:"session_id"`
	RiskScore float64   `json:"risk_score"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// WebhookNotifier delivers alerts over HTTP.
type WebhookNotifier struct {
	url     string
	headers map[string]string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewWebhookNotifier creates a notifier from cfg. An empty URL yields a
// notifier whose Enabled reports false.
func NewWebhookNotifier(cfg config.AlertsConfig) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	return &WebhookNotifier{
		url:     cfg.WebhookURL,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        "alert-webhook",
			MaxRequests: 1,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Alert webhook circuit breaker state changed")
			},
		}),
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *WebhookNotifier) Enabled() bool {
	return n.url != ""
}

// HandleEvent implements eventbus.Handler. Only anomaly blocks are sent.
func (n *WebhookNotifier) HandleEvent(ctx context.Context, e *audit.Event) {
	if e.Kind != audit.KindAnomalyBlock || !n.Enabled() {
		return
	}
	err := n.Notify(ctx, PayloadFor(e))
	metrics.RecordAlert(err)
	if err != nil {
		logging.Warn().
			Err(err).
			Str("session_id", e.SessionID).
			Str("user_id", logging.Sanitize(e.UserID)).
			Msg("Alert webhook delivery failed")
	}
}

// PayloadFor builds the webhook body for an anomaly-block event.
func PayloadFor(e *audit.Event) Payload {
	return Payload{
		EventType: EventTypeAnomalyBlock,
		Username:  e.UserID,
		SessionID: e.SessionID,
		RiskScore: e.Score(),
		Reason:    e.Reason,
		Timestamp: e.Timestamp,
	}
}

// Notify posts p to the webhook, waiting for the rate limiter first.
func (n *WebhookNotifier) Notify(ctx context.Context, p Payload) error {
	if !n.Enabled() {
		return ErrDisabled
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for alert slot: %w", err)
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	_, err = n.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, n.post(ctx, body)
	})
	return err
}

func (n *WebhookNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "cadence-alerts")
	for k, v := range n.headers {
		req.Header.Set(k, v)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned %d", resp.StatusCode)
	}
	return nil
}

// State reports the circuit breaker state.
func (n *WebhookNotifier) State() string {
	return n.breaker.State().String()
}
