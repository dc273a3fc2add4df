// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordAPIRequest tests API request metric recording
func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/security-events", "200"))
	RecordAPIRequest("GET", "/api/v1/security-events", "200", 25*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/security-events", "200"))
	if after-before != 1 {
		t.Errorf("request counter delta = %v, want 1", after-before)
	}
}

// TestTrackActiveRequest tests in-flight gauge balancing
func TestTrackActiveRequest(t *testing.T) {
	start := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != start+2 {
		t.Errorf("in flight = %v, want %v", got, start+2)
	}
	TrackActiveRequest(false)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != start {
		t.Errorf("in flight = %v, want %v", got, start)
	}
}

func TestRecordAuth(t *testing.T) {
	ok := testutil.ToFloat64(AuthAttempts.WithLabelValues("success"))
	fail := testutil.ToFloat64(AuthAttempts.WithLabelValues("failure"))

	RecordAuth(true)
	RecordAuth(false)
	RecordAuth(false)

	if d := testutil.ToFloat64(AuthAttempts.WithLabelValues("success")) - ok; d != 1 {
		t.Errorf("success delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(AuthAttempts.WithLabelValues("failure")) - fail; d != 2 {
		t.Errorf("failure delta = %v, want 2", d)
	}
}

func TestRecordProfileRetrain(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		label string
	}{
		{"success", nil, "success"},
		{"failure", errors.New("insufficient training samples"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(ProfileRetrains.WithLabelValues(tt.label))
			RecordProfileRetrain(3*time.Millisecond, tt.err)
			if d := testutil.ToFloat64(ProfileRetrains.WithLabelValues(tt.label)) - before; d != 1 {
				t.Errorf("%s delta = %v, want 1", tt.label, d)
			}
		})
	}
}

func TestGlobalModelGauges(t *testing.T) {
	SetGlobalModel(7, 1200)
	if got := testutil.ToFloat64(GlobalModelVersion); got != 7 {
		t.Errorf("version gauge = %v, want 7", got)
	}
	if got := testutil.ToFloat64(GlobalModelSamples); got != 1200 {
		t.Errorf("samples gauge = %v, want 1200", got)
	}

	before := testutil.ToFloat64(GlobalModelTrainings.WithLabelValues("skipped"))
	RecordGlobalTraining("skipped", 0)
	if d := testutil.ToFloat64(GlobalModelTrainings.WithLabelValues("skipped")) - before; d != 1 {
		t.Errorf("skipped delta = %v, want 1", d)
	}
}

func TestUpdateProfileGauges(t *testing.T) {
	UpdateProfileGauges(map[string]int{"trained": 4, "calibrating": 2})
	if got := testutil.ToFloat64(Profiles.WithLabelValues("trained")); got != 4 {
		t.Errorf("trained = %v, want 4", got)
	}
	UpdateProfileGauges(map[string]int{"trained": 5})
	if got := testutil.ToFloat64(Profiles.WithLabelValues("trained")); got != 5 {
		t.Errorf("trained = %v, want 5", got)
	}
}

// TestConcurrentMetricRecording verifies recording is safe from many goroutines
func TestConcurrentMetricRecording(t *testing.T) {
	before := testutil.ToFloat64(Decisions.WithLabelValues("allow"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordDecision("allow")
			RecordScore("global", 0.1, time.Millisecond)
			RecordMessage("behavioral_data")
			RecordSecurityEvent("score-update")
		}()
	}
	wg.Wait()

	if d := testutil.ToFloat64(Decisions.WithLabelValues("allow")) - before; d != 50 {
		t.Errorf("decision delta = %v, want 50", d)
	}
}
