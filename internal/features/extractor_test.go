// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package features

import (
	"math"
	"testing"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func down(key string, ts float64) RawEvent {
	return RawEvent{Kind: KindKeyDown, Key: key, Timestamp: ts}
}

func up(key string, ts float64) RawEvent {
	return RawEvent{Kind: KindKeyUp, Key: key, Timestamp: ts}
}

func move(x, y, ts float64) RawEvent {
	return RawEvent{Kind: KindMouseMove, X: x, Y: y, Timestamp: ts}
}

func click(ts float64) RawEvent {
	return RawEvent{Kind: KindClick, Timestamp: ts}
}

func extract(t *testing.T, events ...RawEvent) Result {
	t.Helper()
	res, ok := Extractor{}.Extract(Batch{SessionID: "s1", Events: events})
	if !ok {
		t.Fatal("Extract() returned no vector for a non-empty batch")
	}
	return res
}

func TestNamesMatchDimension(t *testing.T) {
	seen := make(map[string]bool, Dim)
	for i, name := range Names {
		if name == "" {
			t.Fatalf("feature %d has no name", i)
		}
		if seen[name] {
			t.Fatalf("duplicate feature name %q", name)
		}
		seen[name] = true
		if i > 0 && Names[i-1] >= name {
			t.Errorf("feature names not sorted at %d: %q >= %q", i, Names[i-1], name)
		}
	}
	if Dim != 20 {
		t.Errorf("Dim = %d, want 20", Dim)
	}
}

func TestExtractEmptyBatch(t *testing.T) {
	if _, ok := (Extractor{}).Extract(Batch{SessionID: "s1"}); ok {
		t.Error("empty batch must not produce a vector")
	}

	other := Batch{SessionID: "s1", Events: []RawEvent{{Kind: KindKeyDown, Key: "a", SessionID: "s2"}}}
	if _, ok := (Extractor{}).Extract(other); ok {
		t.Error("batch with only foreign-session events must not produce a vector")
	}
}

func TestExtractDeterministic(t *testing.T) {
	events := []RawEvent{
		down("h", 0), up("h", 80), down("i", 140), up("i", 210),
		move(0, 0, 0), move(10, 5, 60), move(25, 5, 120), click(130),
	}
	a := extract(t, events...)
	b := extract(t, events...)
	if a.Vector != b.Vector {
		t.Errorf("extraction not deterministic:\n%v\n%v", a.Vector, b.Vector)
	}
	if len(a.Vector.Slice()) != Dim {
		t.Errorf("vector length = %d, want %d", len(a.Vector.Slice()), Dim)
	}
}

func TestDwellPairing(t *testing.T) {
	tests := []struct {
		name     string
		events   []RawEvent
		wantMean float64
		wantStd  float64
	}{
		{
			name:     "simple pair",
			events:   []RawEvent{down("a", 100), up("a", 190)},
			wantMean: 90,
		},
		{
			name: "keyup matches most recent unmatched keydown of same key",
			// a@0 and a@10 pressed (auto-repeat); first keyup pairs with a@10
			events:   []RawEvent{down("a", 0), down("a", 10), up("a", 30), up("a", 50)},
			wantMean: 35, // samples 20 and 50
			wantStd:  15,
		},
		{
			name:     "different keys do not pair",
			events:   []RawEvent{down("a", 0), down("b", 20), up("b", 60), up("a", 100)},
			wantMean: 70, // b: 40, a: 100
			wantStd:  30,
		},
		{
			name:     "unmatched keyup contributes nothing",
			events:   []RawEvent{up("z", 5), down("a", 10), up("a", 40)},
			wantMean: 30,
		},
		{
			name:     "unmatched keydown contributes nothing",
			events:   []RawEvent{down("a", 0), up("a", 25), down("b", 50)},
			wantMean: 25,
		},
		{
			name:   "keyup only",
			events: []RawEvent{up("a", 10), up("b", 20), up("c", 30)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := extract(t, tt.events...)
			if !approx(res.Vector[DwellMean], tt.wantMean) {
				t.Errorf("dwell_mean = %v, want %v", res.Vector[DwellMean], tt.wantMean)
			}
			if !approx(res.Vector[DwellStd], tt.wantStd) {
				t.Errorf("dwell_std = %v, want %v", res.Vector[DwellStd], tt.wantStd)
			}
		})
	}
}

func TestFlightAndLatency(t *testing.T) {
	res := extract(t,
		down("a", 0), up("a", 100),
		down("b", 150), up("b", 220),
		down("c", 300), up("c", 360),
	)
	v := res.Vector

	if !approx(v[FlightMean], 65) { // 50, 80
		t.Errorf("flight_mean = %v, want 65", v[FlightMean])
	}
	if !approx(v[FlightStd], 15) {
		t.Errorf("flight_std = %v, want 15", v[FlightStd])
	}
	if !approx(v[IKLMean], 150) {
		t.Errorf("ikl_mean = %v, want 150", v[IKLMean])
	}
	if !approx(v[RhythmConsistency], 0) {
		t.Errorf("rhythm_consistency = %v, want 0 for perfectly even typing", v[RhythmConsistency])
	}
	if !approx(v[TypingSpeed], 3/0.36) {
		t.Errorf("typing_speed = %v, want %v", v[TypingSpeed], 3/0.36)
	}
	if v[UniqueKeys] != 3 {
		t.Errorf("unique_keys = %v, want 3", v[UniqueKeys])
	}
}

func TestCorrectionRates(t *testing.T) {
	res := extract(t,
		down("a", 0), up("a", 50),
		down("Backspace", 100), up("Backspace", 150),
		down("Delete", 200), up("Delete", 250),
		down("b", 300), up("b", 350),
	)
	if !approx(res.Vector[BackspaceFrequency], 0.25) {
		t.Errorf("backspace_frequency = %v, want 0.25", res.Vector[BackspaceFrequency])
	}
	if !approx(res.Vector[ErrorRate], 0.5) {
		t.Errorf("error_rate = %v, want 0.5", res.Vector[ErrorRate])
	}
}

func TestMouseFeatures(t *testing.T) {
	res := extract(t,
		move(0, 0, 0), move(30, 40, 100), move(60, 80, 200),
		click(0), click(500), click(1000),
	)
	v := res.Vector

	if !approx(v[VelocityMean], 0.5) || !approx(v[VelocityMax], 0.5) || !approx(v[VelocityStd], 0) {
		t.Errorf("velocity = mean %v max %v std %v, want 0.5/0.5/0", v[VelocityMean], v[VelocityMax], v[VelocityStd])
	}
	if !approx(v[AccelerationMean], 0) {
		t.Errorf("acceleration_mean = %v, want 0", v[AccelerationMean])
	}
	if !approx(v[MovementEfficiency], 1) {
		t.Errorf("movement_efficiency = %v, want 1 for a straight line", v[MovementEfficiency])
	}
	if v[DirectionChanges] != 0 {
		t.Errorf("direction_changes = %v, want 0", v[DirectionChanges])
	}
	if !approx(v[ClickIntervalMean], 500) || !approx(v[ClickIntervalStd], 0) {
		t.Errorf("click intervals = %v/%v, want 500/0", v[ClickIntervalMean], v[ClickIntervalStd])
	}
	if !approx(v[ClickRate], 3) {
		t.Errorf("click_rate = %v, want 3 per second", v[ClickRate])
	}
	if v[DwellMean] != 0 || v[TypingSpeed] != 0 {
		t.Error("keystroke features must be zero without keystrokes")
	}
}

func TestMouseDirectionChanges(t *testing.T) {
	res := extract(t, move(0, 0, 0), move(10, 0, 50), move(0, 0, 100), move(10, 0, 150))
	if res.Vector[DirectionChanges] != 2 {
		t.Errorf("direction_changes = %v, want 2", res.Vector[DirectionChanges])
	}
	if !approx(res.Vector[MovementEfficiency], 10.0/30.0) {
		t.Errorf("movement_efficiency = %v, want 1/3", res.Vector[MovementEfficiency])
	}
}

func TestMouseToleratesDuplicateTimestamps(t *testing.T) {
	res := extract(t, move(0, 0, 0), move(5, 0, 0), move(10, 0, 0))
	for i, x := range res.Vector {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			t.Fatalf("feature %s is not finite: %v", Names[i], x)
		}
	}
}

func TestLowConfidence(t *testing.T) {
	tests := []struct {
		name      string
		minEvents int
		events    []RawEvent
		wantLow   bool
	}{
		{"two events below default floor", 0, []RawEvent{down("a", 0), up("a", 10)}, true},
		{"three events at floor", 0, []RawEvent{down("a", 0), up("a", 10), click(20)}, false},
		{"custom floor", 10, []RawEvent{down("a", 0), up("a", 10), click(20)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := NewExtractor(tt.minEvents).Extract(Batch{SessionID: "s1", Events: tt.events})
			if !ok {
				t.Fatal("expected a vector")
			}
			if res.LowConfidence != tt.wantLow {
				t.Errorf("LowConfidence = %v, want %v", res.LowConfidence, tt.wantLow)
			}
			if res.EventCount != len(tt.events) {
				t.Errorf("EventCount = %d, want %d", res.EventCount, len(tt.events))
			}
		})
	}
}

func TestFromTelemetry(t *testing.T) {
	b := FromTelemetry("s9",
		[]KeystrokeEvent{{Type: "keydown", Key: "a", Timestamp: 1}, {Type: "keyup", Key: "a", Timestamp: 61}},
		[]MouseEvent{{Type: "mousemove", X: 1, Y: 2, Timestamp: 5}},
	)
	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}
	for _, ev := range b.Events {
		if ev.SessionID != "s9" {
			t.Errorf("event session = %q, want s9", ev.SessionID)
		}
	}
	res, ok := Extractor{}.Extract(b)
	if !ok || !approx(res.Vector[DwellMean], 60) {
		t.Errorf("dwell_mean = %v, want 60", res.Vector[DwellMean])
	}
}

func TestVectorConversions(t *testing.T) {
	var v Vector
	v[FlightMean] = 42
	s := v.Slice()
	s[FlightMean] = 0
	if v[FlightMean] != 42 {
		t.Error("Slice() must not alias the vector")
	}

	back, ok := FromSlice(v.Slice())
	if !ok || back != v {
		t.Error("FromSlice(Slice()) did not round trip")
	}
	if _, ok := FromSlice([]float64{1, 2}); ok {
		t.Error("FromSlice accepted wrong dimensionality")
	}
	if v.Map()["flight_mean"] != 42 {
		t.Error("Map() missing flight_mean")
	}
}

func TestMeanStd(t *testing.T) {
	tests := []struct {
		name     string
		xs       []float64
		wantMean float64
		wantStd  float64
	}{
		{"empty", nil, 0, 0},
		{"single", []float64{7}, 7, 0},
		{"constant", []float64{3, 3, 3}, 3, 0},
		{"spread", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, std := MeanStd(tt.xs)
			if !approx(mean, tt.wantMean) || !approx(std, tt.wantStd) {
				t.Errorf("MeanStd(%v) = %v, %v; want %v, %v", tt.xs, mean, std, tt.wantMean, tt.wantStd)
			}
		})
	}
}
