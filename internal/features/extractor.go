// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultMinEvents is the event count below which a vector is low-confidence.
const DefaultMinEvents = 3

// Result is the output of one extraction.
type Result struct {
	Vector        Vector
	EventCount    int
	LowConfidence bool
}

// Extractor converts batches to vectors. The zero value uses DefaultMinEvents.
type Extractor struct {
	MinEvents int
}

// NewExtractor returns an extractor with the given low-confidence floor.
func NewExtractor(minEvents int) Extractor {
	return Extractor{MinEvents: minEvents}
}

// Extract computes the feature vector for b. It returns false for a batch
// with no events belonging to b's session; the caller skips scoring then.
func (e Extractor) Extract(b Batch) (Result, bool) {
	minEvents := e.MinEvents
	if minEvents <= 0 {
		minEvents = DefaultMinEvents
	}

	var keys, mouse []RawEvent
	for _, ev := range b.Events {
		if ev.SessionID != "" && b.SessionID != "" && ev.SessionID != b.SessionID {
			continue
		}
		switch {
		case ev.Kind.IsKeystroke():
			keys = append(keys, ev)
		case ev.Kind == KindMouseMove || ev.Kind.IsClick():
			mouse = append(mouse, ev)
		}
	}

	count := len(keys) + len(mouse)
	if count == 0 {
		return Result{}, false
	}

	var v Vector
	keystrokeFeatures(keys, &v)
	mouseFeatures(mouse, &v)
	for i := range v {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			v[i] = 0
		}
	}

	return Result{
		Vector:        v,
		EventCount:    count,
		LowConfidence: count < minEvents,
	}, true
}

func keystrokeFeatures(events []RawEvent, v *Vector) {
	if len(events) == 0 {
		return
	}

	var (
		dwell, flight, ikl     []float64
		keydowns, corrections  int
		backspaces             int
		lastKeyUp, prevKeyDown float64
		haveKeyUp, haveKeyDown bool
	)
	minTS, maxTS := events[0].Timestamp, events[0].Timestamp
	pending := make(map[string][]float64)
	unique := make(map[string]struct{})

	for _, ev := range events {
		minTS = math.Min(minTS, ev.Timestamp)
		maxTS = math.Max(maxTS, ev.Timestamp)
		if ev.Key != "" {
			unique[ev.Key] = struct{}{}
		}

		switch ev.Kind {
		case KindKeyDown:
			keydowns++
			switch ev.Key {
			case "Backspace":
				backspaces++
				corrections++
			case "Delete":
				corrections++
			}
			if haveKeyUp {
				flight = append(flight, ev.Timestamp-lastKeyUp)
			}
			if haveKeyDown {
				ikl = append(ikl, ev.Timestamp-prevKeyDown)
			}
			prevKeyDown, haveKeyDown = ev.Timestamp, true
			pending[ev.Key] = append(pending[ev.Key], ev.Timestamp)

		case KindKeyUp:
			// most recent unmatched keydown of the same key
			if stack := pending[ev.Key]; len(stack) > 0 {
				down := stack[len(stack)-1]
				pending[ev.Key] = stack[:len(stack)-1]
				dwell = append(dwell, ev.Timestamp-down)
			}
			lastKeyUp, haveKeyUp = ev.Timestamp, true
		}
	}

	v[DwellMean], v[DwellStd] = MeanStd(dwell)
	v[FlightMean], v[FlightStd] = MeanStd(flight)
	iklMean, iklStd := MeanStd(ikl)
	v[IKLMean] = iklMean
	if iklMean > 0 {
		v[RhythmConsistency] = iklStd / iklMean
	}
	if span := (maxTS - minTS) / 1000; span > 0 {
		v[TypingSpeed] = float64(keydowns) / span
	}
	if keydowns > 0 {
		v[BackspaceFrequency] = float64(backspaces) / float64(keydowns)
		v[ErrorRate] = float64(corrections) / float64(keydowns)
	}
	v[UniqueKeys] = float64(len(unique))
}

func mouseFeatures(events []RawEvent, v *Vector) {
	if len(events) == 0 {
		return
	}

	var moves []RawEvent
	var clicks []float64
	minTS, maxTS := events[0].Timestamp, events[0].Timestamp
	for _, ev := range events {
		minTS = math.Min(minTS, ev.Timestamp)
		maxTS = math.Max(maxTS, ev.Timestamp)
		if ev.Kind == KindMouseMove {
			moves = append(moves, ev)
		} else {
			clicks = append(clicks, ev.Timestamp)
		}
	}

	movementFeatures(moves, v)

	if len(clicks) > 1 {
		intervals := make([]float64, 0, len(clicks)-1)
		for i := 1; i < len(clicks); i++ {
			intervals = append(intervals, clicks[i]-clicks[i-1])
		}
		v[ClickIntervalMean], v[ClickIntervalStd] = MeanStd(intervals)
		if span := (maxTS - minTS) / 1000; span > 0 {
			v[ClickRate] = float64(len(clicks)) / span
		}
	}
}

func movementFeatures(moves []RawEvent, v *Vector) {
	if len(moves) < 2 {
		return
	}

	var velocities, velocityTimes, accelerations []float64
	path := 0.0
	for i := 1; i < len(moves); i++ {
		dx := moves[i].X - moves[i-1].X
		dy := moves[i].Y - moves[i-1].Y
		dist := math.Hypot(dx, dy)
		path += dist

		dt := moves[i].Timestamp - moves[i-1].Timestamp
		if dt <= 0 {
			continue
		}
		velocities = append(velocities, dist/dt)
		velocityTimes = append(velocityTimes, moves[i].Timestamp)
	}
	for i := 1; i < len(velocities); i++ {
		dt := velocityTimes[i] - velocityTimes[i-1]
		if dt <= 0 {
			continue
		}
		accelerations = append(accelerations, (velocities[i]-velocities[i-1])/dt)
	}

	v[VelocityMean], v[VelocityStd] = MeanStd(velocities)
	for _, vel := range velocities {
		v[VelocityMax] = math.Max(v[VelocityMax], vel)
	}
	v[AccelerationMean], v[AccelerationStd] = MeanStd(accelerations)

	first, last := moves[0], moves[len(moves)-1]
	straight := math.Hypot(last.X-first.X, last.Y-first.Y)
	if path == 0 {
		v[MovementEfficiency] = 1
	} else {
		v[MovementEfficiency] = straight / path
	}

	v[DirectionChanges] = float64(directionChanges(moves))
}

// directionChanges counts sign reversals of the per-axis displacement.
func directionChanges(moves []RawEvent) int {
	if len(moves) < 3 {
		return 0
	}
	changes := 0
	prevDX := moves[1].X - moves[0].X
	prevDY := moves[1].Y - moves[0].Y
	for i := 2; i < len(moves); i++ {
		dx := moves[i].X - moves[i-1].X
		dy := moves[i].Y - moves[i-1].Y
		if dx*prevDX < 0 || dy*prevDY < 0 {
			changes++
		}
		prevDX, prevDY = dx, dy
	}
	return changes
}

// MeanStd returns the mean and population standard deviation of xs, or
// zeros for an empty slice.
func MeanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	mean, variance := stat.PopMeanVariance(xs, nil)
	return mean, math.Sqrt(math.Max(variance, 0))
}
