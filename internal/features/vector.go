// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package features

// Feature indexes, ordered by name.
const (
	AccelerationMean = iota
	AccelerationStd
	BackspaceFrequency
	ClickIntervalMean
	ClickIntervalStd
	ClickRate
	DirectionChanges
	DwellMean
	DwellStd
	ErrorRate
	FlightMean
	FlightStd
	IKLMean
	MovementEfficiency
	RhythmConsistency
	TypingSpeed
	UniqueKeys
	VelocityMax
	VelocityMean
	VelocityStd

	// Dim is the dimensionality of every Vector.
	Dim
)

// Names lists feature names in vector order.
var Names = [Dim]string{
	"acceleration_mean",
	"acceleration_std",
	"backspace_frequency",
	"click_interval_mean",
	"click_interval_std",
	"click_rate",
	"direction_changes",
	"dwell_mean",
	"dwell_std",
	"error_rate",
	"flight_mean",
	"flight_std",
	"ikl_mean",
	"movement_efficiency",
	"rhythm_consistency",
	"typing_speed",
	"unique_keys",
	"velocity_max",
	"velocity_mean",
	"velocity_std",
}

// Vector is an immutable feature vector. It is an array, so copies never
// share storage.
type Vector [Dim]float64

// Slice returns a fresh slice holding the vector's components.
func (v Vector) Slice() []float64 {
	out := make([]float64, Dim)
	copy(out, v[:])
	return out
}

// Map returns the vector keyed by feature name.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, Dim)
	for i, name := range Names {
		m[name] = v[i]
	}
	return m
}

// FromSlice converts a slice of length Dim back into a Vector.
func FromSlice(s []float64) (Vector, bool) {
	var v Vector
	if len(s) != Dim {
		return v, false
	}
	copy(v[:], s)
	return v, true
}
