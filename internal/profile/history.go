// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package profile

import "github.com/tomtom215/cadence/internal/features"

// History is a fixed-capacity ring of feature vectors. When full, Push
// evicts the oldest vector. It is not safe for concurrent use.
type History struct {
	buf   []features.Vector
	start int
	size  int
}

// NewHistory returns an empty ring holding at most capacity vectors.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]features.Vector, capacity)}
}

// Push appends v and reports whether an older vector was evicted.
func (h *History) Push(v features.Vector) bool {
	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = v
		h.size++
		return false
	}
	h.buf[h.start] = v
	h.start = (h.start + 1) % len(h.buf)
	return true
}

// Len returns the number of stored vectors.
func (h *History) Len() int { return h.size }

// Cap returns the ring capacity.
func (h *History) Cap() int { return len(h.buf) }

// Snapshot copies the stored vectors, oldest first.
func (h *History) Snapshot() []features.Vector {
	out := make([]features.Vector, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// Last returns up to n of the most recent vectors, oldest first.
func (h *History) Last(n int) []features.Vector {
	all := h.Snapshot()
	if n >= len(all) || n < 0 {
		return all
	}
	return all[len(all)-n:]
}
