// SPDX-License-Identifier: MIT
// Package transport carries analyzer snapshots from the polling consumer
// context to downstream visualization clients. Nothing in this package is
// ever called from the audio callback.
package transport

// Transport defines a generic interface for sending snapshot data or events.
// Implementations must be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Snapshot is one consumer-side poll of the analyzer: a consistent copy of
// the spectrum plus independently read scalars. Spectrum and the level
// values may show slight temporal skew relative to each other; consumers
// must tolerate that.
type Snapshot struct {
	Type     string    `json:"type"`
	Spectrum []float64 `json:"spectrum,omitempty"`
	Mirrored []float64 `json:"mirrored,omitempty"`
	Bands    []float64 `json:"bands,omitempty"`
	RMS      float64   `json:"rms"`
	Peak     float64   `json:"peak"`
	Dropped  uint64    `json:"dropped,omitempty"`
}
