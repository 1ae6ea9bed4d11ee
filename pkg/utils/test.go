// SPDX-License-Identifier: MIT
// Package utils provides shared test helpers: deterministic signal
// generators, a capturing transport, and spectrum inspection utilities.
package utils

import "math"

// MockTransport implements the transport.Transport interface for testing.
type MockTransport struct {
	Sent []any
}

// Send stores the payload for later inspection instead of transmitting.
func (m *MockTransport) Send(data any) error {
	m.Sent = append(m.Sent, data)
	return nil
}

// Close is a no-op.
func (m *MockTransport) Close() error { return nil }

// GenerateSineWave returns size mono samples of a sine at the given
// frequency, scaled to 90% of full range.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*frequency*t) * 0.9
	}
	return buffer
}

// GenerateComplexWave returns size mono samples of a 440Hz fundamental with
// two harmonics, scaled to 90% of full range.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = (math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2) * 0.9
	}
	return buffer
}

// GenerateImpulse returns size silent samples with a single spike of the
// given magnitude at the given offset.
func GenerateImpulse(size, offset int, magnitude float64) []float64 {
	buffer := make([]float64, size)
	if offset >= 0 && offset < size {
		buffer[offset] = magnitude
	}
	return buffer
}

// Interleave merges per-channel sample slices into one interleaved block.
// All channels must have equal length.
func Interleave(channels ...[]float64) []float64 {
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	out := make([]float64, 0, frames*len(channels))
	for f := 0; f < frames; f++ {
		for _, ch := range channels {
			out = append(out, ch[f])
		}
	}
	return out
}

// FindPeakBin returns the index of the largest magnitude in
// magnitudes[startBin..endBin], clamping the range to the slice bounds.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}
