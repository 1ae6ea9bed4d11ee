// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"strconv"
	"testing"
)

func TestGateEnableDisable(t *testing.T) {
	e := &Engine{}

	e.EnableGate()
	if !e.gateEnabled {
		t.Error("Gate should be enabled after EnableGate()")
	}

	e.DisableGate()
	if e.gateEnabled {
		t.Error("Gate should be disabled after DisableGate()")
	}

	e.EnableGate()
	e.EnableGate() // idempotent
	if !e.gateEnabled {
		t.Error("Gate should remain enabled after repeated EnableGate()")
	}
}

func TestGateThresholdBoundaries(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.1, 0.0}, // below min
		{0.0, 0.0},  // minimum
		{0.5, 0.5},  // middle
		{1.0, 1.0},  // maximum
		{1.5, 1.0},  // above max
	}

	e := &Engine{}
	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.input, 'f', 2, 64), func(t *testing.T) {
			e.SetGateThreshold(tt.input)
			got := e.GetGateThreshold()
			if math.Abs(got-tt.expected) > 0.001 {
				t.Errorf("Gate threshold conversion: got %.3f, want %.3f", got, tt.expected)
			}
		})
	}
}

func TestGateThresholdPrecision(t *testing.T) {
	e := &Engine{}

	for _, ratio := range []float64{0.0, 0.1, 0.25, 0.5, 0.75, 0.999, 1.0} {
		e.SetGateThreshold(ratio)
		result := e.GetGateThreshold()

		if math.Abs(result-ratio) > 0.0001 {
			t.Errorf("Threshold conversion error: got %.6f, want %.6f", result, ratio)
		}

		expectedInt32 := int32(ratio * float64(math.MaxInt32))
		if absInt32(expectedInt32-e.gateThreshold) > 100 {
			t.Errorf("Int32 threshold mismatch: got %d, want %d", e.gateThreshold, expectedInt32)
		}
	}
}

func BenchmarkGateDetection(b *testing.B) {
	buffer := make([]int32, 1024)
	for i := range buffer {
		buffer[i] = int32((i % 100) * 10000000)
	}
	threshold := int32(500000000)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var maxAmplitude int32
		for _, sample := range buffer {
			// Absolute value and max without branching.
			mask := sample >> 31
			amplitude := (sample ^ mask) - mask
			diff := amplitude - maxAmplitude
			maxAmplitude += (diff & (diff >> 31)) ^ diff
		}
		_ = maxAmplitude > threshold
	}
}

// absInt32 returns the absolute value of x.
func absInt32(x int32) int32 {
	mask := x >> 31
	return (x ^ mask) - mask
}
