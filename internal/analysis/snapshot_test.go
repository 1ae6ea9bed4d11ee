// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"audioviz/pkg/utils"
)

// setSpectrum overwrites the smoothed spectrum directly, bypassing the
// ingestion path, so read accessors can be tested against known bin values.
func setSpectrum(a *Analyzer, fill func(bin int) float64) {
	a.mu.Lock()
	for i := range a.smoothed {
		a.smoothed[i] = fill(i)
	}
	a.mu.Unlock()
}

func TestSmoothingTimeConstantClamping(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.5, 0.0},
		{0.0, 0.0},
		{0.42, 0.42},
		{1.0, 1.0},
		{1.5, 1.0},
		{math.NaN(), 0.0},
	}

	a := NewAnalyzer(ModeWaveform)
	for _, tt := range tests {
		a.SetSmoothingTimeConstant(tt.input)
		if got := a.SmoothingTimeConstant(); got != tt.expected {
			t.Errorf("SetSmoothingTimeConstant(%g): got %g, want %g", tt.input, got, tt.expected)
		}
	}
}

func TestSensitivityClamping(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-1.0, 0.0},
		{0.0, 0.0},
		{1.0, 1.0},
		{3.5, 3.5},
		{math.NaN(), 0.0},
	}

	a := NewAnalyzer(ModeWaveform)
	for _, tt := range tests {
		a.SetSensitivity(tt.input)
		if got := a.Sensitivity(); got != tt.expected {
			t.Errorf("SetSensitivity(%g): got %g, want %g", tt.input, got, tt.expected)
		}
	}
}

func TestFrequencyDataSensitivityScaling(t *testing.T) {
	a := NewAnalyzer(ModeWaveform)
	setSpectrum(a, func(int) float64 { return 0.4 })

	a.SetSensitivity(1.0)
	for i, v := range a.FrequencyData() {
		if math.Abs(v-0.4) > 1e-12 {
			t.Fatalf("bin %d at sensitivity 1.0: got %g, want 0.4", i, v)
		}
	}

	a.SetSensitivity(2.0)
	for i, v := range a.FrequencyData() {
		if math.Abs(v-0.8) > 1e-12 {
			t.Fatalf("bin %d at sensitivity 2.0: got %g, want 0.8", i, v)
		}
	}

	// Scaling past 1.0 re-clamps.
	a.SetSensitivity(5.0)
	for i, v := range a.FrequencyData() {
		if v != 1.0 {
			t.Fatalf("bin %d at sensitivity 5.0: got %g, want 1.0", i, v)
		}
	}
}

func TestFrequencyDataInto(t *testing.T) {
	a := NewAnalyzer(ModeWaveform)
	setSpectrum(a, func(bin int) float64 { return float64(bin) / float64(a.BinCount()) })

	dst := make([]float64, a.BinCount())
	if err := a.FrequencyDataInto(dst); err != nil {
		t.Fatalf("FrequencyDataInto: %v", err)
	}
	want := a.FrequencyData()
	for i := range dst {
		if dst[i] != want[i] {
			t.Fatalf("bin %d: Into/copy mismatch %g != %g", i, dst[i], want[i])
		}
	}

	if err := a.FrequencyDataInto(make([]float64, 3)); err == nil {
		t.Error("FrequencyDataInto with short destination: expected error")
	}

	allocs := testing.AllocsPerRun(100, func() {
		_ = a.FrequencyDataInto(dst)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in FrequencyDataInto, got %.1f", allocs)
	}
}

func TestMirroredFrequencyDataSymmetry(t *testing.T) {
	a := NewAnalyzer(ModeSpectrum)
	// Monotonically increasing spectrum makes asymmetry detectable.
	setSpectrum(a, func(bin int) float64 { return float64(bin) / float64(a.BinCount()) })

	out := a.MirroredFrequencyData()

	lo := int(float64(a.BinCount()) * mirrorLowFraction)
	hi := int(float64(a.BinCount()) * mirrorHighFraction)
	wantLen := ((hi - lo) / 2) * 2
	if len(out) != wantLen {
		t.Fatalf("length: got %d, want %d", len(out), wantLen)
	}

	half := len(out) / 2
	for i := 0; i < half; i++ {
		if out[i] != out[len(out)-1-i] {
			t.Fatalf("asymmetry at %d: %g != %g", i, out[i], out[len(out)-1-i])
		}
	}

	// The forward half starts at the low edge of the voice band.
	if got, want := out[half], float64(lo)/float64(a.BinCount()); math.Abs(got-want) > 1e-12 {
		t.Errorf("midpoint value: got %g, want %g", got, want)
	}
}

// Sustained producer and consumer traffic must never surface an out-of-range
// or torn value, and must not deadlock.
func TestConcurrentProducerConsumer(t *testing.T) {
	a := NewAnalyzer(ModeWaveform)
	block := utils.Interleave(
		utils.GenerateComplexWave(512, testSampleRate),
		utils.GenerateSineWave(512, testSampleRate, 220),
	)

	const iterations = 2000
	var violations atomic.Uint64
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			a.PushBlock(block, 2)
			if i%50 == 0 {
				a.SetSmoothingTimeConstant(float64(i%10) / 10)
				a.SetSensitivity(1 + float64(i%3))
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			for _, v := range a.FrequencyData() {
				if v < 0 || v > 1 || math.IsNaN(v) {
					violations.Add(1)
				}
			}
			for _, v := range a.FrequencyBands(16, 0, a.BinCount()) {
				if v < 0 || v > 1 || math.IsNaN(v) {
					violations.Add(1)
				}
			}
			if rms := a.RMSLevel(); rms < 0 || math.IsNaN(rms) {
				violations.Add(1)
			}
			if peak := a.PeakLevel(); peak < 0 || math.IsNaN(peak) {
				violations.Add(1)
			}
		}
	}()
	wg.Wait()

	if n := violations.Load(); n > 0 {
		t.Errorf("observed %d out-of-range values under concurrent load", n)
	}
}
