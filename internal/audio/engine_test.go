// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"testing"

	"audioviz/internal/analysis"
	"audioviz/internal/config"
)

// newTestEngine builds an engine without touching PortAudio.
func newTestEngine(channels int) *Engine {
	cfg := config.NewConfig()
	cfg.Audio.Channels = channels
	cfg.Audio.FramesPerBuffer = 256

	size := cfg.Audio.FramesPerBuffer * channels
	return &Engine{
		cfg:         cfg,
		analyzer:    analysis.NewAnalyzer(analysis.ModeWaveform),
		inputBuffer: make([]int32, size),
		floatBuffer: make([]float64, size),
	}
}

func TestProcessBufferFeedsAnalyzer(t *testing.T) {
	e := newTestEngine(1)

	buffer := make([]int32, 256)
	buffer[10] = math.MaxInt32 / 2 // half scale

	e.processBuffer(buffer)

	peak := e.analyzer.PeakLevel()
	if math.Abs(peak-0.5) > 1e-6 {
		t.Errorf("analyzer peak after half-scale impulse: got %g, want ~0.5", peak)
	}
}

func TestProcessBufferStereoConversion(t *testing.T) {
	e := newTestEngine(2)

	// Opposite full-scale channels cancel in the analyzer mixdown.
	buffer := make([]int32, 512)
	for i := 0; i < len(buffer); i += 2 {
		buffer[i] = math.MaxInt32
		buffer[i+1] = -math.MaxInt32
	}

	e.processBuffer(buffer)

	if peak := e.analyzer.PeakLevel(); peak > 1e-6 {
		t.Errorf("analyzer peak after cancelling stereo: got %g, want ~0", peak)
	}
}

func TestGateBlocksQuietSignal(t *testing.T) {
	e := newTestEngine(1)
	e.EnableGate()
	e.SetGateThreshold(0.1)

	quiet := make([]int32, 256)
	for i := range quiet {
		quiet[i] = math.MaxInt32 / 100 // 1% of full scale, below the gate
	}

	e.processBuffer(quiet)
	if peak := e.analyzer.PeakLevel(); peak != 0 {
		t.Errorf("gated block reached analyzer: peak %g, want 0", peak)
	}

	loud := make([]int32, 256)
	for i := range loud {
		loud[i] = math.MaxInt32 / 2
	}

	e.processBuffer(loud)
	if peak := e.analyzer.PeakLevel(); peak == 0 {
		t.Error("loud block above threshold did not reach analyzer")
	}
}

func TestGateDisabledAlwaysPasses(t *testing.T) {
	e := newTestEngine(1)
	e.DisableGate()
	e.SetGateThreshold(0.999)

	quiet := make([]int32, 256)
	quiet[0] = math.MaxInt32 / 100

	e.processBuffer(quiet)
	if peak := e.analyzer.PeakLevel(); peak == 0 {
		t.Error("disabled gate blocked the signal")
	}
}

func TestProcessBufferHotPathAllocs(t *testing.T) {
	e := newTestEngine(2)
	buffer := make([]int32, 512)
	for i := range buffer {
		buffer[i] = int32((i%256 - 128) * 1000000)
	}

	e.processBuffer(buffer) // warm-up transform

	allocs := testing.AllocsPerRun(100, func() {
		e.processBuffer(buffer)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in processBuffer hot path, got %.1f", allocs)
	}
}

func BenchmarkProcessBuffer(b *testing.B) {
	e := newTestEngine(2)
	buffer := make([]int32, 512)
	for i := range buffer {
		buffer[i] = int32((i%100 - 50) * 10000000)
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		e.processBuffer(buffer)
	}
}
