// SPDX-License-Identifier: MIT
/*
Package analysis implements the real-time audio analysis core: a fixed-window
spectral analyzer with exponentially smoothed magnitudes, RMS/peak metering,
and perceptual frequency-band decomposition.

The package is built around two call contexts with different obligations:

  - The producer context (PushSamples / PushBlock) is the hard real-time audio
    callback. It never allocates, never blocks for an unbounded time, and has
    no error channel. All buffers are pre-sized at construction.
  - The consumer context (FrequencyData, FrequencyBands, RMSLevel, ...) is a
    best-effort poller. It only ever contends for a short mutex held across a
    fixed-size array copy, never across the transform itself.

Scalar state (levels, smoothing, sensitivity) lives in independent atomic
cells; no ordering is guaranteed across them. The smoothed spectrum is the
only lock-protected resource, and readers always receive a full copy.
*/
package analysis

import (
	"math"
	"math/cmplx"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	applog "audioviz/internal/log"
)

// Mode selects the analysis window size at construction time. The window size
// is fixed for the lifetime of an Analyzer because every internal buffer is
// sized from it.
type Mode int

const (
	// ModeWaveform uses a small window for coarse, low-latency analysis.
	ModeWaveform Mode = iota
	// ModeSpectrum uses a large window for fine-grained spectral analysis.
	ModeSpectrum
)

const (
	// WaveformWindowSize is the analysis window for ModeWaveform (128 bins).
	WaveformWindowSize = 256
	// SpectrumWindowSize is the analysis window for ModeSpectrum (1024 bins).
	SpectrumWindowSize = 2048

	// MaxBlockFrames is the capacity of the pre-allocated mixdown buffer.
	// Multi-channel blocks longer than this are truncated; the truncation is
	// counted in DroppedSamples rather than silently discarded.
	MaxBlockFrames = 8192

	// DefaultSmoothingTimeConstant is the spectral EMA factor at construction.
	DefaultSmoothingTimeConstant = 0.8
	// DefaultSensitivity is the output multiplier at construction.
	DefaultSensitivity = 1.0

	// rmsSmoothingFactor is fixed and independent of the spectral smoothing
	// constant. Peak is deliberately not smoothed at all so that transients
	// remain visible for exactly one read.
	rmsSmoothingFactor = 0.2

	// magnitudeScale maps |X[k]|/N onto the dynamic range of a byte-quantized
	// reference analyser before clamping to [0,1].
	magnitudeScale = 2.0
)

// WindowSize returns the sample count of the analysis window for the mode.
func (m Mode) WindowSize() int {
	if m == ModeWaveform {
		return WaveformWindowSize
	}
	return SpectrumWindowSize
}

func (m Mode) String() string {
	switch m {
	case ModeWaveform:
		return "waveform"
	case ModeSpectrum:
		return "spectrum"
	default:
		return "unknown"
	}
}

// Analyzer ingests raw mono samples from an audio callback and exposes
// smoothed spectral and level snapshots to a polling consumer. Construct one
// per logical audio stream with NewAnalyzer.
type Analyzer struct {
	mode       Mode
	windowSize int
	binCount   int // windowSize / 2

	// Ingestion state, exclusively owned by the producer call path.
	ingest  []float64 // fixed-capacity sample window
	cursor  int       // write position, never exceeds windowSize
	mixdown []float64 // pre-allocated multi-channel mixdown scratch

	// Transform state, also producer-owned. The FFT runs entirely outside
	// the mutex; only the O(N) blend into smoothed is locked.
	fft     *fourier.FFT
	hann    []float64
	scratch []float64    // windowed copy of the filled ingest buffer
	coeffs  []complex128 // windowSize/2 + 1 complex outputs
	scaled  []float64    // normalized magnitudes for the current frame

	// Smoothed spectrum, the only shared mutable array. mu is held for
	// bounded, constant-cost copies and blends only.
	mu       sync.Mutex
	smoothed []float64

	// Independent atomic scalars (float64 bit patterns). No cross-scalar
	// ordering is provided or needed.
	rms         atomic.Uint64
	peak        atomic.Uint64
	smoothing   atomic.Uint64
	sensitivity atomic.Uint64

	dropped atomic.Uint64 // samples truncated by oversized blocks
}

// NewAnalyzer constructs an analyzer for the given mode. Every buffer the
// producer path touches is allocated here; PushSamples and PushBlock never
// allocate afterwards.
func NewAnalyzer(mode Mode) *Analyzer {
	n := mode.WindowSize()

	hann := make([]float64, n)
	for i := range hann {
		hann[i] = 1.0
	}
	window.Hann(hann)

	a := &Analyzer{
		mode:       mode,
		windowSize: n,
		binCount:   n / 2,
		ingest:     make([]float64, n),
		mixdown:    make([]float64, MaxBlockFrames),
		fft:        fourier.NewFFT(n),
		hann:       hann,
		scratch:    make([]float64, n),
		coeffs:     make([]complex128, n/2+1),
		scaled:     make([]float64, n/2),
		smoothed:   make([]float64, n/2),
	}

	storeFloat(&a.smoothing, DefaultSmoothingTimeConstant)
	storeFloat(&a.sensitivity, DefaultSensitivity)

	applog.Infof("Analysis: Initializing Analyzer (Mode: %s, Window: %d, Bins: %d)", mode, n, n/2)
	return a
}

// PushSamples feeds mono samples into the analysis window. Level metering
// runs on every call; the spectral transform runs each time the window
// fills. Empty input is a no-op. Bounded time proportional to len(samples),
// zero allocations, no error channel.
//
// PushSamples must only be called from the producer context; it is safe to
// call concurrently with every consumer-side accessor.
func (a *Analyzer) PushSamples(samples []float64) {
	if len(samples) == 0 {
		return
	}

	a.meter(samples)

	for _, s := range samples {
		a.ingest[a.cursor] = s
		a.cursor++
		if a.cursor == a.windowSize {
			a.transform()
			a.cursor = 0
		}
	}
}

// PushBlock feeds an interleaved multi-channel block, mixing it down to mono
// by summing channels and scaling by 1/channels before delegating to
// PushSamples. Blocks longer than MaxBlockFrames are truncated and the
// truncated sample count is added to DroppedSamples. Non-positive channel
// counts and empty blocks are no-ops.
func (a *Analyzer) PushBlock(interleaved []float64, channels int) {
	if channels <= 0 || len(interleaved) == 0 {
		return
	}

	if channels == 1 {
		if len(interleaved) > len(a.mixdown) {
			a.dropped.Add(uint64(len(interleaved) - len(a.mixdown)))
			interleaved = interleaved[:len(a.mixdown)]
		}
		a.PushSamples(interleaved)
		return
	}

	frames := len(interleaved) / channels
	if frames == 0 {
		return
	}
	if frames > len(a.mixdown) {
		a.dropped.Add(uint64((frames - len(a.mixdown)) * channels))
		frames = len(a.mixdown)
	}

	scale := 1.0 / float64(channels)
	for f := 0; f < frames; f++ {
		base := f * channels
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += interleaved[base+c]
		}
		a.mixdown[f] = sum * scale
	}

	a.PushSamples(a.mixdown[:frames])
}

// meter updates the smoothed RMS and the instantaneous peak from the samples
// of this call only, independent of the spectral window fill state.
func (a *Analyzer) meter(samples []float64) {
	var sumSquares, peak float64
	for _, s := range samples {
		sumSquares += s * s
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}

	rms := math.Sqrt(sumSquares / float64(len(samples)))
	current := loadFloat(&a.rms)
	storeFloat(&a.rms, current+(rms-current)*rmsSmoothingFactor)

	// Peak is stored raw. Smoothing here would damp exactly the transients a
	// peak indicator exists to show.
	storeFloat(&a.peak, peak)
}

// transform runs one spectral pass over the filled ingest window: Hann
// window into scratch, forward FFT, magnitude normalization, then an EMA
// blend into the smoothed spectrum. Only the blend holds the mutex.
func (a *Analyzer) transform() {
	for i, s := range a.ingest {
		a.scratch[i] = s * a.hann[i]
	}

	a.fft.Coefficients(a.coeffs, a.scratch)

	norm := magnitudeScale / float64(a.windowSize)
	for i := 0; i < a.binCount; i++ {
		mag := cmplx.Abs(a.coeffs[i]) * norm
		if mag > 1 {
			mag = 1
		}
		a.scaled[i] = mag
	}

	alpha := loadFloat(&a.smoothing)
	a.mu.Lock()
	for i, v := range a.scaled {
		a.smoothed[i] = a.smoothed[i]*alpha + v*(1-alpha)
	}
	a.mu.Unlock()
}

// Mode returns the construction-time analysis mode.
func (a *Analyzer) Mode() Mode { return a.mode }

// WindowSize returns the fixed analysis window size in samples.
func (a *Analyzer) WindowSize() int { return a.windowSize }

// BinCount returns the number of frequency bins (windowSize / 2).
func (a *Analyzer) BinCount() int { return a.binCount }

// DroppedSamples reports the total number of samples truncated from
// oversized multi-channel blocks since construction. A non-zero value means
// the host is delivering blocks larger than MaxBlockFrames.
func (a *Analyzer) DroppedSamples() uint64 { return a.dropped.Load() }

func storeFloat(cell *atomic.Uint64, v float64) { cell.Store(math.Float64bits(v)) }
func loadFloat(cell *atomic.Uint64) float64     { return math.Float64frombits(cell.Load()) }
