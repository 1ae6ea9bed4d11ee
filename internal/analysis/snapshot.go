// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
)

// Fraction of the spectrum used by MirroredFrequencyData. 5%-40% of the bins
// covers the voice-focused band a symmetric visualization centers on.
const (
	mirrorLowFraction  = 0.05
	mirrorHighFraction = 0.40
)

// FrequencyData returns a full copy of the smoothed spectrum with the current
// sensitivity applied and every bin re-clamped to [0,1]. The returned slice is
// owned by the caller; later producer writes are never observed through it.
//
// NOTE: this allocates a fresh slice per call. Performance-critical readers
// should use FrequencyDataInto.
func (a *Analyzer) FrequencyData() []float64 {
	out := make([]float64, a.binCount)
	_ = a.FrequencyDataInto(out)
	return out
}

// FrequencyDataInto copies the smoothed spectrum into dst, applying
// sensitivity and clamping, without allocating. dst must have exactly
// BinCount() elements.
func (a *Analyzer) FrequencyDataInto(dst []float64) error {
	if len(dst) != a.binCount {
		return fmt.Errorf("destination length %d does not match bin count %d", len(dst), a.binCount)
	}

	a.mu.Lock()
	copy(dst, a.smoothed)
	a.mu.Unlock()

	sens := loadFloat(&a.sensitivity)
	for i, v := range dst {
		dst[i] = clampUnit(v * sens)
	}
	return nil
}

// MirroredFrequencyData extracts the sub-range spanning 5%-40% of the bins
// and returns a symmetric sequence: the first half of that sub-range
// reversed, followed by the same half forward. The output length is the
// sub-range size rounded down to an even split, so the result is always
// mirror-symmetric about its midpoint.
func (a *Analyzer) MirroredFrequencyData() []float64 {
	lo := int(float64(a.binCount) * mirrorLowFraction)
	hi := int(float64(a.binCount) * mirrorHighFraction)
	half := (hi - lo) / 2
	if half <= 0 {
		return []float64{}
	}

	out := make([]float64, half*2)

	a.mu.Lock()
	for i := 0; i < half; i++ {
		v := a.smoothed[lo+i]
		out[half-1-i] = v
		out[half+i] = v
	}
	a.mu.Unlock()

	sens := loadFloat(&a.sensitivity)
	for i, v := range out {
		out[i] = clampUnit(v * sens)
	}
	return out
}

// RMSLevel returns the smoothed RMS level. Atomic read; no consistency with
// the spectrum or the peak level is implied.
func (a *Analyzer) RMSLevel() float64 { return loadFloat(&a.rms) }

// PeakLevel returns the maximum absolute sample magnitude seen in the most
// recent producer call. Unsmoothed.
func (a *Analyzer) PeakLevel() float64 { return loadFloat(&a.peak) }

// SmoothingTimeConstant returns the current spectral EMA factor.
func (a *Analyzer) SmoothingTimeConstant() float64 { return loadFloat(&a.smoothing) }

// Sensitivity returns the current output multiplier.
func (a *Analyzer) Sensitivity() float64 { return loadFloat(&a.sensitivity) }

// SetSmoothingTimeConstant sets the spectral EMA factor, clamped to [0,1].
// NaN clamps to 0. Safe to call from either context; there is no error
// channel on this path.
func (a *Analyzer) SetSmoothingTimeConstant(x float64) {
	if !(x > 0) { // also catches NaN
		x = 0
	}
	if x > 1 {
		x = 1
	}
	storeFloat(&a.smoothing, x)
}

// SetSensitivity sets the output multiplier, clamped to [0,inf). NaN clamps
// to 0. Safe to call from either context.
func (a *Analyzer) SetSensitivity(x float64) {
	if !(x > 0) {
		x = 0
	}
	storeFloat(&a.sensitivity, x)
}

func clampUnit(v float64) float64 {
	if !(v > 0) || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
