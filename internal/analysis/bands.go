// SPDX-License-Identifier: MIT
package analysis

import "math"

// dB clamp range for band decomposition. -100 dB maps to 0.0 and values at or
// above -10 dB saturate the perceptual curve.
const (
	MinBandDB = -100.0
	MaxBandDB = -10.0
)

// NormalizeDB maps a dB value onto [0,1] with a square-root perceptual curve:
// sqrt(1 - (clamp(x) * -1)/100). The input is clamped to [MinBandDB,
// MaxBandDB] first, so MinBandDB maps to exactly 0 and the function is
// monotonically non-decreasing over the clamp range.
func NormalizeDB(db float64) float64 {
	if !(db > MinBandDB) { // also catches NaN and -Inf
		return 0
	}
	if db > MaxBandDB {
		db = MaxBandDB
	}
	return math.Sqrt(1 - (db*-1)/100)
}

// FrequencyBands reduces the sub-range [loBin, hiBin) of the smoothed
// spectrum into numBands contiguous equal-width chunks and returns one
// perceptually scaled energy value per band, sensitivity applied, clamped to
// [0,1].
//
// Chunk width is ceil((hiBin-loBin)/numBands); the last chunk may be shorter.
// Each contained bin's linear magnitude is converted to dB (non-positive
// magnitudes floor at MinBandDB), normalized via NormalizeDB, and averaged
// across the chunk.
//
// Degenerate requests produce well-defined output instead of a fault:
// numBands <= 0 returns an empty slice, an empty or inverted bin range
// returns numBands zeros, and bands past the end of the range read 0.
// The snapshot is taken under the same short mutex as FrequencyData, so this
// is safe to call concurrently with producer-side writes.
func (a *Analyzer) FrequencyBands(numBands, loBin, hiBin int) []float64 {
	if numBands <= 0 {
		return []float64{}
	}

	out := make([]float64, numBands)

	if loBin < 0 {
		loBin = 0
	}
	if hiBin > a.binCount {
		hiBin = a.binCount
	}
	if loBin >= hiBin {
		return out
	}

	span := hiBin - loBin
	sub := make([]float64, span)
	a.mu.Lock()
	copy(sub, a.smoothed[loBin:hiBin])
	a.mu.Unlock()

	chunk := (span + numBands - 1) / numBands // ceil
	sens := loadFloat(&a.sensitivity)

	for b := range out {
		start := b * chunk
		if start >= span {
			break // remaining bands stay zero
		}
		end := start + chunk
		if end > span {
			end = span
		}

		sum := 0.0
		for i := start; i < end; i++ {
			sum += NormalizeDB(magnitudeToDB(sub[i]))
		}
		avg := sum / float64(end-start)
		out[b] = clampUnit(avg * sens)
	}

	return out
}

// magnitudeToDB converts a linear [0,1] magnitude to dBFS, flooring
// non-positive magnitudes at MinBandDB instead of producing -Inf.
func magnitudeToDB(mag float64) float64 {
	if mag <= 0 {
		return MinBandDB
	}
	return 20 * math.Log10(mag)
}
