// SPDX-License-Identifier: MIT
package audio

import "math"

// EnableGate opens the noise gate check ahead of analysis.
func (e *Engine) EnableGate() {
	e.gateEnabled = true
}

// DisableGate disables the gate so every block reaches the analyzer.
func (e *Engine) DisableGate() {
	e.gateEnabled = false
}

// SetGateThreshold adjusts the noise gate threshold. The value is clamped to
// [0,1] where 0=always open, 1=always closed.
func (e *Engine) SetGateThreshold(threshold float64) {
	e.gateThreshold = thresholdToInt32(threshold)
}

// GetGateThreshold returns the current noise gate threshold in [0,1].
func (e *Engine) GetGateThreshold() float64 {
	return float64(e.gateThreshold) / float64(math.MaxInt32)
}
