package dsp

import "math"

// RemoveDC subtracts a supplied zero level from raw ADC counts,
// producing a signed float signal. zero is normally the DC level the
// front end reported for the same capture.
func RemoveDC(raw []uint16, zero float64) []float64 {
	out := make([]float64, len(raw))
	for i, r := range raw {
		out[i] = float64(r) - zero
	}
	return out
}

// RemoveDCSelf computes the zero level from the frame itself and
// removes it, returning both the conditioned signal and the level it
// used. Used when no calibrated baseline is available yet.
func RemoveDCSelf(raw []uint16) ([]float64, float64) {
	var sum float64
	for _, r := range raw {
		sum += float64(r)
	}
	zero := sum / float64(len(raw))
	return RemoveDC(raw, zero), zero
}

// ZeroLevel averages a raw frame to estimate the quiescent ADC level,
// normally sampled with no echo present.
func ZeroLevel(raw []uint16) float64 {
	var sum float64
	for _, r := range raw {
		sum += float64(r)
	}
	return sum / float64(len(raw))
}

// Normalize scales sig in place so its largest-magnitude sample is
// exactly +-1, reporting whether it did so. A region with no signal
// (all zero) is left untouched and reports false — a silent or
// disconnected channel, which the caller must treat as a shape
// mismatch rather than feed into peak capture.
func Normalize(sig []float64) bool {
	var max float64
	for _, v := range sig {
		if a := math.Abs(v); a > max {
			max = a
		}
	}
	if max == 0 {
		return false
	}
	for i := range sig {
		sig[i] /= max
	}
	return true
}
