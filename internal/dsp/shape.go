package dsp

import "math"

// MatchShape scores how well curr matches ref at each candidate lobe
// offset in [-searchRange/2, searchRange/2] by mean squared amplitude
// error over the peaks present in both constellations, and returns the
// offset index (into mse) that scores lowest. mse is sized searchRange
// and filled with every score, including any NaN from an offset that
// has no overlapping peaks — callers must check for NaN before trusting
// the match.
func MatchShape(ref, curr []Peak, mse []float64, searchRange int) int {
	length := len(ref)
	half := searchRange / 2
	for off := -half; off <= half; off++ {
		startIdx := -off
		stopIdx := length + off
		if startIdx < 0 {
			startIdx = 0
		}
		if stopIdx > length {
			stopIdx = length - off
		}

		var sum, count float64
		for i := startIdx; i < stopIdx; i++ {
			j := i + off
			if j < 0 || j >= len(curr) {
				continue
			}
			if ref[i].Present && curr[j].Present {
				v := ref[i].Amplitude - curr[j].Amplitude
				sum += v * v
				count++
			}
		}
		mse[off+half] = sum / count // NaN when count==0, propagates deliberately
	}
	return argMinf(mse)
}

func argMinf(sig []float64) int {
	arg := 0
	min := sig[0]
	for i, v := range sig {
		if v < min {
			min = v
			arg = i
		}
	}
	return arg
}

// IsNaN reports whether a match score is unusable.
func IsNaN(v float64) bool {
	return math.IsNaN(v)
}
