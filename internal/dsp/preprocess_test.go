package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNormalizePeakIsUnitMagnitude(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 200).Draw(t, "n")
		sig := make([]float64, n)
		hasNonZero := false
		for i := range sig {
			sig[i] = rapid.Float64Range(-1000, 1000).Draw(t, "v")
			if sig[i] != 0 {
				hasNonZero = true
			}
		}
		ok := Normalize(sig)
		if !hasNonZero {
			assert.False(t, ok)
			return
		}
		assert.True(t, ok)
		var max float64
		for _, v := range sig {
			if a := math.Abs(v); a > max {
				max = a
			}
		}
		assert.InDelta(t, 1.0, max, 1e-9)
	})
}

func TestNormalizeAllZeroReportsFalse(t *testing.T) {
	sig := make([]float64, 10)
	ok := Normalize(sig)
	assert.False(t, ok)
	for _, v := range sig {
		assert.Equal(t, 0.0, v)
	}
}

func TestRemoveDCSelfMatchesSuppliedZero(t *testing.T) {
	raw := []uint16{100, 110, 90, 105, 95}
	out, zero := RemoveDCSelf(raw)
	assert.InDelta(t, 100.0, zero, 1e-9)
	expected := RemoveDC(raw, zero)
	assert.Equal(t, expected, out)
}

func TestZeroLevelIsMean(t *testing.T) {
	raw := []uint16{10, 20, 30, 40}
	assert.InDelta(t, 25.0, ZeroLevel(raw), 1e-9)
}
