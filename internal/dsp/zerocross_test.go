package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestLinearInterpolateZeroCrossIsMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(20, 120).Draw(t, "n")
		sig := make([]float64, n)
		for i := range sig {
			sig[i] = rapid.Float64Range(-1, 1).Draw(t, "v")
		}
		out := make([]float64, ZeroCrossLen)
		cross := LinearInterpolateZeroCross(sig, out, ZeroCrossLen)
		for i := 1; i < cross; i++ {
			assert.GreaterOrEqual(t, out[i], out[i-1])
		}
	})
}

func TestLinearInterpolateZeroCrossExactMidpoint(t *testing.T) {
	sig := []float64{-1, 1}
	out := make([]float64, 1)
	cross := LinearInterpolateZeroCross(sig, out, 1)
	assert.Equal(t, 1, cross)
	assert.InDelta(t, 0.5, out[0], 1e-9)
}

func TestAverage(t *testing.T) {
	assert.InDelta(t, 2.0, Average([]float64{1, 2, 3, 99}, 3), 1e-9)
}
