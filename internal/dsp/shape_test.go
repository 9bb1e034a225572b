package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchShapeZeroOffsetForIdenticalShapes(t *testing.T) {
	shape := make([]Peak, PeakLen)
	for i := range shape {
		shape[i] = Peak{Position: i * 10, Amplitude: float64(i) * 0.1, Present: true}
	}
	mse := make([]float64, MSERange)
	off := MatchShape(shape, shape, mse, MSERange)
	assert.Equal(t, MSERange/2, off)
	assert.InDelta(t, 0.0, mse[off], 1e-12)
}

func TestMatchShapeNaNWhenNoOverlap(t *testing.T) {
	empty := make([]Peak, PeakLen)
	mse := make([]float64, MSERange)
	MatchShape(empty, empty, mse, MSERange)
	assert.True(t, IsNaN(mse[MSERange/2]))
}
