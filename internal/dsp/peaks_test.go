package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticEcho builds a damped-cosine echo lobe centered at center with
// the given half-period, loosely modeling a 40kHz burst sampled at 1MSPS.
func syntheticEcho(n, center int, halfPeriod float64, decay float64) []float64 {
	sig := make([]float64, n)
	for i := range sig {
		d := float64(i - center)
		env := math.Exp(-decay * d * d / (halfPeriod * halfPeriod))
		sig[i] = env * math.Cos(math.Pi*d/halfPeriod)
	}
	return sig
}

func TestCapturePeaksFindsMainPeakAtMaximum(t *testing.T) {
	sig := syntheticEcho(400, 200, 12, 0.01)
	peaks := CapturePeaks(sig, PeakLeft, PeakRight, DefaultPeakThreshold)
	require.Len(t, peaks, PeakLen)
	main := peaks[PeakMain]
	require.True(t, main.Present)
	assert.Equal(t, ArgMax(sig), main.Position)
}

func TestCapturePeaksRespectsMinimumSpacing(t *testing.T) {
	sig := syntheticEcho(400, 200, 12, 0.01)
	peaks := CapturePeaks(sig, PeakLeft, PeakRight, DefaultPeakThreshold)
	var present []Peak
	for _, p := range peaks {
		if p.Present {
			present = append(present, p)
		}
	}
	for i := 1; i < len(present); i++ {
		d := present[i].Position - present[i-1].Position
		if d < 0 {
			d = -d
		}
		assert.GreaterOrEqual(t, d, MiniPeakDistance)
	}
}

func TestFindNextTurningBoundsCheck(t *testing.T) {
	buf := []float64{0, 0, 0, 1, 2}
	_, ok := findNextTurning(buf, len(buf))
	assert.False(t, ok)
}

func TestFindPrevTurningNeverReadsBeforeStart(t *testing.T) {
	buf := []float64{1, -1, 1}
	idx, ok := findPrevTurning(buf, 2)
	assert.False(t, ok)
	assert.Equal(t, 0, idx)
}
