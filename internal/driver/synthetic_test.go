package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticMeasureChannelPlacesEchoNearTOF(t *testing.T) {
	s := NewSynthetic(2048)
	s.SetEcho(North, 500, 12.5, 1500)
	out := make([]uint16, 1000)
	_, err := s.MeasureChannel(context.Background(), North, DefaultPulse, out, true)
	require.NoError(t, err)

	peak := 0
	for i, v := range out {
		if v > out[peak] {
			peak = i
		}
	}
	assert.InDelta(t, 500, peak, 3)
}

func TestSyntheticSetPowerTracksState(t *testing.T) {
	s := NewSynthetic(2048)
	require.NoError(t, s.SetPower(context.Background(), 80000, true))
	assert.True(t, s.PowerOn())
	require.NoError(t, s.SetPower(context.Background(), 80000, false))
	assert.False(t, s.PowerOn())
}

func TestSyntheticSampleWithNoEchoReturnsZeroLevel(t *testing.T) {
	s := NewSynthetic(1234)
	out := make([]uint16, 100)
	require.NoError(t, s.Sample(context.Background(), East, out))
	for _, v := range out {
		assert.Equal(t, uint16(1234), v)
	}
}
