package calib

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qingstation/anemometer/internal/driver"
	"github.com/qingstation/anemometer/internal/dsp"
	"github.com/qingstation/anemometer/internal/geometry"
)

func withEchoOnAllChannels(zero, tof, halfPeriod, amplitude float64) *driver.Synthetic {
	front := driver.NewSynthetic(zero)
	for _, ch := range []driver.Channel{driver.North, driver.South, driver.East, driver.West} {
		front.SetEcho(ch, tof, halfPeriod, amplitude)
	}
	return front
}

type fakeInterlock struct{ clearAfter int }

func (f *fakeInterlock) Calibrating() bool {
	if f.clearAfter <= 0 {
		return false
	}
	f.clearAfter--
	return true
}

func TestAwaitLightningClearWithNilInterlockReturnsImmediately(t *testing.T) {
	require.NoError(t, AwaitLightningClear(context.Background(), nil, time.Millisecond))
}

func TestAwaitLightningClearPollsUntilClear(t *testing.T) {
	interlock := &fakeInterlock{clearAfter: 3}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, AwaitLightningClear(ctx, interlock, time.Millisecond))
	assert.Equal(t, 0, interlock.clearAfter)
}

func TestAwaitTransducersSucceedsWhenAllChannelsHaveEcho(t *testing.T) {
	front := withEchoOnAllChannels(20000, 500, 12.5, 15000)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, AwaitTransducers(ctx, front, time.Millisecond))
}

func TestAwaitTransducersTimesOutWithoutEcho(t *testing.T) {
	front := driver.NewSynthetic(20000) // no echoes configured on any channel
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := AwaitTransducers(ctx, front, 5*time.Millisecond)
	assert.Error(t, err)
}

func TestWarmUpRunsConfiguredIterations(t *testing.T) {
	front := withEchoOnAllChannels(20000, 500, 12.5, 15000)
	require.NoError(t, WarmUp(context.Background(), front, 5))
}

func TestEngineRunConvergesOnIdenticalEchoes(t *testing.T) {
	front := withEchoOnAllChannels(20000, 500, 12.5, 15000)
	e := Engine{Filter: dsp.BP40k10k1Order}

	result, err := e.Run(context.Background(), front)
	require.NoError(t, err)
	assert.Greater(t, result.Count, 0)
	for idx := range result.RefShape {
		assert.Len(t, result.RefShape[idx], dsp.PeakLen)
		assert.Len(t, result.ZeroCross[idx], dsp.ZeroCrossLen)
	}
}

func TestPulseOffsetDerivesFromZeroCrossAndGeometry(t *testing.T) {
	g := geometry.Geometry{Height: 0.05, Pitch: 0.04}
	result := Result{
		Count: 1,
		ZeroCross: [4][]float64{
			{173, 173, 173, 173, 173, 173},
			{173, 173, 173, 173, 173, 173},
			{173, 173, 173, 173, 173, 173},
			{173, 173, 173, 173, 173, 173},
		},
	}

	offset := PulseOffset(result, g, 343)
	propagation := 2 * g.Height / (g.SinAlpha() * 343) * 1e6
	for _, o := range offset {
		assert.InDelta(t, propagation-173, o, 1e-6)
	}
}
