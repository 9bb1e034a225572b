// Package calib runs the anemometer's startup calibration procedure:
// waiting for transducers to be connected, a capacitor-charge warm-up
// burst, and the shape-template/zero-crossing accumulation pass that
// produces each channel's reference echo shape and pulse offset.
package calib

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/qingstation/anemometer/internal/driver"
	"github.com/qingstation/anemometer/internal/dsp"
	"github.com/qingstation/anemometer/internal/geometry"
)

var channels = [4]driver.Channel{driver.North, driver.South, driver.East, driver.West}

// Result is calibration2's output: the per-channel reference echo
// shape used for shape matching, the per-channel averaged zero
// crossings from which PulseOffset derives each channel's pulse offset,
// and the number of accumulated passes the averages are based on.
type Result struct {
	RefShape  [4][]dsp.Peak
	ZeroCross [4][]float64
	Count     int
}

// AwaitTransducers polls the front end until all four channels report
// a connected transducer (the original's check_transducer_connection,
// polled every interval until the return value is 0xf). It returns
// immediately if the connection check already passes.
func AwaitTransducers(ctx context.Context, front driver.FrontEnd, interval time.Duration) error {
	for {
		mask, err := checkTransducerConnection(ctx, front)
		if err != nil {
			return err
		}
		if mask == 0xf {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// checkTransducerConnection measures all four channels once and reports
// which ones show a signal well above their own zero level, as a
// per-channel bitmask.
func checkTransducerConnection(ctx context.Context, front driver.FrontEnd) (uint32, error) {
	var mask uint32
	for i, ch := range channels {
		raw := make([]uint16, dsp.FrameLen)
		zero, err := front.MeasureChannel(ctx, ch, driver.DefaultPulse, raw, true)
		if err != nil {
			return 0, fmt.Errorf("measure channel %s: %w", ch, err)
		}
		max := 0.0
		for _, v := range raw[dsp.DeadZoneOffset:] {
			if float64(v) > max {
				max = float64(v)
			}
		}
		if max > zero+50 {
			mask |= 1 << uint(i)
		}
	}
	return mask, nil
}

// LightningInterlock reports whether an external lightning sensor is
// currently calibrating, which dumps noise onto the west channel.
// Supplemented from the original's is_lightning_calibrating() poll
// before thread_anemometer starts its own calibration.
type LightningInterlock interface {
	Calibrating() bool
}

// AwaitLightningClear blocks until interlock reports it is no longer
// calibrating, polling at interval. A nil interlock is treated as
// always clear.
func AwaitLightningClear(ctx context.Context, interlock LightningInterlock, interval time.Duration) error {
	if interlock == nil {
		return nil
	}
	for interlock.Calibrating() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil
}

// WarmUp repeats an unmeasured sampling burst on every channel, letting
// the transducer drive capacitors charge before calibration begins (the
// original's 50-iteration cap-charge loop before calibration2 runs).
func WarmUp(ctx context.Context, front driver.FrontEnd, iterations int) error {
	for i := 0; i < iterations; i++ {
		for _, ch := range channels {
			raw := make([]uint16, dsp.FrameLen)
			if _, err := front.MeasureChannel(ctx, ch, driver.DefaultPulse, raw, false); err != nil {
				return fmt.Errorf("warm-up channel %s: %w", ch, err)
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Engine runs the shape-template and zero-crossing accumulation pass.
type Engine struct {
	Filter dsp.Filter
}

// Run implements the original's calibration2: it first waits (up to 16
// tries) for a stable, balanced measurement across the north/south and
// east/west pairs, then selects the channel whose main peak stands out
// most from its side peaks as the shape template's anchor, and finally
// accumulates up to 256 measurement passes (stopping once 32 have
// passed the north/south, east/west, and cross-channel zero-crossing
// consistency checks) into averaged reference shapes and zero
// crossings. A Result with Count 0 means calibration did not converge
// and the caller should not adopt its (zeroed) output.
func (e Engine) Run(ctx context.Context, front driver.FrontEnd) (Result, error) {
	if err := e.awaitStableLevels(ctx, front); err != nil {
		return Result{}, err
	}

	peaksZero, selectedCh, err := e.anchorShape(ctx, front)
	if err != nil {
		return Result{}, err
	}
	startIdx := peaksZero[selectedCh][0].Position - 8
	if startIdx < 0 {
		startIdx = 0
	}

	// shapePos/shapeAmp collect one value per slot per pass that slot
	// was actually detected in; a slot's length is its own hit count,
	// distinct from the overall pass count, since a shape's side peaks
	// are not always present.
	var shapePos, shapeAmp [4][dsp.PeakLen][]float64
	var zcAccum [4][dsp.ZeroCrossLen][]float64
	count := 0

	for i := 0; i < 256 && count < 32; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		var peaks [4][]dsp.Peak
		var zeroCross [4][]float64
		for idx, ch := range channels {
			raw := make([]uint16, dsp.FrameLen)
			zero, err := front.MeasureChannel(ctx, ch, driver.DefaultPulse, raw, true)
			if err != nil {
				return Result{}, fmt.Errorf("measure channel %s: %w", ch, err)
			}
			sig := e.Filter.Apply(dsp.RemoveDC(raw, zero))
			valid := sig[dsp.DeadZoneOffset:]
			dsp.Normalize(valid)

			base := dsp.DeadZoneOffset + startIdx
			p := dsp.CapturePeaksFrom(valid[startIdx:], dsp.PeakLen, 0.2)
			for j := range p {
				if p[j].Present {
					p[j].Position += base
				}
			}
			peaks[idx] = p

			off := p[dsp.PeakZC].Position
			zcVec := make([]float64, dsp.ZeroCrossLen)
			if off >= 0 && off < len(sig) {
				dsp.LinearInterpolateZeroCross(sig[off:], zcVec, dsp.ZeroCrossLen)
			}
			for j := range zcVec {
				zcVec[j] += float64(off)
			}
			zeroCross[idx] = zcVec
		}

		if consistent(zeroCross) {
			count++
			for idx := range channels {
				for j := 0; j < dsp.ZeroCrossLen; j++ {
					zcAccum[idx][j] = append(zcAccum[idx][j], zeroCross[idx][j])
				}
				for j := 0; j < dsp.PeakLen && j < len(peaks[idx]); j++ {
					if peaks[idx][j].Present {
						shapePos[idx][j] = append(shapePos[idx][j], float64(peaks[idx][j].Position))
						shapeAmp[idx][j] = append(shapeAmp[idx][j], peaks[idx][j].Amplitude)
					}
				}
			}
		}
	}

	if count == 0 {
		return Result{}, nil
	}

	var result Result
	result.Count = count
	for idx := range channels {
		result.RefShape[idx] = make([]dsp.Peak, dsp.PeakLen)
		for j := 0; j < dsp.PeakLen; j++ {
			if hits := len(shapePos[idx][j]); hits > 0 {
				result.RefShape[idx][j] = dsp.Peak{
					Position:  int(math.Round(stat.Mean(shapePos[idx][j], nil))),
					Amplitude: floats.Sum(shapeAmp[idx][j]) / float64(hits),
					Present:   true,
				}
			}
		}
		result.ZeroCross[idx] = make([]float64, dsp.ZeroCrossLen)
		for j := range result.ZeroCross[idx] {
			result.ZeroCross[idx][j] = stat.Mean(zcAccum[idx][j], nil)
		}
	}
	return result, nil
}

// awaitStableLevels retries up to 16 times for a north/south and
// east/west zero-level match within 2 ADC counts, matching the
// original's pre-calibration measurement loop. It does not error out
// if stability is never reached — calibration proceeds on whatever the
// last reading was, as the original does.
func (e Engine) awaitStableLevels(ctx context.Context, front driver.FrontEnd) error {
	for i := 0; i < 16; i++ {
		var level [4]float64
		for idx, ch := range channels {
			raw := make([]uint16, dsp.FrameLen)
			zero, err := front.MeasureChannel(ctx, ch, driver.DefaultPulse, raw, true)
			if err != nil {
				return fmt.Errorf("measure channel %s: %w", ch, err)
			}
			level[idx] = zero
		}
		if math.Abs(level[0]-level[1]) < 2 && math.Abs(level[2]-level[3]) < 2 {
			return nil
		}
	}
	return nil
}

// anchorShape captures an initial shape on all four channels and
// selects the one whose main peak stands out most from its neighbours
// two slots away, used as the template alignment anchor.
func (e Engine) anchorShape(ctx context.Context, front driver.FrontEnd) ([4][]dsp.Peak, int, error) {
	var peaksZero [4][]dsp.Peak
	var distance [4]float64
	for idx, ch := range channels {
		raw := make([]uint16, dsp.FrameLen)
		zero, err := front.MeasureChannel(ctx, ch, driver.DefaultPulse, raw, true)
		if err != nil {
			return peaksZero, 0, fmt.Errorf("measure channel %s: %w", ch, err)
		}
		sig := e.Filter.Apply(dsp.RemoveDC(raw, zero))
		valid := sig[dsp.DeadZoneOffset:]
		dsp.Normalize(valid)
		peaksZero[idx] = dsp.CapturePeaks(valid, dsp.PeakLeft, dsp.PeakRight, 0.2)

		main := dsp.PeakMain
		distance[idx] = (peaksZero[idx][main].Amplitude - peaksZero[idx][main-2].Amplitude) +
			(peaksZero[idx][main].Amplitude - peaksZero[idx][main+2].Amplitude)
	}

	selected := 0
	for i := 1; i < 4; i++ {
		if distance[i] > distance[selected] {
			selected = i
		}
	}
	return peaksZero, selected, nil
}

// consistent mirrors the original's record-if-looks-correct gate: the
// north/south pair and east/west pair must each agree within 2 samples,
// and the two pairs must agree with each other within 10 samples.
func consistent(zc [4][]float64) bool {
	n, s, e, w := zc[0][dsp.PeakZC], zc[1][dsp.PeakZC], zc[2][dsp.PeakZC], zc[3][dsp.PeakZC]
	return math.Abs(n-s) < 2 && math.Abs(w-e) < 2 && math.Abs(n-e) < 10 && math.Abs(s-w) < 10
}

// PulseOffset derives each channel's pulse offset from the calibration
// pass's averaged zero crossings and the geometry-and-temperature
// expected propagation time (the original's get_pulse_offset, called
// with T = 2*height/(sin(alpha)*est_c)*1e6 microseconds).
func PulseOffset(result Result, g geometry.Geometry, estSpeedOfSound float64) [4]float64 {
	propagationUs := 2 * g.Height / (g.SinAlpha() * estSpeedOfSound) * 1e6
	var offset [4]float64
	for idx := range channels {
		offset[idx] = propagationUs - dsp.Average(result.ZeroCross[idx], dsp.NumZCAvg)
	}
	return offset
}
