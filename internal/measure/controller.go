// Package measure implements the measurement-cycle controller: the
// single worker that samples all four transducers each tick, runs the
// dsp pipeline per channel, combines the four propagation times into
// wind velocity and speed of sound, gates implausible results, and
// publishes oversampled records.
package measure

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/qingstation/anemometer/internal/driver"
	"github.com/qingstation/anemometer/internal/dsp"
	"github.com/qingstation/anemometer/internal/geometry"
)

var channels = [4]driver.Channel{driver.North, driver.South, driver.East, driver.West}

// Dumper persists the raw per-channel ADC frames from a failed cycle,
// satisfied by internal/recorder.CSVDumper.
type Dumper interface {
	Dump(ctx context.Context, errCount uint64, frames [4][]uint16) error
}

// Params holds the per-cycle configuration the controller reads at
// cycle boundaries: geometry, oversampling factor, per-channel pulse
// offsets and calibrated reference shapes, and the band-pass filter in
// use.
type Params struct {
	Geometry    geometry.Geometry
	Oversampling int
	PulseOffset [4]float64
	RefShape    [4][]dsp.Peak
	Filter      dsp.Filter
}

// Controller is the single long-running measurement-cycle worker.
type Controller struct {
	front  driver.FrontEnd
	dumper Dumper
	logger *log.Logger

	params         Params
	airTemperature func() float64
	isEnabled      func() bool
	isDumpError    func() bool

	events  chan Record
	history *History

	mseHistory [4]float64
	cHistory   float64
	errCount   uint64
	lastDump   time.Time

	nsVAcc, ewVAcc, cAcc float64
	oversampleCount      int
}

// NewController builds a controller. airTemperature supplies the
// external air-temperature collaborator's latest reading; isEnabled
// and isDumpError are read from persisted configuration at each cycle
// boundary, matching the original's cfg->is_enable / is_dump_error.
func NewController(front driver.FrontEnd, dumper Dumper, logger *log.Logger, params Params, historySize int, airTemperature func() float64, isEnabled, isDumpError func() bool) *Controller {
	return &Controller{
		front:          front,
		dumper:         dumper,
		logger:         logger,
		params:         params,
		airTemperature: airTemperature,
		isEnabled:      isEnabled,
		isDumpError:    isDumpError,
		events:         make(chan Record, 8),
		history:        NewHistory(historySize),
	}
}

// SpeedOfSoundFromTemperature estimates the speed of sound in air from
// a Celsius reading, the more accurate of the two formulas carried in
// the original firmware (the other, a linear approximation, was left
// commented out there).
func SpeedOfSoundFromTemperature(tempC float64) float64 {
	return 20.05 * math.Sqrt(tempC+273.15)
}

// Events streams a Record snapshot each time an oversampled measurement
// publishes.
func (c *Controller) Events() <-chan Record {
	return c.events
}

// Run drives the 20ms-tick measurement loop until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if c.isEnabled != nil && !c.isEnabled() {
			continue
		}
		if _, err := c.Step(ctx); err != nil {
			return err
		}
	}
}

// Step runs exactly one measurement cycle: sample all four channels,
// run the dsp pipeline, combine into wind velocity and sound speed,
// gate, and publish on an oversampling boundary. It returns the cycle's
// error code (Normal on success).
func (c *Controller) Step(ctx context.Context) (ErrCode, error) {
	var raw [4][]uint16
	var sigLevel [4]float64
	for i, ch := range channels {
		raw[i] = make([]uint16, dsp.FrameLen)
		zero, err := c.front.MeasureChannel(ctx, ch, driver.DefaultPulse, raw[i], true)
		if err != nil {
			return Normal, fmt.Errorf("measure channel %s: %w", ch, err)
		}
		sigLevel[i] = zero
	}

	var dt [4]float64
	errCode := Normal
	for i := range channels {
		sig2 := dsp.RemoveDC(raw[i], sigLevel[i])
		sig := c.params.Filter.Apply(sig2)
		valid := sig[dsp.DeadZoneOffset:]
		if !dsp.Normalize(valid) {
			errCode = ErrShapeMismatch
			continue
		}

		shape := dsp.CapturePeaks(valid, dsp.PeakLeft, dsp.PeakRight, dsp.DefaultPeakThreshold)
		mse := make([]float64, dsp.MSERange)
		miniMSE := dsp.MatchShape(c.params.RefShape[i], shape, mse, dsp.MSERange)
		peakOff := miniMSE - dsp.MSERange/2
		c.mseHistory[i] = 0.9*c.mseHistory[i] + 0.1*mse[miniMSE]

		if dsp.IsNaN(mse[0]) {
			errCode = ErrMSENaN
			continue
		}
		if mse[miniMSE] > c.mseHistory[i]*10 {
			errCode = ErrShapeMismatch
			continue
		}

		zcSlot := dsp.PeakZC + peakOff
		if zcSlot < 0 || zcSlot >= len(shape) {
			errCode = ErrShapeMismatch
			continue
		}
		off := shape[zcSlot].Position
		if off < 0 || off >= len(valid) {
			errCode = ErrShapeMismatch
			continue
		}
		zc := make([]float64, dsp.ZeroCrossLen)
		dsp.LinearInterpolateZeroCross(valid[off:], zc, dsp.ZeroCrossLen)
		for j := range zc {
			zc[j] += float64(off)
		}
		dt[i] = dsp.Average(zc, dsp.NumZCAvg) + c.params.PulseOffset[i]
	}

	if errCode != Normal {
		c.errCount++
		c.maybeDump(ctx, raw)
		return errCode, nil
	}

	for i := range dt {
		dt[i] /= 1e6 // us -> s
	}

	nsV, ewV, soundSpeed := computeVelocity(dt, c.params.Geometry)

	if !inSoundSpeedRange(soundSpeed) {
		c.errCount++
		c.maybeDump(ctx, raw)
		return ErrWindSpeed, nil
	}

	if c.cHistory == 0 {
		c.cHistory = soundSpeed
	}
	estC := SpeedOfSoundFromTemperature(c.airTemperature())
	c.cHistory = c.cHistory*0.9 + soundSpeed*0.1
	plausible := isPlausible(soundSpeed, estC, c.cHistory)
	if !plausible {
		c.errCount++
		c.maybeDump(ctx, raw)
		return ErrWindSpeed, nil
	}

	c.nsVAcc += nsV
	c.ewVAcc += ewV
	c.cAcc += soundSpeed
	c.oversampleCount++

	if c.oversampleCount >= c.params.Oversampling {
		avgNS := c.nsVAcc / float64(c.oversampleCount)
		avgEW := c.ewVAcc / float64(c.oversampleCount)
		avgC := c.cAcc / float64(c.oversampleCount)
		speed := math.Hypot(avgNS, avgEW)
		course := courseFromVelocity(avgNS, avgEW, speed)

		c.history.Add(speed)
		rec := Record{
			Speed:       speed,
			Course:      course,
			SoundSpeed:  avgC,
			Speed30sAvg: c.history.Average(),
			Speed30sMax: c.history.Max(),
			ErrCode:     Normal,
		}
		select {
		case c.events <- rec:
		default:
			c.logger.Warn("event channel full, dropping record")
		}

		c.nsVAcc, c.ewVAcc, c.cAcc, c.oversampleCount = 0, 0, 0, 0
	}

	return Normal, nil
}

func (c *Controller) maybeDump(ctx context.Context, raw [4][]uint16) {
	if c.dumper == nil || c.isDumpError == nil || !c.isDumpError() {
		return
	}
	if time.Since(c.lastDump) < time.Second {
		return
	}
	c.lastDump = time.Now()
	if err := c.dumper.Dump(ctx, c.errCount, raw); err != nil {
		c.logger.Warn("dump error measurement failed", "err", err)
	}
}
