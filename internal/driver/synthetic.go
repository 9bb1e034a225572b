package driver

import (
	"context"
	"math"
	"sync"
)

// echoSpec describes a single channel's synthetic echo: the
// time-of-flight to place it at (in sample units, 1MSPS so 1 sample =
// 1us), its half-period (carrier), amplitude scale and a lobe-shape
// perturbation used to model fault-injection scenarios.
type echoSpec struct {
	tofSamples float64
	halfPeriod float64
	amplitude  float64
	lobeShift  int
	ampPerturb float64
}

// Synthetic is a deterministic FrontEnd used to drive the six
// concrete measurement scenarios: it never touches real hardware, and
// SetPower simply records the last requested state.
type Synthetic struct {
	mu        sync.Mutex
	zeroLevel float64
	specs     map[Channel]echoSpec
	powerOn   bool
}

// NewSynthetic builds a generator with a zero ADC level and no echoes
// configured; call SetEcho per channel before measuring.
func NewSynthetic(zeroLevel float64) *Synthetic {
	return &Synthetic{
		zeroLevel: zeroLevel,
		specs:     make(map[Channel]echoSpec),
	}
}

// SetEcho configures the echo placed on ch: tofSamples is the
// time-of-flight in microseconds (1 sample at 1MSPS), halfPeriod the
// carrier half-cycle in samples, amplitude the peak ADC swing.
func (s *Synthetic) SetEcho(ch Channel, tofSamples, halfPeriod, amplitude float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specs[ch] = echoSpec{tofSamples: tofSamples, halfPeriod: halfPeriod, amplitude: amplitude}
}

// SetDistortedEcho is SetEcho plus a shape-distortion fault: the main
// lobe is displaced by lobeShift samples and amplitude scaled by
// (1+ampPerturb), modelling the scenario 4 shape-distortion fault.
func (s *Synthetic) SetDistortedEcho(ch Channel, tofSamples, halfPeriod, amplitude float64, lobeShift int, ampPerturb float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specs[ch] = echoSpec{
		tofSamples: tofSamples, halfPeriod: halfPeriod, amplitude: amplitude,
		lobeShift: lobeShift, ampPerturb: ampPerturb,
	}
}

func (s *Synthetic) render(ch Channel, out []uint16) float64 {
	s.mu.Lock()
	spec, ok := s.specs[ch]
	zero := s.zeroLevel
	s.mu.Unlock()

	for i := range out {
		out[i] = uint16(zero)
	}
	if !ok {
		return zero
	}

	center := spec.tofSamples + float64(spec.lobeShift)
	amp := spec.amplitude * (1 + spec.ampPerturb)
	halfPeriod := spec.halfPeriod
	if halfPeriod <= 0 {
		halfPeriod = 12.5
	}
	decay := 0.01
	for i := range out {
		d := float64(i) - center
		env := math.Exp(-decay * d * d / (halfPeriod * halfPeriod))
		v := zero + amp*env*math.Cos(math.Pi*d/halfPeriod)
		if v < 0 {
			v = 0
		}
		if v > 65535 {
			v = 65535
		}
		out[i] = uint16(v)
	}
	return zero
}

// MeasureChannel implements FrontEnd.
func (s *Synthetic) MeasureChannel(ctx context.Context, ch Channel, pulse Pulse, out []uint16, returnZeroLevel bool) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	zero := s.render(ch, out)
	if !returnZeroLevel {
		return 0, nil
	}
	return zero, nil
}

// Sample implements FrontEnd.
func (s *Synthetic) Sample(ctx context.Context, ch Channel, out []uint16) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.render(ch, out)
	return nil
}

// SetPower implements FrontEnd.
func (s *Synthetic) SetPower(ctx context.Context, frequencyHz int, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.powerOn = on
	s.mu.Unlock()
	return nil
}

// PowerOn reports the last state requested via SetPower, for test
// assertions.
func (s *Synthetic) PowerOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.powerOn
}
