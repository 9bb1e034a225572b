// Package driver defines the transducer front-end contract the
// measurement controller drives, plus the concrete adapters that back
// it on a development bench (PortAudio), in the field (GPIO power rail
// over a real transducer array) and in tests (a synthetic generator).
package driver

import "context"

// Channel identifies one of the four transducers.
type Channel int

const (
	North Channel = iota
	South
	East
	West
)

func (c Channel) String() string {
	switch c {
	case North:
		return "North"
	case South:
		return "South"
	case East:
		return "East"
	case West:
		return "West"
	default:
		return "Unknown"
	}
}

// Pulse is the coded pattern transmitted before a measurement capture:
// a fixed table of PWM levels (0=low, 99=high), two entries per 40kHz
// half-cycle, encoding a Barker-like code at 80kHz bit rate.
type Pulse []uint16

// DefaultPulse is the 13-chip Barker-like pattern carried from the
// reference firmware's cpulse table.
var DefaultPulse = Pulse{
	0, 99, 0, 99, 0, 99, 0, 99, 0, 99, 0, 99, 99,
	0, 99, 0, 99, 0, 99, 99, 0, 99, 0, 0, 99,
}

// FrontEnd is the driver API the measurement controller and the
// calibration engine consume: measuring a channel's echo, passively
// sampling ambient level, and switching the transducer drive rail.
type FrontEnd interface {
	// MeasureChannel emits pulse on ch and captures len(out) ADC
	// samples into out. When returnZeroLevel is true the DC offset
	// measured over the capture is also returned.
	MeasureChannel(ctx context.Context, ch Channel, pulse Pulse, out []uint16, returnZeroLevel bool) (zeroLevel float64, err error)
	// Sample passively captures len(out) ADC samples with no pulse
	// emitted, for ambient zero-level calibration.
	Sample(ctx context.Context, ch Channel, out []uint16) error
	// SetPower switches the transducer drive rail on or off at the
	// given carrier frequency.
	SetPower(ctx context.Context, frequencyHz int, on bool) error
}
