package driver

import (
	"context"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOPowerRail drives the relay or MOSFET gate that switches the
// 80kHz transducer supply, over a Linux GPIO character device line.
type GPIOPowerRail struct {
	chip   string
	offset int

	mu   sync.Mutex
	line *gpiocdev.Line
}

// NewGPIOPowerRail opens the given chip/line as an output, initially
// off.
func NewGPIOPowerRail(chip string, offset int) (*GPIOPowerRail, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request power rail line: %w", err)
	}
	return &GPIOPowerRail{chip: chip, offset: offset, line: line}, nil
}

// Close releases the GPIO line.
func (r *GPIOPowerRail) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.line == nil {
		return nil
	}
	err := r.line.Close()
	r.line = nil
	return err
}

// SetPower has the signature of FrontEnd.SetPower; GPIOPowerRail is not
// itself a FrontEnd. frequencyHz is informational only on
// this rail: the GPIO line is a binary on/off gate, the carrier
// frequency is generated by the transducer driver hardware downstream.
func (r *GPIOPowerRail) SetPower(ctx context.Context, frequencyHz int, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.line == nil {
		return fmt.Errorf("power rail line not open")
	}
	v := 0
	if on {
		v = 1
	}
	return r.line.SetValue(v)
}
