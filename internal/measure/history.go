package measure

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// History is the 30-second rolling wind-speed statistics ring buffer.
// Grounded on the firmware's ringbuffer_t/ringbuffer_add/
// ringbuffer_average/ringbuffer_max: slots never written still count
// as zero toward Average and Max until the buffer has wrapped once —
// that warm-up behaviour is preserved rather than fixed (spec.md §9
// Open Question 3).
type History struct {
	buf []float64
	idx int
}

// NewHistory allocates a buffer sized for the given number of samples,
// at least one (cmd/anemometer passes 30000/data_period_ms, i.e. one
// slot per data period over a 30s window).
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{buf: make([]float64, size)}
}

// Add records a new oversampled speed sample, overwriting the oldest
// slot.
func (h *History) Add(v float64) {
	h.buf[h.idx] = v
	h.idx++
	if h.idx >= len(h.buf) {
		h.idx = 0
	}
}

// Average is the mean over the whole buffer, gonum/stat-backed.
func (h *History) Average() float64 {
	return stat.Mean(h.buf, nil)
}

// Max is the largest value currently in the buffer.
func (h *History) Max() float64 {
	return floats.Max(h.buf)
}
