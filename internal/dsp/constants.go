// Package dsp implements the per-channel echo conditioning pipeline:
// DC removal, band-pass filtering, normalization, turning-point peak
// extraction, shape matching and zero-crossing interpolation.
package dsp

// FrameLen is the number of ADC samples captured per channel per cycle
// (1 MSPS, 1 ms window).
const FrameLen = 1000

// DeadZoneOffset excludes the direct-path pulse energy at the start of
// the frame; samples before this index are never trusted as echo.
const DeadZoneOffset = PulseLen*25/2 + 25

// ValidLen is the number of samples left to search once the dead zone
// is excluded.
const ValidLen = FrameLen - DeadZoneOffset

// PulseLen is the length of the transmitted Barker-like coded pulse
// (cpulse in the original firmware).
const PulseLen = 25

// ZeroCrossLen is how many zero crossings LinearInterpolateZeroCross extracts
// from a single channel in one measurement cycle.
const ZeroCrossLen = 6

// NumZCAvg is how many of those crossings are averaged to get the
// propagation time estimate. Should be even.
const NumZCAvg = 6

// PeakLeft and PeakRight bound the shape constellation captured around
// the main echo peak.
const (
	PeakLeft  = 8
	PeakMain  = PeakLeft
	PeakRight = 8
	PeakLen   = PeakLeft + PeakRight + 1
)

// PeakZC is the index, within a shape constellation, of the peak whose
// neighbourhood the zero-crossing estimator starts from.
const PeakZC = 5

// MiniPeakDistance is the minimum sample spacing enforced between two
// accepted peaks in a single walk direction.
const MiniPeakDistance = 5

// DefaultPeakThreshold is the fraction of the main peak's amplitude a
// secondary peak must reach to be accepted.
const DefaultPeakThreshold = 0.2

// MSERange is the width of the search window MatchShape scans
// over, centered on zero offset.
const MSERange = 9
