package dsp

import "math"

// Peak is a single captured turning point: its sample position, the
// conditioned signal's amplitude there, and whether a peak was actually
// found for this slot (an empty slot carries Present=false rather than
// a sentinel zero position, so a real crossing at index 0 is never
// confused with "nothing found here").
type Peak struct {
	Position  int
	Amplitude float64
	Present   bool
}

// ArgMax returns the index of the largest value in sig.
func ArgMax(sig []float64) int {
	arg := 0
	max := sig[0]
	for i, v := range sig {
		if v > max {
			max = v
			arg = i
		}
	}
	return arg
}

// findNextTurning scans buf forward starting at start, looking for the
// first sign change in the first difference, and returns its absolute
// index. It mirrors the original firmware's find_next_turning but takes
// an explicit (buffer, start index) pair instead of walking a raw
// pointer, so the three-sample lookahead it needs for stability never
// reads outside buf.
func findNextTurning(buf []float64, start int) (int, bool) {
	winLen := len(buf) - start
	if winLen < 5 {
		return 0, false
	}
	preDt := buf[start+3] - buf[start+2]
	for i := 3; i < winLen-1; i++ {
		dt := buf[start+i+1] - buf[start+i]
		if signDiffer(preDt, dt) {
			return start + i, true
		}
		preDt = dt
	}
	return 0, false
}

// findPrevTurning scans buf backward from start, the mirror image of
// findNextTurning. The original read this via *(p-2)/*(p-3) on a
// pointer positioned at start, walking toward the buffer's head; here
// that walk is expressed as explicit indices into buf, bounds-checked
// so it never reads before index 0 (the original's pointer-offset-by
// -3 could do exactly that for a turning point near the start of the
// frame).
func findPrevTurning(buf []float64, start int) (int, bool) {
	if start < 3 {
		return 0, false
	}
	preDt := buf[start-2] - buf[start-3]
	for i := 3; i < start-1; i++ {
		dt := buf[start-i] - buf[start-i-1]
		if signDiffer(preDt, dt) {
			return start - i, true
		}
		preDt = dt
	}
	return 0, false
}

func signDiffer(a, b float64) bool {
	return math.Signbit(a) != math.Signbit(b)
}

// CapturePeaksFrom walks only forward from the start of sig, collecting
// up to peakLen peaks spaced at least MiniPeakDistance apart; sig's
// maximum sets only the acceptance threshold and the search bound. Positions
// in the returned slice are relative to sig[0]. Grounded on the
// original's capture_peaks_from, used during calibration's repeated
// accumulation pass where only a forward walk from a known anchor is
// needed.
func CapturePeaksFrom(sig []float64, peakLen int, threshold float64) []Peak {
	peaks := make([]Peak, peakLen)
	maxIdx := ArgMax(sig)
	absThreshold := sig[maxIdx] * threshold
	maxDistanceRight := 25 * (peakLen + 2)

	prevPeak := -1 << 30
	sigIdx := 0
	for i := 0; i < peakLen; i++ {
		turningIdx, ok := findNextTurning(sig, sigIdx)
		if !ok {
			break
		}
		sigIdx = turningIdx
		if sigIdx > len(sig) || sigIdx-maxIdx > maxDistanceRight {
			break
		}
		if math.Abs(sig[sigIdx]) >= absThreshold && absInt(prevPeak-sigIdx) >= MiniPeakDistance {
			peaks[i] = Peak{Position: sigIdx, Amplitude: sig[sigIdx], Present: true}
			prevPeak = sigIdx
		}
	}
	return peaks
}

// CapturePeaks builds a shape constellation of peakLeftLen+peakRightLen+1
// peaks centered on sig's global maximum: the main peak, peakRightLen
// peaks walking forward, and peakLeftLen peaks walking backward.
// Grounded on the original's capture_peaks. The left and right walks
// both track prevPeak as a sample position (the original's left walk
// mistakenly assigned it from the output slot index instead, spec.md
// Design Notes Open Question 2 — fixed here).
func CapturePeaks(sig []float64, peakLeftLen, peakRightLen int, threshold float64) []Peak {
	total := peakLeftLen + peakRightLen + 1
	peaks := make([]Peak, total)

	maxIdx := ArgMax(sig)
	absThreshold := sig[maxIdx] * threshold
	maxDistanceLeft := 25 * (peakLeftLen + 2)
	maxDistanceRight := 25 * (peakRightLen + 2)

	mainSlot := peakLeftLen
	peaks[mainSlot] = Peak{Position: maxIdx, Amplitude: sig[maxIdx], Present: true}

	// right walk
	sigIdx := maxIdx
	slot := peakLeftLen + 1
	prevPeak := 0
	for i := 0; i < peakRightLen && slot < total; i++ {
		turningIdx, ok := findNextTurning(sig, sigIdx)
		if !ok {
			break
		}
		sigIdx = turningIdx
		if sigIdx > len(sig) || sigIdx-maxIdx > maxDistanceRight {
			break
		}
		if math.Abs(sig[sigIdx]) >= absThreshold && absInt(prevPeak-sigIdx) >= MiniPeakDistance {
			peaks[slot] = Peak{Position: sigIdx, Amplitude: sig[sigIdx], Present: true}
			slot++
			prevPeak = sigIdx
		}
	}

	// left walk
	sigIdx = maxIdx
	slot = peakLeftLen - 1
	prevPeak = 0
	for i := slot; i >= 0 && slot >= 0; i-- {
		turningIdx, ok := findPrevTurning(sig, sigIdx)
		if !ok {
			break
		}
		sigIdx = turningIdx
		if maxIdx-sigIdx > maxDistanceLeft {
			break
		}
		if math.Abs(sig[sigIdx]) >= absThreshold && absInt(prevPeak-sigIdx) >= MiniPeakDistance {
			peaks[slot] = Peak{Position: sigIdx, Amplitude: sig[sigIdx], Present: true}
			slot--
			prevPeak = sigIdx
		}
	}

	return peaks
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
