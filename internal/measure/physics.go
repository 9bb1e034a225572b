package measure

import (
	"math"

	"github.com/qingstation/anemometer/internal/geometry"
)

// computeVelocity turns the four per-channel propagation times (seconds,
// ordered north/south/east/west) into north-south and east-west wind
// velocity components and the cross-checked speed of sound, following
// the original firmware's ns_v/ew_v/ns_c/ew_c/c arithmetic.
func computeVelocity(dt [4]float64, g geometry.Geometry) (nsV, ewV, soundSpeed float64) {
	sinA, cosA := g.SinAlpha(), g.CosAlpha()
	nsV = g.Height / (sinA * cosA) * (1/dt[0] - 1/dt[1])
	ewV = g.Height / (sinA * cosA) * (1/dt[2] - 1/dt[3])
	nsC := g.Height / sinA * (1/dt[0] + 1/dt[1])
	ewC := g.Height / sinA * (1/dt[2] + 1/dt[3])
	soundSpeed = (nsC + ewC) / 2
	return nsV, ewV, soundSpeed
}

// inSoundSpeedRange is the hard plausibility bound on speed of sound in
// air, 270-365 m/s in the original firmware.
func inSoundSpeedRange(c float64) bool {
	return c >= 270 && c <= 365
}

// isPlausible cross-checks a cycle's speed of sound against the
// temperature-derived estimate (±10 m/s) and the smoothed history
// (±5 m/s), the two soft gates applied after the hard range check.
func isPlausible(soundSpeed, estC, cHistory float64) bool {
	return math.Abs(estC-soundSpeed) <= 10 && math.Abs(soundSpeed-cHistory) <= 5
}

// courseFromVelocity derives a compass course in degrees, in [0, 360),
// from wind velocity components as atan2(-ewV, -nsV), or -1 when the
// wind is too weak to bear a direction (speed below 0.25 m/s, matching
// the original's dead band).
func courseFromVelocity(nsV, ewV, speed float64) float64 {
	if speed < 0.25 {
		return -1
	}
	course := math.Atan2(-ewV, -nsV) / math.Pi * 180
	if course < 0 {
		course += 360
	}
	return course
}
