package measure

// Record is the published measurement: wind speed and course, the
// cross-checked speed of sound, the rolling 30s statistics, and the
// error code from the cycle that produced (or failed to produce) it.
type Record struct {
	Speed       float64
	Course      float64
	SoundSpeed  float64
	Speed30sAvg float64
	Speed30sMax float64
	ErrCode     ErrCode
}
