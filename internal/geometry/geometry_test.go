package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlphaMatchesScenario(t *testing.T) {
	g := Geometry{Height: 0.05, Pitch: 0.04}
	assert.InDelta(t, math.Atan(2*0.05/0.04), g.Alpha(), 1e-12)
}

func TestSinCosIdentity(t *testing.T) {
	g := Geometry{Height: 0.03, Pitch: 0.07}
	s, c := g.SinAlpha(), g.CosAlpha()
	assert.InDelta(t, 1.0, s*s+c*c, 1e-9)
}
