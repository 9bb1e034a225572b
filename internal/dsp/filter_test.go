package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterZeroesLeadIn(t *testing.T) {
	x := make([]float64, 100)
	for i := range x {
		x[i] = 1
	}
	y := BP40k10k1Order.Apply(x)
	lead := 2*BP40k10k1Order.Order + 1
	for i := 0; i < lead; i++ {
		assert.Zero(t, y[i])
	}
}

func TestFilterProducesFiniteOutput(t *testing.T) {
	x := make([]float64, 200)
	for i := range x {
		if i%25 < 12 {
			x[i] = 1
		} else {
			x[i] = -1
		}
	}
	for _, f := range []Filter{BP40k2k1Order, BP40k2k2Order, BP40k2k3Order, BP40k10k1Order, BP40k10k2Order, BP40k10k3Order} {
		y := f.Apply(x)
		assert.Len(t, y, len(x))
		for _, v := range y {
			assert.False(t, v != v, "filter %s produced NaN", f.Name)
		}
	}
}
