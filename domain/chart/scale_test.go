package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRescale(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0, 2, 4}, Rescale([]float64{10, 20, 30}, BarHeightSpan), 1e-9)
	assert.Equal(t, []float64{2, 2}, Rescale([]float64{7, 7}, BarHeightSpan))
	assert.Empty(t, Rescale(nil, BarHeightSpan))
}

func TestRescaleExtremeRange(t *testing.T) {
	got := Rescale([]float64{-1e308, 0, 1e308}, Scatter3DSpan)
	assert.InDeltaSlice(t, []float64{-2.5, 0, 2.5}, got, 1e-9)

	got = Rescale([]float64{math.MaxFloat64, -math.MaxFloat64}, BarHeightSpan)
	assert.InDeltaSlice(t, []float64{4, 0}, got, 1e-9)
}

func TestAnglesExtremeValues(t *testing.T) {
	got := Angles([]float64{1e308, -1e308})
	assert.InDeltaSlice(t, []float64{math.Pi, math.Pi}, got, 1e-9)
}

func TestSpread(t *testing.T) {
	assert.Equal(t, []float64{0}, Spread(1, BarPositionSpan))
	assert.Equal(t, []float64{-4, 0, 4}, Spread(3, BarPositionSpan))
	assert.Empty(t, Spread(0, BarPositionSpan))
}

func TestAnglesAllZero(t *testing.T) {
	got := Angles([]float64{0, 0, 0, 0})
	for _, a := range got {
		assert.InDelta(t, 1.5707963, a, 1e-6)
	}
}

func TestPalette(t *testing.T) {
	p := Palette(3)
	assert.Equal(t, "hsl(0, 70%, 50%)", p[0].HSL)
	assert.Equal(t, "#d92626", p[0].Hex)
	assert.Equal(t, "hsl(120, 70%, 50%)", p[1].HSL)
	assert.Equal(t, "#26d926", p[1].Hex)
	assert.Empty(t, Palette(0))
}
