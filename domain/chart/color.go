package chart

import (
	"fmt"
	"math"
)

// Color is one palette entry in two CSS notations.
type Color struct {
	HSL string `json:"hsl"`
	Hex string `json:"hex"`
}

const (
	paletteSaturation = 0.7
	paletteLightness  = 0.5
)

// Palette returns n colors with hues evenly spaced around the wheel.
func Palette(n int) []Color {
	out := make([]Color, n)
	for i := range out {
		h := float64(i) / float64(n)
		r, g, b := hslToRGB(h, paletteSaturation, paletteLightness)
		out[i] = Color{
			HSL: fmt.Sprintf("hsl(%d, %d%%, %d%%)", int(math.Round(h*360)), int(paletteSaturation*100), int(paletteLightness*100)),
			Hex: fmt.Sprintf("#%02x%02x%02x", r, g, b),
		}
	}
	return out
}

// hslToRGB converts h, s, l in [0,1] to 8-bit channels.
func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	if s == 0 {
		v := to8(l)
		return v, v, v
	}
	q := l * (1 + s)
	if l >= 0.5 {
		q = l + s - l*s
	}
	p := 2*l - q
	return to8(hue(p, q, h+1.0/3)), to8(hue(p, q, h)), to8(hue(p, q, h-1.0/3))
}

func hue(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}

func to8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
