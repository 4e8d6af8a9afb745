package chart

import (
	"math"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"
)

// Span is a closed interval of scene coordinates.
type Span struct {
	Min, Max float64
}

// Mid returns the center of the span.
func (s Span) Mid() float64 { return (s.Min + s.Max) / 2 }

var (
	Scatter3DSpan   = Span{-2.5, 2.5}
	BarHeightSpan   = Span{0, 4}
	BarPositionSpan = Span{-4, 4}
	BarDepthSpan    = Span{-4, 4}
)

// Rescale maps values linearly so that their min and max land on the span
// ends. When every value is equal they all map to the span midpoint.
func Rescale(values []float64, span Span) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		for i := range out {
			out[i] = span.Mid()
		}
		return out
	}
	// Halved operands keep hi-lo finite for values near ±MaxFloat64.
	d := hi/2 - lo/2
	for i, v := range values {
		out[i] = span.Min + (span.Max-span.Min)*((v/2-lo/2)/d)
	}
	return out
}

// Spread places n items evenly across the span; a single item sits at the
// midpoint.
func Spread(n int, span Span) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = span.Mid()
		return out
	}
	for i := range out {
		out[i] = span.Min + (span.Max-span.Min)*float64(i)/float64(n-1)
	}
	return out
}

// Angles splits a full circle proportionally to |value|. If every value is
// zero the circle is split evenly.
func Angles(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	abs := make([]float64, len(values))
	for i, v := range values {
		abs[i] = math.Abs(v)
	}
	// Normalize by the largest magnitude so the sum cannot overflow.
	if m := floats.Max(abs); m > 0 {
		floats.Scale(1/m, abs)
	}
	total := floats.Sum(abs)
	for i := range out {
		if total == 0 {
			out[i] = 2 * math.Pi / float64(len(values))
		} else {
			out[i] = 2 * math.Pi * abs[i] / total
		}
	}
	return out
}

// Value is a chart datum; NaN marshals as JSON null.
type Value float64

func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// IsNaN reports whether the datum is missing.
func (v Value) IsNaN() bool { return math.IsNaN(float64(v)) }
