// Package chart projects table columns into chart-ready series. Projection
// is pure: the same table and request always give the same result.
package chart

import (
	"math"
	"strings"

	"excelytics/domain/table"
	"excelytics/internal/errors"
)

// Kind names a chart type understood by the front end.
type Kind string

const (
	KindBar       Kind = "bar"
	KindLine      Kind = "line"
	KindRadar     Kind = "radar"
	KindPie       Kind = "pie"
	KindDoughnut  Kind = "doughnut"
	KindPolarArea Kind = "polarArea"
	KindScatter   Kind = "scatter"
	KindScatter3D Kind = "scatter3d"
	KindBar3D     Kind = "bar3d"
	KindPie3D     Kind = "pie3d"
)

// Kinds lists every supported chart kind.
var Kinds = []Kind{
	KindBar, KindLine, KindRadar, KindPie, KindDoughnut, KindPolarArea,
	KindScatter, KindScatter3D, KindBar3D, KindPie3D,
}

// ParseKind resolves a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", errors.InvalidInput("unknown chart kind " + s)
}

// Categorical reports whether the kind keeps one value per row.
func (k Kind) Categorical() bool {
	switch k {
	case KindBar, KindLine, KindRadar, KindPie, KindDoughnut, KindPolarArea:
		return true
	}
	return false
}

func (k Kind) pieLike() bool {
	return k == KindPie || k == KindDoughnut || k == KindPolarArea
}

// Request selects the columns to project.
type Request struct {
	Kind Kind   `json:"kind"`
	X    string `json:"x"`
	Y    string `json:"y"`
	Z    string `json:"z,omitempty"`
}

// Projection is the chart-ready form of a table. Which fields are set
// depends on Kind.
type Projection struct {
	Kind     Kind      `json:"kind"`
	Labels   []string  `json:"labels,omitempty"`
	Datasets []Dataset `json:"datasets,omitempty"`
	Points   []Point   `json:"points,omitempty"`
	Points3D []Point3D `json:"points3d,omitempty"`
	Bars     []Bar3D   `json:"bars,omitempty"`
	Slices   []Slice   `json:"slices,omitempty"`
	Dropped  int       `json:"dropped"`
}

// Dataset is one categorical series.
type Dataset struct {
	Label           string   `json:"label"`
	Data            []Value  `json:"data"`
	BackgroundColor []string `json:"backgroundColor"`
	BorderColor     []string `json:"borderColor"`
}

// Point is a 2D scatter point in source units.
type Point struct {
	X float64  `json:"x"`
	Y float64  `json:"y"`
	Z *float64 `json:"z,omitempty"`
}

// Point3D carries both the normalized scene coordinates and the source values.
type Point3D struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	RawX  float64 `json:"rawX"`
	RawY  float64 `json:"rawY"`
	RawZ  float64 `json:"rawZ"`
	Color string  `json:"color"`
}

// Bar3D is one bar of a 3D bar chart.
type Bar3D struct {
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	Height float64 `json:"height"`
	X      float64 `json:"x"`
	Z      float64 `json:"z"`
	Color  string  `json:"color"`
}

// Slice is one wedge of a 3D pie; angles are radians.
type Slice struct {
	Label      string  `json:"label"`
	Value      float64 `json:"value"`
	StartAngle float64 `json:"startAngle"`
	Angle      float64 `json:"angle"`
	Color      string  `json:"color"`
}

// Project maps the requested columns of t into a chart projection.
func Project(t *table.Table, req Request) (*Projection, error) {
	if !validKind(req.Kind) {
		return nil, errors.InvalidInput("unknown chart kind " + string(req.Kind))
	}
	for _, col := range []string{req.X, req.Y} {
		if !t.HasColumn(col) {
			return nil, errors.UnknownColumn(col)
		}
	}
	if req.Kind == KindScatter3D && req.Z == "" {
		return nil, errors.InvalidInput("scatter3d requires a z column")
	}
	if req.Z != "" && !t.HasColumn(req.Z) {
		return nil, errors.UnknownColumn(req.Z)
	}

	switch {
	case req.Kind.Categorical():
		return categorical(t, req), nil
	case req.Kind == KindScatter:
		return scatter(t, req), nil
	case req.Kind == KindScatter3D:
		return scatter3D(t, req), nil
	case req.Kind == KindBar3D:
		return bar3D(t, req), nil
	default:
		return pie3D(t, req), nil
	}
}

func validKind(k Kind) bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// AsNumber returns the numeric value of a cell, or NaN when it has none.
// Text that reads as a number counts as numeric.
func AsNumber(c table.Cell) float64 {
	if v, ok := c.Float(); ok {
		return v
	}
	if c.Kind() == table.KindText {
		if v, ok := table.Parse(c.String()).Float(); ok {
			return v
		}
	}
	return math.NaN()
}

func categorical(t *table.Table, req Request) *Projection {
	xs, _ := t.Column(req.X)
	ys, _ := t.Column(req.Y)

	labels := make([]string, len(xs))
	data := make([]Value, len(ys))
	for i := range xs {
		labels[i] = xs[i].String()
		data[i] = Value(AsNumber(ys[i]))
	}

	ds := Dataset{Label: req.Y, Data: data}
	if req.Kind.pieLike() {
		for _, c := range Palette(len(labels)) {
			ds.BackgroundColor = append(ds.BackgroundColor, c.HSL)
			ds.BorderColor = append(ds.BorderColor, c.Hex)
		}
	} else {
		c := Palette(1)[0]
		ds.BackgroundColor = []string{c.HSL}
		ds.BorderColor = []string{c.Hex}
	}
	return &Projection{Kind: req.Kind, Labels: labels, Datasets: []Dataset{ds}}
}

// numericRows returns, for each kept row, the values of the given columns;
// rows with any non-numeric value are dropped.
func numericRows(t *table.Table, cols ...string) (vals [][]float64, kept []int) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i], _ = t.ColumnIndex(c)
	}
	for r, row := range t.Rows {
		v := make([]float64, len(cols))
		ok := true
		for i, j := range idx {
			v[i] = AsNumber(row[j])
			if math.IsNaN(v[i]) {
				ok = false
				break
			}
		}
		if ok {
			vals = append(vals, v)
			kept = append(kept, r)
		}
	}
	return vals, kept
}

func scatter(t *table.Table, req Request) *Projection {
	cols := []string{req.X, req.Y}
	if req.Z != "" {
		cols = append(cols, req.Z)
	}
	vals, _ := numericRows(t, cols...)
	p := &Projection{Kind: req.Kind, Points: make([]Point, 0, len(vals)), Dropped: len(t.Rows) - len(vals)}
	for _, v := range vals {
		pt := Point{X: v[0], Y: v[1]}
		if len(v) == 3 {
			z := v[2]
			pt.Z = &z
		}
		p.Points = append(p.Points, pt)
	}
	return p
}

func scatter3D(t *table.Table, req Request) *Projection {
	vals, _ := numericRows(t, req.X, req.Y, req.Z)
	xs, ys, zs := axis(vals, 0), axis(vals, 1), axis(vals, 2)
	nx, ny, nz := Rescale(xs, Scatter3DSpan), Rescale(ys, Scatter3DSpan), Rescale(zs, Scatter3DSpan)
	colors := Palette(len(vals))

	p := &Projection{Kind: req.Kind, Points3D: make([]Point3D, len(vals)), Dropped: len(t.Rows) - len(vals)}
	for i := range vals {
		p.Points3D[i] = Point3D{
			X: nx[i], Y: ny[i], Z: nz[i],
			RawX: xs[i], RawY: ys[i], RawZ: zs[i],
			Color: colors[i].Hex,
		}
	}
	return p
}

func bar3D(t *table.Table, req Request) *Projection {
	cols := []string{req.Y}
	if req.Z != "" {
		cols = append(cols, req.Z)
	}
	vals, kept := numericRows(t, cols...)
	heights := Rescale(axis(vals, 0), BarHeightSpan)
	var depths []float64
	if req.Z != "" {
		depths = Rescale(axis(vals, 1), BarDepthSpan)
	}
	positions := Spread(len(vals), BarPositionSpan)
	colors := Palette(len(vals))

	xi, _ := t.ColumnIndex(req.X)
	p := &Projection{Kind: req.Kind, Bars: make([]Bar3D, len(vals)), Dropped: len(t.Rows) - len(vals)}
	for i, r := range kept {
		b := Bar3D{
			Label:  t.Rows[r][xi].String(),
			Value:  vals[i][0],
			Height: heights[i],
			X:      positions[i],
			Color:  colors[i].Hex,
		}
		if depths != nil {
			b.Z = depths[i]
		}
		p.Bars[i] = b
	}
	return p
}

func pie3D(t *table.Table, req Request) *Projection {
	vals, kept := numericRows(t, req.Y)
	angles := Angles(axis(vals, 0))
	colors := Palette(len(vals))

	xi, _ := t.ColumnIndex(req.X)
	p := &Projection{Kind: req.Kind, Slices: make([]Slice, len(vals)), Dropped: len(t.Rows) - len(vals)}
	start := 0.0
	for i, r := range kept {
		p.Slices[i] = Slice{
			Label:      t.Rows[r][xi].String(),
			Value:      vals[i][0],
			StartAngle: start,
			Angle:      angles[i],
			Color:      colors[i].Hex,
		}
		start += angles[i]
	}
	return p
}

func axis(vals [][]float64, i int) []float64 {
	out := make([]float64, len(vals))
	for r, v := range vals {
		out[r] = v[i]
	}
	return out
}
