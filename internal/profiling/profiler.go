// Package profiling computes per-column summaries of a table sample. The
// summaries feed the insight prompt.
package profiling

import (
	"math"
	"sort"

	"excelytics/domain/chart"
	"excelytics/domain/table"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// ColumnType is the inferred type of a column.
type ColumnType string

const (
	TypeNumeric ColumnType = "numeric"
	TypeText    ColumnType = "text"
	TypeMixed   ColumnType = "mixed"
	TypeEmpty   ColumnType = "empty"
)

// Summary holds numeric summary statistics.
type Summary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// ColumnProfile describes one column.
type ColumnProfile struct {
	Name      string       `json:"name"`
	Type      ColumnType   `json:"type"`
	NonEmpty  int          `json:"non_empty"`
	Distinct  int          `json:"distinct"`
	TopValues []ValueCount `json:"top_values,omitempty"`
	Summary   *Summary     `json:"summary,omitempty"`
}

// ValueCount is a value and how often it occurs.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Correlation is the Pearson coefficient of two numeric columns.
type Correlation struct {
	A, B string
	R    float64
}

// Profile describes a table sample.
type Profile struct {
	Rows         int
	Columns      []ColumnProfile
	Correlations []Correlation
}

// DataProfiler profiles tables.
type DataProfiler struct {
	// TopN is how many frequent values to keep for text columns.
	TopN int
	// MaxCorrelated caps how many numeric columns enter the correlation matrix.
	MaxCorrelated int
}

// NewDataProfiler creates a profiler with default limits.
func NewDataProfiler() *DataProfiler {
	return &DataProfiler{TopN: 5, MaxCorrelated: 6}
}

// ProfileTable profiles every column of t and correlates the first numeric
// columns pairwise over rows where both are numeric.
func (dp *DataProfiler) ProfileTable(t *table.Table) Profile {
	p := Profile{Rows: t.Len(), Columns: make([]ColumnProfile, 0, len(t.Columns))}
	var numeric []string
	for _, name := range t.Columns {
		cells, _ := t.Column(name)
		cp := dp.ProfileColumn(name, cells)
		p.Columns = append(p.Columns, cp)
		if cp.Type == TypeNumeric && cp.NonEmpty >= 2 {
			numeric = append(numeric, name)
		}
	}
	if len(numeric) > dp.MaxCorrelated {
		numeric = numeric[:dp.MaxCorrelated]
	}
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			if r, ok := correlate(t, numeric[i], numeric[j]); ok {
				p.Correlations = append(p.Correlations, Correlation{A: numeric[i], B: numeric[j], R: r})
			}
		}
	}
	return p
}

// ProfileColumn summarizes one column's cells.
func (dp *DataProfiler) ProfileColumn(name string, cells []table.Cell) ColumnProfile {
	cp := ColumnProfile{Name: name}
	counts := make(map[string]int)
	var nums []float64
	texts := 0
	for _, c := range cells {
		if c.IsEmpty() {
			continue
		}
		cp.NonEmpty++
		counts[c.String()]++
		if v := chart.AsNumber(c); !math.IsNaN(v) {
			nums = append(nums, v)
		} else {
			texts++
		}
	}
	cp.Distinct = len(counts)

	switch {
	case cp.NonEmpty == 0:
		cp.Type = TypeEmpty
	case texts == 0:
		cp.Type = TypeNumeric
	case len(nums) == 0:
		cp.Type = TypeText
	default:
		cp.Type = TypeMixed
	}

	if len(nums) > 0 {
		cp.Summary = summarize(nums)
	}
	if cp.Type != TypeNumeric {
		cp.TopValues = topValues(counts, dp.TopN)
	}
	return cp
}

func summarize(data []float64) *Summary {
	s := &Summary{}
	s.Mean, _ = stats.Mean(data)
	s.Median, _ = stats.Median(data)
	s.Min, _ = stats.Min(data)
	s.Max, _ = stats.Max(data)
	if len(data) > 1 {
		s.StdDev, _ = stats.StandardDeviationSample(data)
	}
	s.Q25, _ = stats.Percentile(data, 25)
	s.Q75, _ = stats.Percentile(data, 75)
	return s
}

func topValues(counts map[string]int, n int) []ValueCount {
	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func correlate(t *table.Table, a, b string) (float64, bool) {
	as, _ := t.Column(a)
	bs, _ := t.Column(b)
	var xs, ys []float64
	for i := range as {
		x, y := chart.AsNumber(as[i]), chart.AsNumber(bs[i])
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < 3 {
		return 0, false
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0, false
	}
	return r, true
}
