package ai

import (
	"fmt"
	"math"
	"strings"

	"excelytics/internal/profiling"
)

// CompileProfileFragments turns a sample profile into short factual
// statements that anchor the model to the computed numbers.
func CompileProfileFragments(p profiling.Profile) []string {
	var out []string

	for _, c := range p.Correlations {
		strength := ""
		switch r := math.Abs(c.R); {
		case r >= 0.8:
			strength = "strong"
		case r >= 0.5:
			strength = "moderate"
		default:
			continue
		}
		direction := "positive"
		if c.R < 0 {
			direction = "negative"
		}
		out = append(out, fmt.Sprintf("CORRELATION: %q and %q show a %s %s correlation (r=%.2f).", c.A, c.B, strength, direction, c.R))
	}

	for _, c := range p.Columns {
		switch c.Type {
		case profiling.TypeMixed:
			out = append(out, fmt.Sprintf("QUALITY: %q mixes numbers and text.", c.Name))
		case profiling.TypeEmpty:
			out = append(out, fmt.Sprintf("QUALITY: %q is empty in the sample.", c.Name))
		}
		if p.Rows > 0 && c.Type != profiling.TypeEmpty && c.NonEmpty < p.Rows {
			out = append(out, fmt.Sprintf("QUALITY: %q is missing %d of %d values.", c.Name, p.Rows-c.NonEmpty, p.Rows))
		}
		if s := c.Summary; s != nil && c.Type == profiling.TypeNumeric {
			iqr := s.Q75 - s.Q25
			if iqr > 0 && (s.Max > s.Q75+3*iqr || s.Min < s.Q25-3*iqr) {
				out = append(out, fmt.Sprintf("OUTLIER: %q has extreme values (min %s, max %s).", c.Name, fmtNum(s.Min), fmtNum(s.Max)))
			}
		}
	}

	if len(out) == 0 {
		out = append(out, "No notable correlations or data quality issues were detected.")
	}
	return out
}

func describeColumns(p profiling.Profile) string {
	var b strings.Builder
	for _, c := range p.Columns {
		fmt.Fprintf(&b, "- %s (%s, %d non-empty, %d distinct)", c.Name, c.Type, c.NonEmpty, c.Distinct)
		if s := c.Summary; s != nil {
			fmt.Fprintf(&b, ": mean %s, median %s, stddev %s, min %s, max %s",
				fmtNum(s.Mean), fmtNum(s.Median), fmtNum(s.StdDev), fmtNum(s.Min), fmtNum(s.Max))
		}
		if len(c.TopValues) > 0 {
			vals := make([]string, len(c.TopValues))
			for i, v := range c.TopValues {
				vals[i] = fmt.Sprintf("%s (%d)", v.Value, v.Count)
			}
			fmt.Fprintf(&b, "; top values: %s", strings.Join(vals, ", "))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func fmtNum(v float64) string {
	return fmt.Sprintf("%.4g", v)
}
