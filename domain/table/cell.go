package table

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Kind discriminates the value held by a Cell.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindNumber
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "empty"
	}
}

// Cell is one spreadsheet value: a number, a piece of text, or nothing.
// The zero value is an empty cell.
type Cell struct {
	kind Kind
	num  float64
	text string
}

// Empty returns an empty cell.
func Empty() Cell { return Cell{} }

// Number returns a numeric cell. raw is the source spelling used for
// display; when blank the number is formatted.
func Number(v float64, raw string) Cell {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = formatNumber(v)
	}
	return Cell{kind: KindNumber, num: v, text: raw}
}

// Text returns a text cell. Blank text yields an empty cell.
func Text(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{kind: KindText, text: s}
}

// Parse classifies a raw spreadsheet string. Surrounding whitespace is
// removed; finite decimal numbers become Number cells.
func Parse(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Cell{}
	}
	if v, ok := parseNumber(s); ok {
		return Cell{kind: KindNumber, num: v, text: s}
	}
	return Cell{kind: KindText, text: s}
}

func parseNumber(s string) (float64, bool) {
	// ParseFloat also accepts "Inf", "NaN" and hex floats, none of which a
	// spreadsheet user means as a number.
	c := s[0]
	if !(c >= '0' && c <= '9') && c != '-' && c != '+' && c != '.' {
		return 0, false
	}
	if strings.ContainsAny(s, "xXpP_") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Kind reports the kind of value held.
func (c Cell) Kind() Kind { return c.kind }

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool { return c.kind == KindEmpty }

// Float returns the numeric value and whether the cell is numeric.
func (c Cell) Float() (float64, bool) {
	if c.kind != KindNumber {
		return 0, false
	}
	return c.num, true
}

// String returns the display text of the cell; empty cells are "".
func (c Cell) String() string {
	return c.text
}

// Equal reports structural equality.
func (c Cell) Equal(o Cell) bool {
	if c.kind != o.kind {
		return false
	}
	if c.kind == KindNumber {
		return c.num == o.num
	}
	return c.text == o.text
}

// MarshalJSON writes numbers as JSON numbers, text as strings and empty
// cells as "".
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindNumber:
		return []byte(strconv.FormatFloat(c.num, 'g', -1, 64)), nil
	case KindText:
		return json.Marshal(c.text)
	default:
		return []byte(`""`), nil
	}
}

// UnmarshalJSON accepts numbers, strings, booleans and null.
func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*c = Cell{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Text(s)
	case bytes.Equal(data, []byte("true")):
		*c = Text("TRUE")
	case bytes.Equal(data, []byte("false")):
		*c = Text("FALSE")
	default:
		v, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return err
		}
		*c = Number(v, "")
	}
	return nil
}

// formatNumber renders v the way spreadsheet front ends print numbers:
// plain decimal notation below 1e21, exponent form above.
func formatNumber(v float64) string {
	if math.Abs(v) < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
