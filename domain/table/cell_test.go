package table

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		kind    Kind
		num     float64
		display string
	}{
		{"blank", "", KindEmpty, 0, ""},
		{"whitespace", "  \t ", KindEmpty, 0, ""},
		{"integer", "42", KindNumber, 42, "42"},
		{"padded decimal", " 3.50 ", KindNumber, 3.5, "3.50"},
		{"negative", "-7", KindNumber, -7, "-7"},
		{"leading dot", ".5", KindNumber, 0.5, ".5"},
		{"exponent", "1e3", KindNumber, 1000, "1e3"},
		{"text", "North", KindText, 0, "North"},
		{"infinity is text", "Inf", KindText, 0, "Inf"},
		{"signed infinity is text", "+Inf", KindText, 0, "+Inf"},
		{"nan is text", "NaN", KindText, 0, "NaN"},
		{"hex is text", "0x1F", KindText, 0, "0x1F"},
		{"underscore is text", "1_000", KindText, 0, "1_000"},
		{"mixed is text", "12 apples", KindText, 0, "12 apples"},
		{"lone minus", "-", KindText, 0, "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Parse(tt.raw)
			assert.Equal(t, tt.kind, c.Kind())
			assert.Equal(t, tt.display, c.String())
			if tt.kind == KindNumber {
				v, ok := c.Float()
				require.True(t, ok)
				assert.Equal(t, tt.num, v)
			} else {
				_, ok := c.Float()
				assert.False(t, ok)
			}
		})
	}
}

func TestNumberFormatting(t *testing.T) {
	assert.Equal(t, "1.5", Number(1.5, "").String())
	assert.Equal(t, "100000", Number(1e5, "").String())
	assert.Equal(t, "1e+21", Number(1e21, "").String())
	assert.Equal(t, "1,500", Number(1500, "1,500").String())
}

func TestTextBlankIsEmpty(t *testing.T) {
	assert.True(t, Text("   ").IsEmpty())
	assert.True(t, Cell{}.IsEmpty())
	assert.Equal(t, KindText, Text("x").Kind())
}

func TestCellJSON(t *testing.T) {
	out, err := json.Marshal([]Cell{Number(2, ""), Text("a\"b"), Empty()})
	require.NoError(t, err)
	assert.JSONEq(t, `[2, "a\"b", ""]`, string(out))

	var back []Cell
	require.NoError(t, json.Unmarshal([]byte(`[2.5, "x", "", null, true]`), &back))
	require.Len(t, back, 5)
	v, ok := back[0].Float()
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)
	assert.Equal(t, "x", back[1].String())
	assert.True(t, back[2].IsEmpty())
	assert.True(t, back[3].IsEmpty())
	assert.Equal(t, "TRUE", back[4].String())
}

func TestCellEqual(t *testing.T) {
	assert.True(t, Number(1, "1.0").Equal(Number(1, "")))
	assert.False(t, Number(1, "").Equal(Text("1")))
	assert.False(t, Number(math.NaN(), "").Equal(Number(math.NaN(), "")))
}
