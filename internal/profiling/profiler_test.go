package profiling

import (
	"testing"

	"excelytics/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func num(v float64) table.Cell { return table.Number(v, "") }

func TestProfileColumnNumeric(t *testing.T) {
	cp := NewDataProfiler().ProfileColumn("score", []table.Cell{num(1), num(2), num(3), num(4), table.Empty()})

	assert.Equal(t, TypeNumeric, cp.Type)
	assert.Equal(t, 4, cp.NonEmpty)
	require.NotNil(t, cp.Summary)
	assert.Equal(t, 2.5, cp.Summary.Mean)
	assert.Equal(t, 2.5, cp.Summary.Median)
	assert.Equal(t, 1.0, cp.Summary.Min)
	assert.Equal(t, 4.0, cp.Summary.Max)
	assert.InDelta(t, 1.29099, cp.Summary.StdDev, 1e-4)
	assert.Empty(t, cp.TopValues)
}

func TestProfileColumnText(t *testing.T) {
	cells := []table.Cell{table.Text("Sales"), table.Text("Ops"), table.Text("Sales"), table.Text("HR")}
	cp := NewDataProfiler().ProfileColumn("dept", cells)

	assert.Equal(t, TypeText, cp.Type)
	assert.Equal(t, 3, cp.Distinct)
	require.NotEmpty(t, cp.TopValues)
	assert.Equal(t, ValueCount{Value: "Sales", Count: 2}, cp.TopValues[0])
	assert.Nil(t, cp.Summary)
}

func TestProfileColumnMixedAndEmpty(t *testing.T) {
	dp := NewDataProfiler()
	assert.Equal(t, TypeMixed, dp.ProfileColumn("m", []table.Cell{num(1), table.Text("x")}).Type)
	assert.Equal(t, TypeEmpty, dp.ProfileColumn("e", []table.Cell{table.Empty()}).Type)
}

func TestProfileTableCorrelations(t *testing.T) {
	tbl := table.New([]string{"x", "y", "z", "label"}, []table.Row{
		{num(1), num(2), num(9), table.Text("a")},
		{num(2), num(4), num(7), table.Text("b")},
		{num(3), num(6), num(5), table.Text("c")},
		{num(4), num(8), num(3), table.Text("d")},
	})
	p := NewDataProfiler().ProfileTable(tbl)

	assert.Equal(t, 4, p.Rows)
	require.Len(t, p.Columns, 4)
	require.Len(t, p.Correlations, 3)
	assert.Equal(t, "x", p.Correlations[0].A)
	assert.Equal(t, "y", p.Correlations[0].B)
	assert.InDelta(t, 1.0, p.Correlations[0].R, 1e-9)
	assert.InDelta(t, -1.0, p.Correlations[1].R, 1e-9)
}

func TestProfileTableSkipsConstantColumns(t *testing.T) {
	tbl := table.New([]string{"x", "c"}, []table.Row{
		{num(1), num(5)}, {num(2), num(5)}, {num(3), num(5)},
	})
	p := NewDataProfiler().ProfileTable(tbl)
	assert.Empty(t, p.Correlations)
}
