package table

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	return New([]string{"Region", "Q1", "Q2"}, []Row{
		{Text("North"), Number(10, ""), Number(12, "")},
		{Text("South"), Number(7, "")},
		{Text("East"), Text("n/a"), Number(3, ""), Text("overflow")},
	})
}

func TestNewFitsRowsToColumns(t *testing.T) {
	tbl := sampleTable()
	require.NoError(t, tbl.Validate())
	assert.True(t, tbl.Rows[1][2].IsEmpty())
	assert.Len(t, tbl.Rows[2], 3)
}

func TestColumnLookup(t *testing.T) {
	tbl := sampleTable()

	i, ok := tbl.ColumnIndex("Q2")
	require.True(t, ok)
	assert.Equal(t, 2, i)
	assert.False(t, tbl.HasColumn("Q3"))

	col, ok := tbl.Column("Region")
	require.True(t, ok)
	assert.Equal(t, "South", col[1].String())

	assert.Equal(t, "n/a", tbl.Cell(2, "Q1").String())
	assert.True(t, tbl.Cell(9, "Q1").IsEmpty())
	assert.True(t, tbl.Cell(0, "missing").IsEmpty())
}

func TestHead(t *testing.T) {
	tbl := sampleTable()
	assert.Equal(t, 2, tbl.Head(2).Len())
	assert.Equal(t, 3, tbl.Head(50).Len())
	assert.Equal(t, 0, tbl.Head(0).Len())
	assert.Equal(t, tbl.Columns, tbl.Head(1).Columns)
}

func TestValidate(t *testing.T) {
	assert.Error(t, (&Table{}).Validate())
	assert.Error(t, (&Table{Columns: []string{"a", "a"}}).Validate())
	assert.Error(t, (&Table{Columns: []string{"a"}, Rows: []Row{{Empty(), Empty()}}}).Validate())
	assert.NoError(t, (&Table{Columns: []string{"a"}, Rows: []Row{{Empty()}}}).Validate())
}

func TestRowIsBlank(t *testing.T) {
	assert.True(t, Row{Empty(), Text(" ")}.IsBlank())
	assert.False(t, Row{Empty(), Number(0, "")}.IsBlank())
}

func TestTableJSONKeepsColumnOrder(t *testing.T) {
	tbl := New([]string{"z", "a"}, []Row{{Number(1, ""), Text("x")}})
	out, err := json.Marshal(tbl)
	require.NoError(t, err)
	assert.Equal(t, `{"columns":["z","a"],"rows":[{"z":1,"a":"x"}]}`, string(out))
}

func TestTableUnmarshalAcceptsBothRowShapes(t *testing.T) {
	var fromObjects Table
	require.NoError(t, json.Unmarshal([]byte(`{"columns":["a","b"],"rows":[{"b":"y","a":1}]}`), &fromObjects))
	var fromArrays Table
	require.NoError(t, json.Unmarshal([]byte(`{"columns":["a","b"],"rows":[[1,"y"]]}`), &fromArrays))

	assert.True(t, fromObjects.Equal(&fromArrays))
	assert.Equal(t, "y", fromArrays.Cell(0, "b").String())
}
