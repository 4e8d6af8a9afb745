package testkit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestOrdersGeneratorDeterministic(t *testing.T) {
	a := NewOrdersGenerator(DefaultOrdersConfig()).Records()
	b := NewOrdersGenerator(DefaultOrdersConfig()).Records()
	assert.Equal(t, a, b)
	require.Len(t, a, 26)
	assert.Equal(t, OrdersHeader, a[0])
	assert.Equal(t, "ORD-0001", a[1][0])
}

func TestOrdersGeneratorBlankRows(t *testing.T) {
	records := NewOrdersGenerator(OrdersConfig{Rows: 4, Seed: 1, BlankEvery: 2}).Records()
	require.Len(t, records, 7)
	assert.Equal(t, make([]string, len(OrdersHeader)), records[3])
	assert.Equal(t, make([]string, len(OrdersHeader)), records[6])
}

func TestOrdersGeneratorXLSX(t *testing.T) {
	g := NewOrdersGenerator(OrdersConfig{Rows: 3, Seed: 7})
	data, err := g.XLSX()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, OrdersHeader, rows[0])
	assert.Equal(t, g.Records()[1][0], rows[1][0])
}

func TestOrdersGeneratorCSV(t *testing.T) {
	data, err := NewOrdersGenerator(OrdersConfig{Rows: 2, Seed: 3}).CSV()
	require.NoError(t, err)
	assert.Contains(t, string(data), "OrderID,Region,Product,Units,Revenue,Returned\n")
}
