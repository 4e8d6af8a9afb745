package testkit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// OrdersHeader is the header row every generated orders sheet starts with.
var OrdersHeader = []string{"OrderID", "Region", "Product", "Units", "Revenue", "Returned"}

// OrdersConfig configures the synthetic orders generator
type OrdersConfig struct {
	Rows       int
	Seed       int64
	ReturnRate float64
	// BlankEvery inserts a fully blank row after every n data rows when > 0.
	BlankEvery int
}

// DefaultOrdersConfig returns a small deterministic sheet
func DefaultOrdersConfig() OrdersConfig {
	return OrdersConfig{Rows: 25, Seed: 42, ReturnRate: 0.08}
}

// OrdersGenerator produces realistic order spreadsheets for tests
type OrdersGenerator struct {
	config OrdersConfig
}

var (
	regions  = []string{"North", "South", "East", "West"}
	products = []struct {
		name  string
		price float64
	}{
		{"Widget", 4.5},
		{"Gadget", 12.0},
		{"Doohickey", 7.25},
		{"Gizmo", 19.99},
	}
)

// NewOrdersGenerator creates a generator seeded from config
func NewOrdersGenerator(config OrdersConfig) *OrdersGenerator {
	return &OrdersGenerator{config: config}
}

// Records returns the header followed by the generated rows. Blank rows are
// all-empty records. Every call yields the same rows for the same seed.
func (g *OrdersGenerator) Records() [][]string {
	rng := rand.New(rand.NewSource(g.config.Seed))
	records := [][]string{append([]string(nil), OrdersHeader...)}
	for i := 0; i < g.config.Rows; i++ {
		p := products[rng.Intn(len(products))]
		units := 1 + rng.Intn(20)
		revenue := math.Round(float64(units)*p.price*100) / 100
		returned := "no"
		if rng.Float64() < g.config.ReturnRate {
			returned = "yes"
		}
		records = append(records, []string{
			fmt.Sprintf("ORD-%04d", i+1),
			regions[rng.Intn(len(regions))],
			p.name,
			strconv.Itoa(units),
			strconv.FormatFloat(revenue, 'f', -1, 64),
			returned,
		})
		if g.config.BlankEvery > 0 && (i+1)%g.config.BlankEvery == 0 {
			records = append(records, make([]string, len(OrdersHeader)))
		}
	}
	return records
}

// CSV renders the generated records as comma separated text
func (g *OrdersGenerator) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(g.Records()); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// XLSX renders the generated records into the first sheet of a workbook.
// Units and Revenue are written as numeric cells.
func (g *OrdersGenerator) XLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, record := range g.Records() {
		row := make([]interface{}, len(record))
		for j, v := range record {
			row[j] = v
			if i == 0 || v == "" {
				continue
			}
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				row[j] = n
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
