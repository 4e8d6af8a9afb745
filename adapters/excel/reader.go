// Package excel turns uploaded spreadsheet bytes into a normalized table.
// It reads Office Open XML workbooks, legacy BIFF workbooks and CSV text;
// only the first sheet of a workbook is considered.
package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"excelytics/domain/table"
	"excelytics/internal/errors"
	"excelytics/internal/logging"

	"github.com/xuri/excelize/v2"
	"github.com/yamitzky/xlrd-go/xlrd"
)

// Format identifies the container of an upload.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

var (
	zipMagic  = []byte{'P', 'K', 0x03, 0x04}
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
)

// DetectFormat inspects the leading bytes of data.
func DetectFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(data, ole2Magic):
		return FormatXLS
	default:
		return FormatCSV
	}
}

// Normalize parses data and returns the first sheet as a rectangular table.
// A file with no header cells or no non-empty data rows is a parse error.
func Normalize(data []byte) (*table.Table, error) {
	log := logging.Component("normalizer")
	start := time.Now()

	format := DetectFormat(data)
	var (
		rows [][]table.Cell
		err  error
	)
	switch format {
	case FormatXLSX:
		rows, err = readXLSX(data)
	case FormatXLS:
		rows, err = readXLS(data)
	default:
		rows, err = readCSV(data)
	}
	if err != nil {
		return nil, errors.ParseError(fmt.Sprintf("cannot read %s file", format), err)
	}

	t, err := processRows(rows)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("format", string(format)).
		Int("columns", len(t.Columns)).
		Int("rows", len(t.Rows)).
		Dur("elapsed", time.Since(start)).
		Msg("sheet normalized")
	return t, nil
}

func readXLSX(data []byte) ([][]table.Cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return parseStrings(raw), nil
}

func readXLS(data []byte) (rows [][]table.Cell, err error) {
	// The BIFF decoder can panic on truncated streams.
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("corrupt workbook: %v", r)
		}
	}()
	book, err := xlrd.OpenWorkbook("", &xlrd.OpenWorkbookOptions{FileContents: data})
	if err != nil {
		return nil, err
	}
	if book.NSheets == 0 {
		return nil, nil
	}
	sheet, err := book.SheetByIndex(0)
	if err != nil {
		return nil, err
	}
	rows = make([][]table.Cell, sheet.NRows)
	for r := 0; r < sheet.NRows; r++ {
		row := make([]table.Cell, sheet.NCols)
		for c := 0; c < sheet.NCols; c++ {
			row[c] = xlsCell(sheet.CellType(r, c), sheet.CellValue(r, c))
		}
		rows[r] = row
	}
	return rows, nil
}

func xlsCell(kind int, value interface{}) table.Cell {
	switch kind {
	case xlrd.XL_CELL_NUMBER:
		switch v := value.(type) {
		case float64:
			return table.Number(v, "")
		case int:
			return table.Number(float64(v), "")
		}
		return table.Parse(fmt.Sprint(value))
	case xlrd.XL_CELL_BOOLEAN:
		switch v := value.(type) {
		case bool:
			return table.Text(boolText(v))
		case int:
			return table.Text(boolText(v != 0))
		}
	case xlrd.XL_CELL_ERROR:
		if code, ok := value.(byte); ok {
			if text, ok := xlrd.ErrorTextFromCode[code]; ok {
				return table.Text(text)
			}
		}
		return table.Text("#ERROR")
	case xlrd.XL_CELL_EMPTY, xlrd.XL_CELL_BLANK:
		return table.Empty()
	case xlrd.XL_CELL_TEXT:
		if s, ok := value.(string); ok {
			return table.Text(strings.TrimSpace(s))
		}
	}
	if value == nil {
		return table.Empty()
	}
	return table.Parse(fmt.Sprint(value))
}

func boolText(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func readCSV(data []byte) ([][]table.Cell, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	raw, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return parseStrings(raw), nil
}

func parseStrings(raw [][]string) [][]table.Cell {
	rows := make([][]table.Cell, len(raw))
	for i, r := range raw {
		row := make([]table.Cell, len(r))
		for j, v := range r {
			row[j] = table.Parse(v)
		}
		rows[i] = row
	}
	return rows
}

// processRows takes the first row as the header and zips every following
// row to it by position.
func processRows(rows [][]table.Cell) (*table.Table, error) {
	if len(rows) == 0 {
		return nil, errors.ParseError("empty", nil)
	}
	header := rows[0]
	for len(header) > 0 && header[len(header)-1].IsEmpty() {
		header = header[:len(header)-1]
	}
	if len(header) == 0 {
		return nil, errors.ParseError("empty", nil)
	}
	columns := HeaderNames(header)

	data := make([]table.Row, 0, len(rows)-1)
	for _, r := range rows[1:] {
		row := make(table.Row, len(columns))
		copy(row, r)
		if row.IsBlank() {
			continue
		}
		data = append(data, row)
	}
	if len(data) == 0 {
		return nil, errors.ParseError("empty", nil)
	}
	return table.New(columns, data), nil
}

// HeaderNames derives unique column names from header cells. Blank
// headers become __EMPTY, __EMPTY_1, ...; a repeated name h becomes h_1,
// h_2, ... in order of appearance.
func HeaderNames(header []table.Cell) []string {
	names := make([]string, len(header))
	used := make(map[string]struct{}, len(header))
	counts := make(map[string]int, len(header))
	for i, cell := range header {
		base := cell.String()
		if cell.IsEmpty() {
			base = "__EMPTY"
		}
		name := base
		for {
			if _, taken := used[name]; !taken {
				break
			}
			counts[base]++
			name = fmt.Sprintf("%s_%d", base, counts[base])
		}
		used[name] = struct{}{}
		names[i] = name
	}
	return names
}
