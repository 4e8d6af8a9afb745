// Package table holds the normalized, rectangular form of an uploaded
// spreadsheet: ordered column names and positional rows of typed cells.
package table

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Row is positional: cell i belongs to column i of the owning table.
type Row []Cell

// IsBlank reports whether every cell of the row is empty.
func (r Row) IsBlank() bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// MarshalJSON writes the row as a positional array.
func (r Row) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Cell(r))
}

// Table is a NormalizedTable. Columns are unique and non-empty for any
// table produced by the normalizer; every row has len(Columns) cells.
type Table struct {
	Columns []string
	Rows    []Row

	index map[string]int
}

// New creates a table with the given columns and rows. Rows shorter than
// the column list are padded with empty cells; longer rows are cut.
func New(columns []string, rows []Row) *Table {
	t := &Table{Columns: columns, Rows: make([]Row, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, fit(r, len(columns)))
	}
	return t
}

func fit(r Row, width int) Row {
	if len(r) == width {
		return r
	}
	out := make(Row, width)
	copy(out, r)
	return out
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	if t.index == nil || len(t.index) != len(t.Columns) {
		t.index = make(map[string]int, len(t.Columns))
		for i, c := range t.Columns {
			if _, dup := t.index[c]; !dup {
				t.index[c] = i
			}
		}
	}
	i, ok := t.index[name]
	return i, ok
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// Cell returns the value of column name in row i; unknown columns and
// out-of-range rows yield an empty cell.
func (t *Table) Cell(i int, name string) Cell {
	col, ok := t.ColumnIndex(name)
	if !ok || i < 0 || i >= len(t.Rows) || col >= len(t.Rows[i]) {
		return Cell{}
	}
	return t.Rows[i][col]
}

// Column returns every value of the named column in row order.
func (t *Table) Column(name string) ([]Cell, bool) {
	col, ok := t.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	out := make([]Cell, len(t.Rows))
	for i, r := range t.Rows {
		if col < len(r) {
			out[i] = r[col]
		}
	}
	return out, true
}

// Head returns a table sharing the columns and the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Validate checks the structural invariants of a normalized table.
func (t *Table) Validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("table has no columns")
	}
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("duplicate column %q", c)
		}
		seen[c] = struct{}{}
	}
	for i, r := range t.Rows {
		if len(r) != len(t.Columns) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(r), len(t.Columns))
		}
	}
	return nil
}

// Equal reports structural equality of two tables.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.Columns) != len(o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		if len(t.Rows[i]) != len(o.Rows[i]) {
			return false
		}
		for j := range t.Rows[i] {
			if !t.Rows[i][j].Equal(o.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// MarshalJSON emits {"columns":[...],"rows":[{...}]} with row objects
// keyed by column name in column order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	cols, err := json.Marshal(t.Columns)
	if err != nil {
		return nil, err
	}
	if t.Columns == nil {
		cols = []byte("[]")
	}
	buf.WriteString(`{"columns":`)
	buf.Write(cols)
	buf.WriteString(`,"rows":`)
	if err := WriteRowObjects(&buf, t.Columns, t.Rows); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteRowObjects writes rows as a JSON array of objects keyed by column.
func WriteRowObjects(buf *bytes.Buffer, columns []string, rows []Row) error {
	keys := make([][]byte, len(columns))
	for i, c := range columns {
		k, err := json.Marshal(c)
		if err != nil {
			return err
		}
		keys[i] = k
	}
	buf.WriteByte('[')
	for i, r := range rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, k := range keys {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.Write(k)
			buf.WriteByte(':')
			var cell Cell
			if j < len(r) {
				cell = r[j]
			}
			v, err := cell.MarshalJSON()
			if err != nil {
				return err
			}
			buf.Write(v)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return nil
}

// UnmarshalJSON accepts rows either as objects keyed by column name or as
// positional arrays.
func (t *Table) UnmarshalJSON(data []byte) error {
	var raw struct {
		Columns []string          `json:"columns"`
		Rows    []json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rows := make([]Row, 0, len(raw.Rows))
	for i, msg := range raw.Rows {
		msg = bytes.TrimSpace(msg)
		if len(msg) > 0 && msg[0] == '{' {
			var obj map[string]Cell
			if err := json.Unmarshal(msg, &obj); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			r := make(Row, len(raw.Columns))
			for j, c := range raw.Columns {
				r[j] = obj[c]
			}
			rows = append(rows, r)
			continue
		}
		var r Row
		if err := json.Unmarshal(msg, &r); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		rows = append(rows, r)
	}
	*t = *New(raw.Columns, rows)
	return nil
}
