package table

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind is the declared kind of a cell in the caller's row template.
type Kind int

const (
	KindString Kind = iota
	KindNumeric
)

func (k Kind) String() string {
	if k == KindNumeric {
		return "numeric"
	}
	return "string"
}

// Value is a single typed cell.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
}

func Str(s string) Value  { return Value{Kind: KindString, Str: s} }
func Num(f float64) Value { return Value{Kind: KindNumeric, Num: f} }

// Text renders the cell as its declared-type string form.
func (v Value) Text() string {
	if v.Kind == KindNumeric {
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	}
	return v.Str
}

var ErrDecode = errors.New("request rows do not match the declared template")

func newErrDecode(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDecode, fmt.Sprintf(format, args...))
}

// Table is an ordered table of typed rows with named columns.
// Row order is insertion order; the first row may carry shared parameters.
type Table struct {
	headers []string
	index   map[string]int
	rows    [][]Value
}

// Decode interprets host rows against a declared row template and column
// headers. Every row must have the template's arity, and every cell must
// match the declared kind. Cells arrive as string, float64, int or int64
// (the JSON decoder hands numbers over as float64).
func Decode(rows [][]any, template []Kind, headers []string) (*Table, error) {
	if len(template) != len(headers) {
		return nil, newErrDecode("template declares %d cells but %d column headers given", len(template), len(headers))
	}

	t := &Table{
		headers: append([]string(nil), headers...),
		index:   make(map[string]int, len(headers)),
		rows:    make([][]Value, 0, len(rows)),
	}
	for i, h := range t.headers {
		t.index[h] = i
	}

	for i, row := range rows {
		if len(row) != len(template) {
			return nil, newErrDecode("row %d has %d cells, template declares %d", i, len(row), len(template))
		}
		cells := make([]Value, len(row))
		for j, cell := range row {
			v, err := coerceCell(cell, template[j])
			if err != nil {
				return nil, newErrDecode("row %d column %q: %v", i, headers[j], err)
			}
			cells[j] = v
		}
		t.rows = append(t.rows, cells)
	}
	return t, nil
}

func coerceCell(cell any, kind Kind) (Value, error) {
	switch kind {
	case KindString:
		s, ok := cell.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected string, got %T", cell)
		}
		return Str(s), nil
	case KindNumeric:
		switch n := cell.(type) {
		case float64:
			return Num(n), nil
		case int:
			return Num(float64(n)), nil
		case int64:
			return Num(float64(n)), nil
		default:
			return Value{}, fmt.Errorf("expected numeric, got %T", cell)
		}
	}
	return Value{}, fmt.Errorf("unknown cell kind %d", kind)
}

func (t *Table) NumRows() int      { return len(t.rows) }
func (t *Table) Headers() []string { return append([]string(nil), t.headers...) }

// Cell returns the value at row i for the named column.
func (t *Table) Cell(i int, column string) (Value, bool) {
	j, ok := t.index[column]
	if !ok || i < 0 || i >= len(t.rows) {
		return Value{}, false
	}
	return t.rows[i][j], true
}

// Column returns all values of the named column in row order.
func (t *Table) Column(column string) ([]Value, bool) {
	j, ok := t.index[column]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out, true
}

// DropColumn removes the named column from every row. Dropping a column
// that does not exist is a no-op.
func (t *Table) DropColumn(column string) {
	j, ok := t.index[column]
	if !ok {
		return
	}
	t.headers = append(t.headers[:j], t.headers[j+1:]...)
	for i, row := range t.rows {
		t.rows[i] = append(row[:j], row[j+1:]...)
	}
	t.index = make(map[string]int, len(t.headers))
	for i, h := range t.headers {
		t.index[h] = i
	}
}
