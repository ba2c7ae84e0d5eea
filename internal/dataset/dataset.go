package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Canonical column names produced by the cleaning pipeline.
const (
	ColMonth   = "month"
	ColRegion  = "region"
	ColCountry = "country"
	ColValue   = "value"
)

// Kind identifies the type held by a Value.
type Kind int

const (
	KindMissing Kind = iota
	KindText
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "numeric"
	case KindDate:
		return "date"
	default:
		return "missing"
	}
}

// Value is a single cell. The zero Value is missing.
type Value struct {
	kind Kind
	text string
	num  float64
	date time.Time
}

// Missing returns the missing marker.
func Missing() Value { return Value{} }

// Text wraps a string cell.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number wraps a numeric cell. NaN and infinities collapse to Missing so that
// numeric columns only ever hold finite numbers.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing()
	}
	return Value{kind: KindNumber, num: f}
}

// Date wraps a calendar date, truncated to midnight UTC.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }
func (v Value) Str() string { return v.text }
func (v Value) Float() float64 { return v.num }
func (v Value) Time() time.Time { return v.date }
func (v Value) Equal(o Value) bool { return v.kind == o.kind && v.text == o.text && v.num == o.num && v.date.Equal(o.date) }

// String renders the cell for tabular output: dates as YYYY-MM, numbers in
// plain decimal form, missing as NA.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDate:
		return v.date.Format("2006-01")
	default:
		return "NA"
	}
}

// ErrColumnNotFound is returned when a named column does not exist.
var ErrColumnNotFound = errors.New("column not found")

// Dataset is an immutable, ordered table. Every transformation returns a new
// Dataset; the receiver is never modified.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New builds a dataset, copying the provided slices. Column names must be
// unique and every row must have exactly len(columns) cells.
func New(columns []string, rows [][]Value) (*Dataset, error) {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := idx[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		idx[c] = i
	}
	out := make([][]Value, len(rows))
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("row %d: got %d cells, want %d", i+1, len(r), len(columns))
		}
		out[i] = append([]Value(nil), r...)
	}
	return &Dataset{columns: append([]string(nil), columns...), index: idx, rows: out}, nil
}

// Columns returns a copy of the column names in order.
func (d *Dataset) Columns() []string { return append([]string(nil), d.columns...) }

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Index returns the position of a column and whether it exists.
func (d *Dataset) Index(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Has reports whether the column exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Value returns the cell at row i for the named column. Unknown columns
// yield Missing.
func (d *Dataset) Value(i int, name string) Value {
	j, ok := d.index[name]
	if !ok {
		return Missing()
	}
	return d.rows[i][j]
}

// Row returns a copy of row i.
func (d *Dataset) Row(i int) []Value { return append([]Value(nil), d.rows[i]...) }

// ColumnValues returns a copy of every cell in the named column.
func (d *Dataset) ColumnValues(name string) ([]Value, error) {
	j, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	out := make([]Value, len(d.rows))
	for i, r := range d.rows {
		out[i] = r[j]
	}
	return out, nil
}

// WithColumn returns a copy with the named column's cells replaced. vals must
// have one entry per row.
func (d *Dataset) WithColumn(name string, vals []Value) (*Dataset, error) {
	j, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	if len(vals) != len(d.rows) {
		return nil, fmt.Errorf("column %s: got %d values, want %d", name, len(vals), len(d.rows))
	}
	rows := make([][]Value, len(d.rows))
	for i, r := range d.rows {
		nr := append([]Value(nil), r...)
		nr[j] = vals[i]
		rows[i] = nr
	}
	return &Dataset{columns: d.Columns(), index: copyIndex(d.index), rows: rows}, nil
}

// Rename maps column names old->new. Sources that are absent are ignored.
// A rename that would collide with an existing column is an error.
func (d *Dataset) Rename(mapping map[string]string) (*Dataset, error) {
	cols := d.Columns()
	for i, c := range cols {
		if to, ok := mapping[c]; ok {
			cols[i] = to
		}
	}
	out, err := New(cols, nil)
	if err != nil {
		return nil, fmt.Errorf("rename: %w", err)
	}
	out.rows = d.cloneRows()
	return out, nil
}

// Select projects the dataset onto the named columns, in the given order.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	pos := make([]int, len(names))
	for i, n := range names {
		j, ok := d.index[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, n)
		}
		pos[i] = j
	}
	rows := make([][]Value, len(d.rows))
	for i, r := range d.rows {
		nr := make([]Value, len(pos))
		for k, j := range pos {
			nr[k] = r[j]
		}
		rows[i] = nr
	}
	return New(names, rows)
}

// Filter keeps rows for which keep returns true, preserving order.
func (d *Dataset) Filter(keep func(i int) bool) *Dataset {
	var rows [][]Value
	for i, r := range d.rows {
		if keep(i) {
			rows = append(rows, append([]Value(nil), r...))
		}
	}
	return &Dataset{columns: d.Columns(), index: copyIndex(d.index), rows: rows}
}

// Equal reports whether two datasets have the same columns and cells.
func (d *Dataset) Equal(o *Dataset) bool {
	if d == nil || o == nil {
		return d == o
	}
	if strings.Join(d.columns, "\x00") != strings.Join(o.columns, "\x00") || len(d.rows) != len(o.rows) {
		return false
	}
	for i := range d.rows {
		for j := range d.rows[i] {
			if !d.rows[i][j].Equal(o.rows[i][j]) {
				return false
			}
		}
	}
	return true
}

func (d *Dataset) cloneRows() [][]Value {
	rows := make([][]Value, len(d.rows))
	for i, r := range d.rows {
		rows[i] = append([]Value(nil), r...)
	}
	return rows
}

func copyIndex(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
