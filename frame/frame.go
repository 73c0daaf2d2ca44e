// Package frame provides the raw tabular container consumed by the encoding
// pipeline: columns addressable by name, rows in a fixed order. Values are
// untyped; columns are coerced on demand by the consumer that knows the
// column's semantic type.
package frame

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Column is one raw column of values in row order.
type Column []interface{}

// Frame is a column-major table.
type Frame struct {
	names   []string
	columns map[string]Column
	rows    int
}

// New creates an empty frame.
func New() *Frame {
	return &Frame{columns: make(map[string]Column)}
}

// FromColumns creates a frame from named columns, preserving the given order.
// All columns must have the same length.
func FromColumns(names []string, columns map[string]Column) (*Frame, error) {
	f := New()
	for _, name := range names {
		col, ok := columns[name]
		if !ok {
			return nil, errors.Errorf("no column %s in column map", name)
		}
		if err := f.AddColumn(name, col); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// AddColumn appends a named column to the frame.
func (f *Frame) AddColumn(name string, col Column) error {
	if _, ok := f.columns[name]; ok {
		return errors.Errorf("frame already has a column named %s", name)
	}
	if len(f.names) > 0 && len(col) != f.rows {
		return errors.Errorf("column %s has %d rows, frame has %d", name, len(col), f.rows)
	}
	f.names = append(f.names, name)
	f.columns[name] = col
	f.rows = len(col)
	return nil
}

// Column returns the raw values of a named column in row order.
func (f *Frame) Column(name string) (Column, bool) {
	col, ok := f.columns[name]
	return col, ok
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	return f.names
}

// Rows returns the number of rows in the frame.
func (f *Frame) Rows() int {
	return f.rows
}

// Floats coerces the column to float64 values. Numeric strings are parsed;
// anything else fails.
func (c Column) Floats() ([]float64, error) {
	out := make([]float64, len(c))
	for i, v := range c {
		f, err := toFloat(v)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		out[i] = f
	}
	return out, nil
}

// Strings coerces the column to string values.
func (c Column) Strings() []string {
	out := make([]string, len(c))
	for i, v := range c {
		if s, ok := v.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprintf("%v", v)
	}
	return out
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(x, 64)
	}
	return 0, errors.Errorf("cannot coerce %T to float64", v)
}

// FloatColumn builds a column from float64 values.
func FloatColumn(values []float64) Column {
	col := make(Column, len(values))
	for i, v := range values {
		col[i] = v
	}
	return col
}

// StringColumn builds a column from string values.
func StringColumn(values []string) Column {
	col := make(Column, len(values))
	for i, v := range values {
		col[i] = v
	}
	return col
}
