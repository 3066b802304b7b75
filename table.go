// Copyright 2025 The DBQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dbqguard

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// DType is the nominal type of a table column.
type DType string

const (
	DTypeNumeric     DType = "numeric"
	DTypeCategorical DType = "categorical"
)

// Column describes a single table column.
type Column struct {
	Name string
	Type DType
}

// Row maps column names to cell values. A missing key reads as nil.
type Row map[string]any

// Table is an ordered, materialized set of rows with an ordered column list.
// Rules only read tables; every subset they produce is a copy.
type Table struct {
	columns []Column
	rows    []Row
}

// NewTable creates a table with declared columns.
func NewTable(columns []Column, rows []Row) *Table {
	return &Table{
		columns: slices.Clone(columns),
		rows:    rows,
	}
}

// NewTableFromRows creates a table whose column types are inferred from the data.
func NewTableFromRows(columnNames []string, rows []Row) *Table {
	columns := make([]Column, 0, len(columnNames))
	for _, name := range columnNames {
		values := make([]any, len(rows))
		for i, row := range rows {
			values[i] = row[name]
		}
		columns = append(columns, Column{Name: name, Type: InferDType(values)})
	}
	return &Table{columns: columns, rows: rows}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

func (t *Table) IsEmpty() bool {
	return t.Len() == 0
}

// Columns returns a copy of the column list.
func (t *Table) Columns() []Column {
	if t == nil {
		return nil
	}
	return slices.Clone(t.columns)
}

func (t *Table) ColumnNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

func (t *Table) Column(name string) (Column, bool) {
	if t == nil {
		return Column{}, false
	}
	for _, c := range t.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// RequireColumn returns the column or an ErrSchema error.
func (t *Table) RequireColumn(name string) (Column, error) {
	col, ok := t.Column(name)
	if !ok {
		return Column{}, fmt.Errorf("%w: column '%s' not found in table", ErrSchema, name)
	}
	return col, nil
}

// Values returns the cells of a column in row order.
func (t *Table) Values(name string) ([]any, error) {
	if _, err := t.RequireColumn(name); err != nil {
		return nil, err
	}
	values := make([]any, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[name]
	}
	return values, nil
}

// Row returns a copy of the i-th row.
func (t *Table) Row(i int) Row {
	return maps.Clone(t.rows[i])
}

// Rows returns copies of all rows.
func (t *Table) Rows() []Row {
	if t == nil {
		return nil
	}
	out := make([]Row, len(t.rows))
	for i, row := range t.rows {
		out[i] = maps.Clone(row)
	}
	return out
}

// Subset copies the rows at the given positions, in the given order.
func (t *Table) Subset(indices []int) *Table {
	rows := make([]Row, 0, len(indices))
	for _, idx := range indices {
		rows = append(rows, maps.Clone(t.rows[idx]))
	}
	return &Table{columns: t.Columns(), rows: rows}
}

// Filter copies the rows whose mask entry is true.
func (t *Table) Filter(mask []bool) (*Table, error) {
	if len(mask) != t.Len() {
		return nil, fmt.Errorf("mask length %d does not match table length %d", len(mask), t.Len())
	}
	var indices []int
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	return t.Subset(indices), nil
}

// Select projects the table onto the named columns.
func (t *Table) Select(names ...string) (*Table, error) {
	columns := make([]Column, 0, len(names))
	for _, name := range names {
		col, err := t.RequireColumn(name)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}

	rows := make([]Row, len(t.rows))
	for i, row := range t.rows {
		projected := make(Row, len(names))
		for _, name := range names {
			projected[name] = row[name]
		}
		rows[i] = projected
	}
	return &Table{columns: columns, rows: rows}, nil
}

// WithColumn returns a copy of the table with a constant column set on every row.
// An existing column of the same name is overwritten in place.
func (t *Table) WithColumn(name string, value any) *Table {
	out := &Table{columns: t.Columns(), rows: t.Rows()}
	for _, row := range out.rows {
		row[name] = value
	}

	dtype := InferDType([]any{value})
	for i, c := range out.columns {
		if c.Name == name {
			out.columns[i].Type = dtype
			return out
		}
	}
	out.columns = append(out.columns, Column{Name: name, Type: dtype})
	return out
}

// Concat appends tables in order. Columns are unioned in first-seen order and
// cells missing from a source table read as nil. A column keeps the numeric
// type only if it is numeric in every table that carries it.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	index := make(map[string]int)
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.columns {
			if pos, ok := index[c.Name]; ok {
				if out.columns[pos].Type != c.Type {
					out.columns[pos].Type = DTypeCategorical
				}
				continue
			}
			index[c.Name] = len(out.columns)
			out.columns = append(out.columns, c)
		}
		for _, row := range t.rows {
			out.rows = append(out.rows, maps.Clone(row))
		}
	}
	return out
}

// InferDType reports numeric when every non-nil value is a number and at
// least one value is present.
func InferDType(values []any) DType {
	seen := false
	for _, v := range values {
		if IsNull(v) {
			continue
		}
		if _, ok := ToFloat(v); !ok {
			return DTypeCategorical
		}
		seen = true
	}
	if !seen {
		return DTypeCategorical
	}
	return DTypeNumeric
}

// IsNull reports whether a cell is missing: nil or a floating point NaN.
func IsNull(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(n)
	case float32:
		return math.IsNaN(float64(n))
	}
	return false
}

// ToFloat converts Go numeric values to float64. NaN is reported as not a number.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
