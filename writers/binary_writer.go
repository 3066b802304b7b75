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

package writers

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"reflect"
	"time"

	"github.com/DataBridgeTech/dbqguard"
)

// BinaryTableWriter serializes the table with encoding/gob under the "pkl"
// extension. ReadBinaryTable restores it with its column types.
type BinaryTableWriter struct{}

const (
	cellNull uint8 = iota
	cellInt
	cellFloat
	cellString
	cellBool
	cellTime
)

type binaryCell struct {
	Kind  uint8
	Int   int64
	Float float64
	Str   string
	Bool  bool
	Time  time.Time
}

type binaryTable struct {
	Columns []dbqguard.Column
	Rows    [][]binaryCell
}

func (w *BinaryTableWriter) Extension() string { return string(dbqguard.FileTypePickle) }

func (w *BinaryTableWriter) Write(table *dbqguard.Table, basePath string) error {
	f, err := os.Create(FileName(w, basePath))
	if err != nil {
		return fmt.Errorf("failed to create binary table file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := EncodeBinaryTable(f, table); err != nil {
		return err
	}
	return f.Close()
}

// EncodeBinaryTable writes table to out in the binary table format.
func EncodeBinaryTable(out io.Writer, table *dbqguard.Table) error {
	bt := binaryTable{Columns: table.Columns()}
	for _, row := range table.Rows() {
		cells := make([]binaryCell, len(bt.Columns))
		for i, col := range bt.Columns {
			cells[i] = toBinaryCell(row[col.Name])
		}
		bt.Rows = append(bt.Rows, cells)
	}

	if err := gob.NewEncoder(out).Encode(&bt); err != nil {
		return fmt.Errorf("failed to encode binary table: %w", err)
	}
	return nil
}

// ReadBinaryTable decodes a table written by BinaryTableWriter.
func ReadBinaryTable(in io.Reader) (*dbqguard.Table, error) {
	var bt binaryTable
	if err := gob.NewDecoder(in).Decode(&bt); err != nil {
		return nil, fmt.Errorf("failed to decode binary table: %w", err)
	}

	rows := make([]dbqguard.Row, 0, len(bt.Rows))
	for _, cells := range bt.Rows {
		row := make(dbqguard.Row, len(bt.Columns))
		for i, col := range bt.Columns {
			if i < len(cells) {
				row[col.Name] = fromBinaryCell(cells[i])
			}
		}
		rows = append(rows, row)
	}
	return dbqguard.NewTable(bt.Columns, rows), nil
}

func toBinaryCell(v any) binaryCell {
	if dbqguard.IsNull(v) {
		return binaryCell{Kind: cellNull}
	}
	switch x := v.(type) {
	case string:
		return binaryCell{Kind: cellString, Str: x}
	case bool:
		return binaryCell{Kind: cellBool, Bool: x}
	case time.Time:
		return binaryCell{Kind: cellTime, Time: x}
	case float32, float64:
		f, _ := dbqguard.ToFloat(x)
		return binaryCell{Kind: cellFloat, Float: f}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return binaryCell{Kind: cellInt, Int: rv.Int()}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > 1<<63-1 {
			return binaryCell{Kind: cellFloat, Float: float64(u)}
		}
		return binaryCell{Kind: cellInt, Int: int64(u)}
	}
	return binaryCell{Kind: cellString, Str: formatCell(v)}
}

func fromBinaryCell(c binaryCell) any {
	switch c.Kind {
	case cellInt:
		return c.Int
	case cellFloat:
		return c.Float
	case cellString:
		return c.Str
	case cellBool:
		return c.Bool
	case cellTime:
		return c.Time
	default:
		return nil
	}
}
