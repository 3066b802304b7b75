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

package connectors

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/DataBridgeTech/dbqguard"
)

// DatasetImporter lists the datasets visible through a connection.
type DatasetImporter interface {
	ImportDatasets(ctx context.Context, filter string) ([]string, error)
}

var (
	_ dbqguard.TableLoader = (*ClickhouseConnector)(nil)
	_ dbqguard.TableLoader = (*PostgresqlConnector)(nil)
	_ dbqguard.TableLoader = (*MysqlConnector)(nil)
	_ DatasetImporter      = (*ClickhouseConnector)(nil)
	_ DatasetImporter      = (*PostgresqlConnector)(nil)
	_ DatasetImporter      = (*MysqlConnector)(nil)
)

// LoadDataset loads the rows of dataset that match where, at most limit rows
// when limit is positive.
func LoadDataset(ctx context.Context, loader dbqguard.TableLoader, adapter dbqguard.DbqRuleAdapter, dataset, where string, limit int) (*dbqguard.Table, error) {
	if strings.TrimSpace(dataset) == "" {
		return nil, fmt.Errorf("%w: dataset name is required", dbqguard.ErrConfiguration)
	}
	return loader.LoadTable(ctx, adapter.SelectQuery(dataset, where, limit))
}

// ReadCSVFile reads a table from a CSV file with a header row.
func ReadCSVFile(path string) (*dbqguard.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV reads a table whose first record is the header. Empty cells are
// nulls. A column whose non-empty cells all parse as integers holds int64
// values, one whose cells all parse as numbers holds float64 values.
func ReadCSV(r io.Reader) (*dbqguard.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return dbqguard.NewTable(nil, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv records: %w", err)
	}

	for i, record := range records {
		if len(record) != len(header) {
			return nil, fmt.Errorf("%w: csv record %d has %d fields, header has %d",
				dbqguard.ErrSchema, i+2, len(record), len(header))
		}
	}

	converters := make([]func(string) any, len(header))
	for col := range header {
		converters[col] = columnConverter(records, col)
	}

	rows := make([]dbqguard.Row, 0, len(records))
	for _, record := range records {
		row := make(dbqguard.Row, len(header))
		for col, name := range header {
			if record[col] == "" {
				row[name] = nil
				continue
			}
			row[name] = converters[col](record[col])
		}
		rows = append(rows, row)
	}

	return dbqguard.NewTableFromRows(header, rows), nil
}

func columnConverter(records [][]string, col int) func(string) any {
	allInts, allFloats, seen := true, true, false
	for _, record := range records {
		cell := record[col]
		if cell == "" {
			continue
		}
		seen = true
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			allInts = false
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			allFloats = false
		}
	}

	switch {
	case seen && allInts:
		return func(s string) any {
			v, _ := strconv.ParseInt(s, 10, 64)
			return v
		}
	case seen && allFloats:
		return func(s string) any {
			v, _ := strconv.ParseFloat(s, 64)
			return v
		}
	default:
		return func(s string) any { return s }
	}
}
