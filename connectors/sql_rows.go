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
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/DataBridgeTech/dbqguard"
)

// scanSQLRows materializes a result set. Numeric columns the driver returns
// as text (NUMERIC, DECIMAL) are parsed into numbers, other text returned as
// []byte is converted to string and column types are inferred from the values.
func scanSQLRows(rows *sql.Rows) (*dbqguard.Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read result column types: %w", err)
	}
	kinds := make([]numericKind, len(columns))
	for i, ct := range columnTypes {
		kinds[i] = numericKindOf(ct.DatabaseTypeName())
	}

	var tableRows []dbqguard.Row
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(dbqguard.Row, len(columns))
		for i, name := range columns {
			row[name] = normalizeColumnValue(values[i], kinds[i])
		}
		tableRows = append(tableRows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurred during row iteration: %w", err)
	}

	return dbqguard.NewTableFromRows(columns, tableRows), nil
}

func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

type numericKind int

const (
	notNumeric numericKind = iota
	integerKind
	floatKind
)

func numericKindOf(databaseType string) numericKind {
	name := strings.ToUpper(strings.TrimSpace(databaseType))
	name = strings.TrimPrefix(name, "UNSIGNED ")
	switch name {
	case "INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT", "MEDIUMINT", "INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL":
		return integerKind
	case "NUMERIC", "DECIMAL", "FLOAT", "DOUBLE", "REAL", "FLOAT4", "FLOAT8":
		return floatKind
	}
	return notNumeric
}

// normalizeColumnValue parses textual numbers of numeric columns. Values
// that do not parse are kept as strings.
func normalizeColumnValue(v any, kind numericKind) any {
	b, ok := v.([]byte)
	if !ok || kind == notNumeric {
		return normalizeValue(v)
	}
	text := string(b)
	if kind == integerKind {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n
		}
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}
	return text
}

func scanDatasets(rows *sql.Rows) ([]string, error) {
	var datasets []string
	for rows.Next() {
		var schemaName, tableName string
		if err := rows.Scan(&schemaName, &tableName); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		datasets = append(datasets, fmt.Sprintf("%s.%s", schemaName, tableName))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurred during row iteration: %w", err)
	}
	return datasets, nil
}
