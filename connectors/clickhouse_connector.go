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
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/DataBridgeTech/dbqguard"
	"github.com/shopspring/decimal"
)

type ClickhouseConnector struct {
	cnn    driver.Conn
	logger *slog.Logger
}

func NewClickhouseConnector(cnn driver.Conn, logger *slog.Logger) *ClickhouseConnector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &ClickhouseConnector{
		cnn:    cnn,
		logger: logger,
	}
}

func (c *ClickhouseConnector) Ping(ctx context.Context) (string, error) {
	if err := c.cnn.Ping(ctx); err != nil {
		return "", err
	}

	serverVersion, err := c.cnn.ServerVersion()
	if err != nil {
		return "", err
	}

	return serverVersion.String(), nil
}

// LoadTable runs query and scans every row using the driver reported scan
// types. Nullable columns come back as nil.
// Close releases the underlying connection pool.
func (c *ClickhouseConnector) Close() error {
	return c.cnn.Close()
}

func (c *ClickhouseConnector) LoadTable(ctx context.Context, query string) (*dbqguard.Table, error) {
	c.logger.Debug("loading table", "query", query)

	rows, err := c.cnn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}
	defer rows.Close()

	columnTypes := rows.ColumnTypes()
	names := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		names[i] = ct.Name()
	}

	var tableRows []dbqguard.Row
	for rows.Next() {
		targets := make([]any, len(columnTypes))
		for i, ct := range columnTypes {
			targets[i] = reflect.New(ct.ScanType()).Interface()
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(dbqguard.Row, len(names))
		for i, name := range names {
			row[name] = derefScanned(targets[i])
		}
		tableRows = append(tableRows, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurred during row iteration: %w", err)
	}

	return dbqguard.NewTableFromRows(names, tableRows), nil
}

func derefScanned(target any) any {
	v := reflect.ValueOf(target).Elem()
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch value := v.Interface().(type) {
	case decimal.Decimal:
		return value.InexactFloat64()
	default:
		return normalizeValue(value)
	}
}

func (c *ClickhouseConnector) ImportDatasets(ctx context.Context, filter string) ([]string, error) {
	query := `
        select database, name
        from system.tables
        where 
            database not in ('system', 'INFORMATION_SCHEMA', 'information_schema')
			and not startsWith(name, '.')
			and is_temporary = 0`

	var args []any
	if filter = strings.TrimSpace(filter); filter != "" {
		query += ` and (database like ? or name like ?)`
		pattern := fmt.Sprintf("%%%s%%", filter)
		args = append(args, pattern, pattern)
	}
	query += ` order by database, name`

	rows, err := c.cnn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query system.tables: %w", err)
	}
	defer rows.Close()

	var datasets []string
	for rows.Next() {
		var databaseName, tableName string
		if err := rows.Scan(&databaseName, &tableName); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		datasets = append(datasets, fmt.Sprintf("%s.%s", databaseName, tableName))
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurred during row iteration: %w", err)
	}

	return datasets, nil
}
