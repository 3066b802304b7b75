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
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/DataBridgeTech/dbqguard"
)

type MysqlConnector struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewMysqlConnector(db *sql.DB, logger *slog.Logger) *MysqlConnector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &MysqlConnector{db: db, logger: logger}
}

func (c *MysqlConnector) Ping(ctx context.Context) (string, error) {
	if err := c.db.PingContext(ctx); err != nil {
		return "", err
	}
	var version string
	if err := c.db.QueryRowContext(ctx, "select version()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to read server version: %w", err)
	}
	return version, nil
}

// Close releases the underlying connection pool.
func (c *MysqlConnector) Close() error {
	return c.db.Close()
}

func (c *MysqlConnector) LoadTable(ctx context.Context, query string) (*dbqguard.Table, error) {
	c.logger.Debug("loading table", "query", query)

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			c.logger.Warn("failed to close rows", "error", err)
		}
	}()

	return scanSQLRows(rows)
}

func (c *MysqlConnector) ImportDatasets(ctx context.Context, filter string) ([]string, error) {
	query := `
		select table_schema, table_name
		from information_schema.tables
		where table_schema not in ('information_schema', 'mysql', 'performance_schema', 'sys')
	`

	var args []interface{}
	if filter != "" {
		query += " and (table_schema like ? or table_name like ?)"
		pattern := fmt.Sprintf("%%%s%%", filter)
		args = append(args, pattern, pattern)
	}
	query += " order by table_schema, table_name"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query information_schema.tables: %w", err)
	}
	defer rows.Close()

	return scanDatasets(rows)
}
