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

import "context"

type DataSourceType string

const (
	DataSourceTypeClickhouse DataSourceType = "clickhouse"
	DataSourceTypePostgresql DataSourceType = "postgresql"
	DataSourceTypeMysql      DataSourceType = "mysql"
)

// DataSource describes where tables to validate are loaded from.
type DataSource struct {
	ID            string           `yaml:"id"`
	Type          DataSourceType   `yaml:"type"`
	Configuration ConnectionConfig `yaml:"configuration"`
}

type ConnectionConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// TableLoader is the interface that wraps loading tables from a data source.
type TableLoader interface {
	// Ping checks the connection and returns a short server description.
	Ping(ctx context.Context) (string, error)

	// LoadTable runs a query and materializes its result set.
	LoadTable(ctx context.Context, query string) (*Table, error)
}

// DbqRuleAdapter translates rules into queries a data source can run itself.
type DbqRuleAdapter interface {
	// InterpretRule generates a query selecting the rows of dataset that violate rule.
	// Rules that need the whole column in memory return ErrPushDownUnsupported.
	InterpretRule(rule *RuleSpec, dataset string, whereClause string) (string, error)

	// SelectQuery generates a query loading dataset, optionally filtered and limited.
	SelectQuery(dataset string, whereClause string, limit int) string
}
