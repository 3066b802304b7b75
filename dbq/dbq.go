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

package dbq

import (
	"fmt"
	"log/slog"

	"github.com/DataBridgeTech/dbqguard"
	"github.com/DataBridgeTech/dbqguard/adapters"
	"github.com/DataBridgeTech/dbqguard/cnn"
	"github.com/DataBridgeTech/dbqguard/connectors"
	"github.com/DataBridgeTech/dbqguard/profilers"
)

const (
	Version = "v0.1.0"

	defaultPoolSize = 4
)

func GetDbqGuardLibVersion() string {
	return Version
}

func NewTableLoader(dataSource *dbqguard.DataSource, logger *slog.Logger) (dbqguard.TableLoader, error) {
	if dataSource == nil {
		return nil, fmt.Errorf("%w: data source is not provided", dbqguard.ErrConfiguration)
	}

	switch dataSource.Type {
	case dbqguard.DataSourceTypeClickhouse:
		connection, err := cnn.NewClickhouseConnection(dataSource.Configuration, defaultPoolSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create clickhouse connection: %w", err)
		}
		return connectors.NewClickhouseConnector(connection, logger), nil
	case dbqguard.DataSourceTypePostgresql:
		connection, err := cnn.NewPostgresqlConnection(dataSource.Configuration, defaultPoolSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgresql connection: %w", err)
		}
		return connectors.NewPostgresqlConnector(connection, logger), nil
	case dbqguard.DataSourceTypeMysql:
		connection, err := cnn.NewMysqlConnection(dataSource.Configuration, defaultPoolSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create mysql connection: %w", err)
		}
		return connectors.NewMysqlConnector(connection, logger), nil
	default:
		return nil, fmt.Errorf("%w: unsupported data source type: %s", dbqguard.ErrConfiguration, dataSource.Type)
	}
}

func NewRuleAdapter(dataSourceType dbqguard.DataSourceType, logger *slog.Logger) (dbqguard.DbqRuleAdapter, error) {
	switch dataSourceType {
	case dbqguard.DataSourceTypeClickhouse:
		return adapters.NewClickhouseDbqRuleAdapter(logger), nil
	case dbqguard.DataSourceTypePostgresql:
		return adapters.NewPostgresqlDbqRuleAdapter(logger), nil
	case dbqguard.DataSourceTypeMysql:
		return adapters.NewMysqlDbqRuleAdapter(logger), nil
	default:
		return nil, fmt.Errorf("%w: unsupported data source type: %s", dbqguard.ErrConfiguration, dataSourceType)
	}
}

func NewDbqProfiler(logger *slog.Logger) dbqguard.DbqDataProfiler {
	return profilers.NewTableProfiler(logger, true)
}
