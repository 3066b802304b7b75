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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/DataBridgeTech/dbqguard"
	"github.com/DataBridgeTech/dbqguard/connectors"
	"github.com/DataBridgeTech/dbqguard/dbq"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "validate":
		err = validateCmd(ctx, os.Args[2:])
	case "profile":
		err = profileCmd(ctx, os.Args[2:])
	case "datasets":
		err = datasetsCmd(ctx, os.Args[2:])
	case "version":
		fmt.Println("dbqguard", dbq.GetDbqGuardLibVersion())
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("command failed", "command", os.Args[1], "error", err)
		if errors.Is(err, dbqguard.ErrConfiguration) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `dbqguard - validation and quarantine of tabular data

Usage:
  dbqguard validate --rules <rules.yaml> (--input <data.csv> | --dataset <schema.table> [--where <cond>] [source flags])
  dbqguard profile  (--input <data.csv> | --dataset <schema.table> [source flags]) [--concurrency 4]
  dbqguard datasets [--filter <text>] [source flags]
  dbqguard version

Source flags:
  --source clickhouse|postgresql|mysql --host <host> --port <port> --user <user> --password <password> --database <db>

Common flags:
  --log-level debug|info|warn|error  --log-format text|json
`)
}

type commonFlags struct {
	logLevel  *string
	logFormat *string
	source    *string
	host      *string
	port      *int
	user      *string
	password  *string
	database  *string
}

func registerCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		logLevel:  fs.String("log-level", "info", "Log level"),
		logFormat: fs.String("log-format", "text", "Log format: text or json"),
		source:    fs.String("source", "", "Data source type"),
		host:      fs.String("host", "", "Database host"),
		port:      fs.Int("port", 0, "Database port"),
		user:      fs.String("user", "", "Database user"),
		password:  fs.String("password", os.Getenv("DBQGUARD_DB_PASSWORD"), "Database password (defaults to $DBQGUARD_DB_PASSWORD)"),
		database:  fs.String("database", "", "Database name"),
	}
}

// dataSource returns the source from flags, falling back to the one declared
// in the rules file. Flags win.
func (c *commonFlags) dataSource(fallback *dbqguard.DataSource) (*dbqguard.DataSource, error) {
	if *c.source == "" {
		if fallback == nil {
			return nil, fmt.Errorf("%w: --source (or datasource in the rules file) is required", dbqguard.ErrConfiguration)
		}
		return fallback, nil
	}

	return &dbqguard.DataSource{
		ID:   "cli",
		Type: dbqguard.DataSourceType(*c.source),
		Configuration: dbqguard.ConnectionConfig{
			Host:     *c.host,
			Port:     *c.port,
			Username: *c.user,
			Password: *c.password,
			Database: *c.database,
		},
	}, nil
}

func validateCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	common := registerCommonFlags(fs)
	rulesPath := fs.String("rules", "", "Path to YAML rules file")
	inputPath := fs.String("input", "", "Path to CSV input")
	dataset := fs.String("dataset", "", "Dataset to validate in the data source")
	where := fs.String("where", "", "Filter applied to the dataset")
	_ = fs.Parse(args)

	logger := initLogger(*common.logFormat, *common.logLevel)

	if *rulesPath == "" {
		return fmt.Errorf("%w: --rules is required", dbqguard.ErrConfiguration)
	}
	rulesCfg, err := dbqguard.LoadRulesFileConfig(*rulesPath)
	if err != nil {
		return err
	}

	validator, err := dbq.NewLocalValidator(rulesCfg.Validator, logger)
	if err != nil {
		return err
	}

	var results []*dbqguard.ValidationResult
	if *inputPath != "" {
		table, err := connectors.ReadCSVFile(*inputPath)
		if err != nil {
			return err
		}
		logger.Info("validating input", "input", *inputPath, "rows", table.Len(), "rules", len(rulesCfg.Rules))
		results, err = validator.RunRules(table, rulesCfg.Rules)
		if err != nil {
			_ = validator.Close()
			return err
		}
	} else {
		if err := requireDataset(*dataset); err != nil {
			_ = validator.Close()
			return err
		}
		dataSource, err := common.dataSource(rulesCfg.DataSource)
		if err != nil {
			_ = validator.Close()
			return err
		}
		loader, err := dbq.NewTableLoader(dataSource, logger)
		if err != nil {
			_ = validator.Close()
			return err
		}
		defer closeLoader(loader, logger)
		adapter, err := dbq.NewRuleAdapter(dataSource.Type, logger)
		if err != nil {
			_ = validator.Close()
			return err
		}
		logger.Info("validating dataset", "dataset", *dataset, "rules", len(rulesCfg.Rules))
		results, err = validator.ValidateDataset(ctx, loader, adapter, *dataset, *where, rulesCfg.Rules)
		if err != nil {
			_ = validator.Close()
			return err
		}
	}

	if err := validator.Close(); err != nil {
		return err
	}

	return printJSON(results)
}

func profileCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	common := registerCommonFlags(fs)
	inputPath := fs.String("input", "", "Path to CSV input")
	dataset := fs.String("dataset", "", "Dataset to profile in the data source")
	concurrency := fs.Int("concurrency", 4, "Columns profiled concurrently")
	_ = fs.Parse(args)

	logger := initLogger(*common.logFormat, *common.logLevel)

	var table *dbqguard.Table
	var err error
	if *inputPath != "" {
		table, err = connectors.ReadCSVFile(*inputPath)
	} else {
		table, err = loadFromSource(ctx, common, *dataset, logger)
	}
	if err != nil {
		return err
	}

	metrics, err := dbq.NewDbqProfiler(logger).ProfileTable(ctx, table, *concurrency)
	if err != nil {
		return err
	}
	for _, profileErr := range metrics.DbqErrors {
		logger.Warn("column profiling failed", "error", profileErr)
	}

	return printJSON(metrics)
}

func datasetsCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("datasets", flag.ExitOnError)
	common := registerCommonFlags(fs)
	filter := fs.String("filter", "", "Substring matched against schema and table names")
	_ = fs.Parse(args)

	logger := initLogger(*common.logFormat, *common.logLevel)

	dataSource, err := common.dataSource(nil)
	if err != nil {
		return err
	}
	loader, err := dbq.NewTableLoader(dataSource, logger)
	if err != nil {
		return err
	}

	defer closeLoader(loader, logger)

	importer, ok := loader.(connectors.DatasetImporter)
	if !ok {
		return fmt.Errorf("%w: data source %s cannot list datasets", dbqguard.ErrConfiguration, dataSource.Type)
	}
	datasets, err := importer.ImportDatasets(ctx, *filter)
	if err != nil {
		return err
	}

	return printJSON(datasets)
}

func loadFromSource(ctx context.Context, common *commonFlags, dataset string, logger *slog.Logger) (*dbqguard.Table, error) {
	if err := requireDataset(dataset); err != nil {
		return nil, err
	}
	dataSource, err := common.dataSource(nil)
	if err != nil {
		return nil, err
	}
	loader, err := dbq.NewTableLoader(dataSource, logger)
	if err != nil {
		return nil, err
	}
	defer closeLoader(loader, logger)
	adapter, err := dbq.NewRuleAdapter(dataSource.Type, logger)
	if err != nil {
		return nil, err
	}

	serverVersion, err := loader.Ping(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", dataSource.Type, err)
	}
	logger.Debug("connected to data source", "type", dataSource.Type, "server_version", serverVersion)

	return connectors.LoadDataset(ctx, loader, adapter, dataset, "", 0)
}

func requireDataset(dataset string) error {
	if strings.TrimSpace(dataset) == "" {
		return fmt.Errorf("%w: --dataset is required when --input is not set", dbqguard.ErrConfiguration)
	}
	return nil
}

// closeLoader releases the connection pool behind loader, if it holds one.
func closeLoader(loader dbqguard.TableLoader, logger *slog.Logger) {
	closer, ok := loader.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn("failed to close data source connection", "error", err)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
