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
	"encoding/csv"
	"fmt"
	"os"

	"github.com/DataBridgeTech/dbqguard"
)

// CSVWriter writes a header row followed by one record per row, UTF-8, no index.
type CSVWriter struct{}

func (w *CSVWriter) Extension() string { return string(dbqguard.FileTypeCSV) }

func (w *CSVWriter) Write(table *dbqguard.Table, basePath string) error {
	f, err := os.Create(FileName(w, basePath))
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer func() { _ = f.Close() }()

	cw := csv.NewWriter(f)
	names := table.ColumnNames()
	if err := cw.Write(names); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(names))
	for _, row := range table.Rows() {
		for i, name := range names {
			record[i] = formatCell(row[name])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv file: %w", err)
	}
	return f.Close()
}
