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
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/DataBridgeTech/dbqguard"
)

// XLSXWriter writes the table to a single worksheet, header in the first row.
type XLSXWriter struct {
	SheetName string
}

func (w *XLSXWriter) Extension() string { return string(dbqguard.FileTypeXLSX) }

func (w *XLSXWriter) Write(table *dbqguard.Table, basePath string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := w.SheetName
	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("failed to name worksheet: %w", err)
		}
	}

	names := table.ColumnNames()
	header := make([]any, len(names))
	for i, name := range names {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write xlsx header: %w", err)
	}

	for r, row := range table.Rows() {
		cells := make([]any, len(names))
		for i, name := range names {
			if v := row[name]; !dbqguard.IsNull(v) {
				cells[i] = v
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write xlsx row %d: %w", r, err)
		}
	}

	if err := f.SaveAs(FileName(w, basePath)); err != nil {
		return fmt.Errorf("failed to save xlsx file: %w", err)
	}
	return nil
}
