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
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/DataBridgeTech/dbqguard"
)

// TextWriter dumps the table as aligned, human readable columns prefixed with
// the row position, followed by a trailing newline.
type TextWriter struct{}

func (w *TextWriter) Extension() string { return string(dbqguard.FileTypeText) }

func (w *TextWriter) Write(table *dbqguard.Table, basePath string) error {
	f, err := os.Create(FileName(w, basePath))
	if err != nil {
		return fmt.Errorf("failed to create text file: %w", err)
	}
	defer func() { _ = f.Close() }()

	tw := tabwriter.NewWriter(f, 0, 0, 2, ' ', tabwriter.AlignRight)
	names := table.ColumnNames()

	if len(names) == 0 {
		fmt.Fprintf(tw, "Empty table\n")
	} else {
		for _, name := range names {
			fmt.Fprintf(tw, "\t%s", name)
		}
		fmt.Fprint(tw, "\t\n")

		for i, row := range table.Rows() {
			fmt.Fprint(tw, strconv.Itoa(i))
			for _, name := range names {
				cell := formatCell(row[name])
				if dbqguard.IsNull(row[name]) {
					cell = "NaN"
				}
				fmt.Fprintf(tw, "\t%s", cell)
			}
			fmt.Fprint(tw, "\t\n")
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write text file: %w", err)
	}
	if _, err := fmt.Fprintln(f); err != nil {
		return fmt.Errorf("failed to write text file: %w", err)
	}
	return f.Close()
}
