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
	"strconv"
	"time"

	"github.com/DataBridgeTech/dbqguard"
)

// Writer persists a table to basePath plus the format's extension.
type Writer interface {
	Write(table *dbqguard.Table, basePath string) error
	Extension() string
}

// New returns the writer for a file type. Unsupported types are an ErrConfiguration.
func New(fileType dbqguard.FileType) (Writer, error) {
	ft, err := dbqguard.ParseFileType(string(fileType))
	if err != nil {
		return nil, err
	}

	switch ft {
	case dbqguard.FileTypeCSV:
		return &CSVWriter{}, nil
	case dbqguard.FileTypeXLSX:
		return &XLSXWriter{SheetName: "Sheet1"}, nil
	case dbqguard.FileTypePickle:
		return &BinaryTableWriter{}, nil
	case dbqguard.FileTypeText:
		return &TextWriter{}, nil
	}
	return nil, fmt.Errorf("%w: no writer for file type '%s'", dbqguard.ErrConfiguration, ft)
}

// FileName is basePath with the writer's extension appended.
func FileName(w Writer, basePath string) string {
	return basePath + "." + w.Extension()
}

// formatCell renders a cell for the text based formats. Nulls render empty.
func formatCell(v any) string {
	if dbqguard.IsNull(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.Format(time.RFC3339)
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(v)
	}
}
