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

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// FileType is the on-disk format of violation logs.
type FileType string

const (
	FileTypeCSV    FileType = "csv"
	FileTypeXLSX   FileType = "xlsx"
	FileTypePickle FileType = "pkl" // binary table
	FileTypeText   FileType = "txt"
)

// EnvPrefix is prepended to the environment variable names read by ApplyEnv.
const EnvPrefix = "DBQGUARD_"

// ParseFileType accepts csv, xlsx, pkl or txt in any case.
func ParseFileType(s string) (FileType, error) {
	switch ft := FileType(strings.ToLower(strings.TrimSpace(s))); ft {
	case FileTypeCSV, FileTypeXLSX, FileTypePickle, FileTypeText:
		return ft, nil
	default:
		return "", fmt.Errorf("%w: unsupported file type '%s'. Supported types are: 'csv', 'xlsx', 'pkl', 'txt'", ErrConfiguration, s)
	}
}

// ValidatorConfig controls whether and how violations are persisted.
type ValidatorConfig struct {
	// Store enables persistence of violating rows.
	Store bool `yaml:"store" env:"STORE"`

	// History partitions the output directory by day (YYYY-MM-DD).
	History bool `yaml:"history" env:"HISTORY"`

	// United accumulates every violation in a single log instead of one file per rule.
	United bool `yaml:"united" env:"UNITED"`

	// Identifier restricts the persisted unified log to this column and the validation name.
	Identifier string `yaml:"identifier,omitempty" env:"IDENTIFIER"`

	// Path is the base output directory.
	Path string `yaml:"path" env:"PATH"`

	FileType FileType `yaml:"file_type" env:"FILE_TYPE"`
}

// DefaultValidatorConfig mirrors the defaults of the local validator:
// no storage, unified log, ./validation_logs, binary table format.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		Store:    false,
		History:  false,
		United:   true,
		Path:     "./validation_logs",
		FileType: FileTypePickle,
	}
}

// ApplyEnv overrides fields from DBQGUARD_* environment variables. Unset
// variables leave the current values untouched.
func (c *ValidatorConfig) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("%w: failed to parse environment: %v", ErrConfiguration, err)
	}
	return nil
}

// Validate normalizes the file type and fails fast on unusable settings.
func (c *ValidatorConfig) Validate() error {
	ft, err := ParseFileType(string(c.FileType))
	if err != nil {
		return err
	}
	c.FileType = ft

	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("%w: output path is required", ErrConfiguration)
	}
	return nil
}

// OutputDir is the directory logs are written to, partitioned by now's date
// when History is set.
func (c ValidatorConfig) OutputDir(now time.Time) string {
	if c.History {
		return filepath.Join(c.Path, now.Format("2006-01-02"))
	}
	return c.Path
}
