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

package sink

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/DataBridgeTech/dbqguard"
	"github.com/DataBridgeTech/dbqguard/writers"
)

var _ dbqguard.ViolationRecorder = (*ViolationSink)(nil)

// UnitedLogName is the base file name of the unified violation log.
const UnitedLogName = "log"

// ErrSinkClosed is returned by Record after Close.
var ErrSinkClosed = errors.New("violation sink is closed")

// ViolationSink tags violating rows with the rule name and persists them,
// either into one running log rewritten on every record (united mode) or into
// one file per rule that is replaced on every record.
//
// A ViolationSink is not safe for concurrent use.
type ViolationSink struct {
	cfg        dbqguard.ValidatorConfig
	dir        string
	writer     writers.Writer
	logger     *slog.Logger
	now        func() time.Time
	runningLog *dbqguard.Table
	closed     bool
}

// Option configures a ViolationSink.
type Option func(*ViolationSink)

// WithWriter replaces the writer selected from the configured file type.
func WithWriter(w writers.Writer) Option {
	return func(s *ViolationSink) {
		s.writer = w
	}
}

// WithClock sets the clock used to name the daily directory in history mode.
func WithClock(now func() time.Time) Option {
	return func(s *ViolationSink) {
		s.now = now
	}
}

// NewViolationSink validates cfg, selects the writer for its file type and, when
// storage is enabled, creates the output directory if it does not exist yet.
func NewViolationSink(cfg dbqguard.ValidatorConfig, logger *slog.Logger, opts ...Option) (*ViolationSink, error) {
	if logger == nil {
		// noop logger by default
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &ViolationSink{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.writer == nil {
		w, err := writers.New(cfg.FileType)
		if err != nil {
			return nil, err
		}
		s.writer = w
	}

	s.dir = cfg.OutputDir(s.now())
	if cfg.Store {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", s.dir, err)
		}
	}

	return s, nil
}

// Dir is the directory logs are written to.
func (s *ViolationSink) Dir() string {
	return s.dir
}

// Record persists a batch of violating rows. Empty batches and disabled
// storage are no-ops.
func (s *ViolationSink) Record(batch *dbqguard.Table, validationName string) error {
	if s.closed {
		return ErrSinkClosed
	}
	if err := dbqguard.ValidateValidationName(validationName); err != nil {
		return err
	}
	if !s.cfg.Store || batch.IsEmpty() {
		return nil
	}

	tagged := batch.WithColumn(dbqguard.ValidationNameColumn, validationName)

	if s.cfg.United {
		if s.cfg.Identifier != "" {
			if _, err := batch.RequireColumn(s.cfg.Identifier); err != nil {
				return fmt.Errorf("violations of '%s' lack the identifier column: %w", validationName, err)
			}
		}
		next := dbqguard.Concat(s.runningLog, tagged)
		if err := s.persistRunningLog(next); err != nil {
			return err
		}
		s.runningLog = next
		s.logger.Debug("appended violations to running log",
			"validation_name", validationName,
			"batch_rows", tagged.Len(),
			"log_rows", s.runningLog.Len())
		return nil
	}

	basePath := filepath.Join(s.dir, validationName)
	if err := s.writer.Write(tagged, basePath); err != nil {
		return fmt.Errorf("failed to persist violations of '%s': %w", validationName, err)
	}
	s.logger.Debug("persisted violations",
		"validation_name", validationName,
		"rows", tagged.Len(),
		"file", writers.FileName(s.writer, basePath))
	return nil
}

// persistRunningLog rewrites the whole unified log from log. With an
// identifier configured only the identifier and the validation name are
// written; the in-memory log keeps every column.
func (s *ViolationSink) persistRunningLog(log *dbqguard.Table) error {
	view := log
	if s.cfg.Identifier != "" {
		projected, err := log.Select(s.cfg.Identifier, dbqguard.ValidationNameColumn)
		if err != nil {
			return fmt.Errorf("identifier projection: %w", err)
		}
		view = projected
	}

	basePath := filepath.Join(s.dir, UnitedLogName)
	if err := s.writer.Write(view, basePath); err != nil {
		return fmt.Errorf("failed to persist running log: %w", err)
	}
	return nil
}

// RunningLog returns a copy of every violation recorded so far in united mode.
func (s *ViolationSink) RunningLog() *dbqguard.Table {
	return dbqguard.Concat(s.runningLog)
}

// Flush rewrites the unified log from memory. It is a no-op in per-rule mode
// or when nothing has been recorded.
func (s *ViolationSink) Flush() error {
	if !s.cfg.Store || !s.cfg.United || s.runningLog.IsEmpty() {
		return nil
	}
	return s.persistRunningLog(s.runningLog)
}

// Close flushes the unified log and rejects further records.
func (s *ViolationSink) Close() error {
	if s.closed {
		return nil
	}
	err := s.Flush()
	s.closed = true
	return err
}
