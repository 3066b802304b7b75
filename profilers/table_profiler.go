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

package profilers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/DataBridgeTech/dbqguard"
)

// TableProfiler computes column metrics over an in-memory table.
type TableProfiler struct {
	logger        *slog.Logger
	collectErrors bool
}

func NewTableProfiler(logger *slog.Logger, collectErrors bool) *TableProfiler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TableProfiler{logger: logger, collectErrors: collectErrors}
}

var _ dbqguard.DbqDataProfiler = (*TableProfiler)(nil)

func (p *TableProfiler) ProfileTable(ctx context.Context, table *dbqguard.Table, maxConcurrent int) (*dbqguard.TableMetrics, error) {
	startTime := time.Now()
	taskPool := dbqguard.NewTaskPool(maxConcurrent, p.logger)

	var metricsLock sync.Mutex
	metrics := &dbqguard.TableMetrics{
		ProfiledAt:     time.Now().Unix(),
		TotalRows:      uint64(table.Len()),
		ColumnsMetrics: make(map[string]*dbqguard.ColumnMetrics),
	}

	columnsToProcess := table.Columns()
	if len(columnsToProcess) == 0 {
		p.logger.Warn("no columns found for table, returning basic info")
		metrics.ProfilingDurationMs = time.Since(startTime).Milliseconds()
		return metrics, nil
	}

	p.logger.Debug(fmt.Sprintf("found %d columns to process", len(columnsToProcess)))

	for position, column := range columnsToProcess {
		position, column := position, column
		taskPool.Enqueue(ctx, fmt.Sprintf("task:%s", column.Name), func() error {
			colMetrics, err := profileColumn(table, column, uint(position+1))
			if err != nil {
				p.logger.Warn("failed to profile column", "error", err.Error(), "col_name", column.Name)
				return err
			}

			metricsLock.Lock()
			metrics.ColumnsMetrics[column.Name] = colMetrics
			metricsLock.Unlock()

			p.logger.Debug("finished processing column",
				"col_name", column.Name,
				"proc_duration_ms", colMetrics.ProfilingDurationMs)
			return nil
		})
	}

	joinErr := taskPool.Join()
	metrics.ProfilingDurationMs = time.Since(startTime).Milliseconds()

	if p.collectErrors {
		metrics.DbqErrors = taskPool.Errors()
	} else if joinErr != nil {
		return metrics, joinErr
	}

	p.logger.Debug("finished data profiling for table",
		"total_rows", metrics.TotalRows,
		"profile_duration_ms", metrics.ProfilingDurationMs)

	return metrics, nil
}

func profileColumn(table *dbqguard.Table, column dbqguard.Column, position uint) (*dbqguard.ColumnMetrics, error) {
	colStartTime := time.Now()
	values, err := table.Values(column.Name)
	if err != nil {
		return nil, err
	}

	colMetrics := &dbqguard.ColumnMetrics{
		ColumnName:       column.Name,
		ColumnPosition:   position,
		DataType:         column.Type,
		InferredDataType: dbqguard.ClassifyColumn(values),
	}

	var nullCount uint64
	for _, v := range values {
		if dbqguard.IsNull(v) {
			nullCount++
		}
	}
	colMetrics.NullCount = nullCount

	frequencies := dbqguard.ValueFrequencies(values)
	colMetrics.DistinctCount = uint64(len(frequencies))
	if len(values) > 0 {
		colMetrics.UniqueRatio = float64(len(frequencies)) / float64(len(values))
	}

	if len(frequencies) > 0 {
		top := frequencies[0]
		for _, f := range frequencies[1:] {
			if f.Count > top.Count {
				top = f
			}
		}
		mfv := fmt.Sprintf("%v", top.Value)
		colMetrics.MostFrequentValue = &mfv
	}

	switch column.Type {
	case dbqguard.DTypeNumeric:
		summary, err := dbqguard.SummarizeNumeric(values)
		if err != nil {
			return nil, fmt.Errorf("failed to get numeric aggregates for %s: %w", column.Name, err)
		}
		if summary.Count > 0 {
			colMetrics.MinValue = &summary.Min
			colMetrics.MaxValue = &summary.Max
			colMetrics.AvgValue = &summary.Mean
			colMetrics.StddevValue = &summary.Stddev
		}
	default:
		var blankCount int64
		for _, v := range values {
			if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
				blankCount++
			}
		}
		colMetrics.BlankCount = &blankCount
	}

	colMetrics.ProfilingDurationMs = time.Since(colStartTime).Milliseconds()
	return colMetrics, nil
}
