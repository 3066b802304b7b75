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

package validators

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/DataBridgeTech/dbqguard"
)

// StatisticalValidator flags z-score outliers in continuous columns and
// minority values in discrete columns.
type StatisticalValidator struct {
	logger *slog.Logger
}

func NewStatisticalValidator(logger *slog.Logger) dbqguard.RuleEvaluator {
	return &StatisticalValidator{logger: orNoop(logger)}
}

func (v *StatisticalValidator) Evaluate(table *dbqguard.Table, rule *dbqguard.RuleSpec) (*dbqguard.Table, error) {
	if err := requireKind(rule, dbqguard.RuleKindStatistical); err != nil {
		return nil, err
	}

	sensitivity, err := dbqguard.ParseSensitivity(string(rule.Sensitivity))
	if err != nil {
		return nil, err
	}
	dataType, err := dbqguard.ParseDataType(string(rule.DataType))
	if err != nil {
		return nil, err
	}

	values, err := table.Values(rule.Column)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return table.Subset(nil), nil
	}

	if dataType == "" {
		dataType = dbqguard.ClassifyColumn(values)
	}

	var outliers []int
	switch dataType {
	case dbqguard.DataTypeContinuous:
		outliers, err = zScoreOutliers(values, sensitivity.ZScoreCutoff())
		if err != nil {
			return nil, fmt.Errorf("continuous check on column '%s': %w", rule.Column, err)
		}
	case dbqguard.DataTypeDiscrete:
		outliers = minorityRows(values, sensitivity.MinFrequencyPercent())
	}

	v.logger.Debug("statistical check evaluated",
		"rule_name", rule.Name,
		"column", rule.Column,
		"data_type", dataType,
		"sensitivity", sensitivity,
		"violations", len(outliers))

	return table.Subset(outliers), nil
}

// zScoreOutliers returns rows with |v - mean| / stddev > cutoff. A column with
// no variance (or fewer than two values) has no outliers.
func zScoreOutliers(values []any, cutoff float64) ([]int, error) {
	summary, err := dbqguard.SummarizeNumeric(values)
	if err != nil {
		return nil, err
	}
	if summary.Count < 2 || summary.Stddev == 0 {
		return nil, nil
	}

	var outliers []int
	for i, value := range values {
		f, ok := dbqguard.ToFloat(value)
		if !ok {
			continue
		}
		if math.Abs(f-summary.Mean)/summary.Stddev > cutoff {
			outliers = append(outliers, i)
		}
	}
	return outliers, nil
}

// minorityRows returns rows whose value occurs in fewer than percent% of all rows.
// Null cells are counted in the total but never flagged.
func minorityRows(values []any, percent float64) []int {
	counts := dbqguard.CountValues(values)
	threshold := float64(len(values)) * percent / 100

	var minority []int
	for i, value := range values {
		if dbqguard.IsNull(value) {
			continue
		}
		if float64(counts[dbqguard.ValueKey(value)]) < threshold {
			minority = append(minority, i)
		}
	}
	return minority
}
