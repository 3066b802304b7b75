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

	"github.com/DataBridgeTech/dbqguard"
)

// RangeValidator flags rows whose value lies outside every border of the rule.
type RangeValidator struct {
	logger *slog.Logger
}

func NewRangeValidator(logger *slog.Logger) dbqguard.RuleEvaluator {
	return &RangeValidator{logger: orNoop(logger)}
}

func (v *RangeValidator) Evaluate(table *dbqguard.Table, rule *dbqguard.RuleSpec) (*dbqguard.Table, error) {
	if err := requireKind(rule, dbqguard.RuleKindRange); err != nil {
		return nil, err
	}

	values, err := table.Values(rule.Column)
	if err != nil {
		return nil, err
	}

	// the in-range mask starts all false, so an empty border list flags every row
	var outOfBounds []int
	for i, value := range values {
		if dbqguard.IsNull(value) {
			outOfBounds = append(outOfBounds, i)
			continue
		}
		f, ok := dbqguard.ToFloat(value)
		if !ok {
			return nil, fmt.Errorf("%w: range check on column '%s' requires numeric values, got %T", dbqguard.ErrTypeMismatch, rule.Column, value)
		}
		if !inAnyBorder(f, rule.Borders) {
			outOfBounds = append(outOfBounds, i)
		}
	}

	v.logger.Debug("range check evaluated",
		"rule_name", rule.Name,
		"column", rule.Column,
		"borders", len(rule.Borders),
		"violations", len(outOfBounds))

	return table.Subset(outOfBounds), nil
}

func inAnyBorder(value float64, borders []dbqguard.Border) bool {
	for _, b := range borders {
		if b.Contains(value) {
			return true
		}
	}
	return false
}
