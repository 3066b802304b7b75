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
	"log/slog"

	"github.com/DataBridgeTech/dbqguard"
)

// ValueSetValidator flags rows whose value is missing from the allowed list or
// present in the not-allowed list. With both lists the two passes are
// concatenated, so a row failing both appears twice unless the rule asks for
// distinct rows.
type ValueSetValidator struct {
	logger *slog.Logger
}

func NewValueSetValidator(logger *slog.Logger) dbqguard.RuleEvaluator {
	return &ValueSetValidator{logger: orNoop(logger)}
}

func (v *ValueSetValidator) Evaluate(table *dbqguard.Table, rule *dbqguard.RuleSpec) (*dbqguard.Table, error) {
	if err := requireKind(rule, dbqguard.RuleKindValueSet); err != nil {
		return nil, err
	}

	values, err := table.Values(rule.Column)
	if err != nil {
		return nil, err
	}

	var invalid []int
	flagged := make(map[int]bool)

	if rule.Allowed != nil {
		allowed := keySet(rule.Allowed)
		for i, value := range values {
			if !allowed[dbqguard.ValueKey(value)] {
				invalid = append(invalid, i)
				flagged[i] = true
			}
		}
	}

	if rule.NotAllowed != nil {
		notAllowed := keySet(rule.NotAllowed)
		for i, value := range values {
			if !notAllowed[dbqguard.ValueKey(value)] {
				continue
			}
			if rule.Distinct && flagged[i] {
				continue
			}
			invalid = append(invalid, i)
		}
	}

	v.logger.Debug("value check evaluated",
		"rule_name", rule.Name,
		"column", rule.Column,
		"violations", len(invalid))

	return table.Subset(invalid), nil
}

func keySet(values []any) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, value := range values {
		set[dbqguard.ValueKey(value)] = true
	}
	return set
}
