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

package dbq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DataBridgeTech/dbqguard"
	"github.com/DataBridgeTech/dbqguard/connectors"
)

// ValidateDataset checks rules against a dataset held by a data source. Rules
// the adapter can translate run as queries returning only violating rows; the
// rest run in memory over the dataset, which is loaded at most once.
func (v *LocalValidator) ValidateDataset(ctx context.Context, loader dbqguard.TableLoader, adapter dbqguard.DbqRuleAdapter, dataset, where string, rules []dbqguard.RuleSpec) ([]*dbqguard.ValidationResult, error) {
	var fullTable *dbqguard.Table
	loadFull := func() (*dbqguard.Table, error) {
		if fullTable != nil {
			return fullTable, nil
		}
		table, err := connectors.LoadDataset(ctx, loader, adapter, dataset, where, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to load dataset %s: %w", dataset, err)
		}
		fullTable = table
		return fullTable, nil
	}

	results := make([]*dbqguard.ValidationResult, 0, len(rules))
	for i := range rules {
		rule := &rules[i]
		startTime := time.Now()

		violations, err := v.pushDown(ctx, loader, adapter, rule, dataset, where)
		if errors.Is(err, dbqguard.ErrPushDownUnsupported) {
			v.logger.Debug("evaluating rule in memory", "rule_name", rule.Name, "dataset", dataset)
			var table *dbqguard.Table
			if table, err = loadFull(); err == nil {
				violations, err = v.Evaluate(table, rule)
			}
		}
		if err != nil {
			return results, fmt.Errorf("rule '%s': %w", rule.Name, err)
		}

		result, err := v.complete(rule, violations, startTime)
		if err != nil {
			return results, fmt.Errorf("rule '%s': %w", rule.Name, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (v *LocalValidator) pushDown(ctx context.Context, loader dbqguard.TableLoader, adapter dbqguard.DbqRuleAdapter, rule *dbqguard.RuleSpec, dataset, where string) (*dbqguard.Table, error) {
	query, err := adapter.InterpretRule(rule, dataset, where)
	if err != nil {
		return nil, err
	}
	v.logger.Debug("running rule query", "rule_name", rule.Name, "query", query)
	return loader.LoadTable(ctx, query)
}
