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

// PredicateValidator flags the rows selected by a filter expression or a
// caller-supplied function.
type PredicateValidator struct {
	logger *slog.Logger
}

func NewPredicateValidator(logger *slog.Logger) dbqguard.RuleEvaluator {
	return &PredicateValidator{logger: orNoop(logger)}
}

func (v *PredicateValidator) Evaluate(table *dbqguard.Table, rule *dbqguard.RuleSpec) (*dbqguard.Table, error) {
	if err := requireKind(rule, dbqguard.RuleKindPredicate); err != nil {
		return nil, err
	}

	var (
		invalid *dbqguard.Table
		err     error
	)
	switch {
	case rule.Predicate != nil:
		invalid, err = v.evaluateFunc(table, rule)
	case rule.ParsedExpression != nil || rule.Expression != "":
		invalid, err = v.evaluateExpression(table, rule)
	default:
		err = fmt.Errorf("%w: rule '%s' has neither an expression nor a predicate function", dbqguard.ErrConfiguration, rule.Name)
	}
	if err != nil {
		return nil, err
	}

	v.logger.Debug("custom check evaluated",
		"rule_name", rule.Name,
		"expression", rule.Expression,
		"violations", invalid.Len())

	return invalid, nil
}

func (v *PredicateValidator) evaluateExpression(table *dbqguard.Table, rule *dbqguard.RuleSpec) (*dbqguard.Table, error) {
	expr := rule.ParsedExpression
	if expr == nil {
		parsed, err := dbqguard.ParseExpression(rule.Expression)
		if err != nil {
			return nil, err
		}
		expr = parsed
	}

	for _, column := range expr.Columns() {
		if !table.HasColumn(column) {
			return nil, &dbqguard.EvaluationError{Rule: rule.Name, Err: fmt.Errorf("name '%s' is not defined", column)}
		}
	}

	var numeric []string
	for _, column := range table.Columns() {
		if column.Type == dbqguard.DTypeNumeric {
			numeric = append(numeric, column.Name)
		}
	}

	mask := make([]bool, table.Len())
	for i := range mask {
		matched, err := expr.Eval(expressionEnv(table.Row(i), numeric))
		if err != nil {
			return nil, &dbqguard.EvaluationError{Rule: rule.Name, Err: fmt.Errorf("row %d: %w", i, err)}
		}
		mask[i] = matched
	}
	return table.Filter(mask)
}

// expressionEnv exposes missing numeric cells as NaN so ordering
// comparisons on them are false instead of failing the whole rule.
func expressionEnv(row dbqguard.Row, numeric []string) map[string]any {
	env := make(map[string]any, len(row))
	for name, value := range row {
		env[name] = value
	}
	for _, name := range numeric {
		if value, ok := env[name]; ok && value == nil {
			env[name] = math.NaN()
		}
	}
	return env
}

func (v *PredicateValidator) evaluateFunc(table *dbqguard.Table, rule *dbqguard.RuleSpec) (*dbqguard.Table, error) {
	// the predicate works on a copy so it cannot alter the caller's table
	input := dbqguard.NewTable(table.Columns(), table.Rows())

	result, err := callPredicate(rule.Predicate, input)
	if err != nil {
		return nil, &dbqguard.EvaluationError{Rule: rule.Name, Err: err}
	}

	switch r := result.(type) {
	case []bool:
		if len(r) != table.Len() {
			return nil, fmt.Errorf("%w: custom function of rule '%s' returned a mask of %d values for %d rows",
				dbqguard.ErrConfiguration, rule.Name, len(r), table.Len())
		}
		return table.Filter(r)
	case *dbqguard.Table:
		if r == nil {
			return table.Subset(nil), nil
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: custom function of rule '%s' must return []bool or *Table, got %T",
			dbqguard.ErrConfiguration, rule.Name, result)
	}
}

func callPredicate(fn dbqguard.PredicateFunc, table *dbqguard.Table) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(table)
}
