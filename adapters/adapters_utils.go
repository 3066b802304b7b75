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

package adapters

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/DataBridgeTech/dbqguard"
)

// quoteFunc quotes a column name for a specific SQL dialect.
type quoteFunc func(string) string

func doubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func backtickQuote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func requireColumn(rule *dbqguard.RuleSpec) error {
	if rule.Column == "" {
		return fmt.Errorf("%s check requires a column parameter", rule.Kind)
	}
	return nil
}

// buildRuleQuery renders a SELECT returning the violating rows of dataset. NULL
// cells are selected wherever the in-memory evaluators would flag them.
func buildRuleQuery(rule *dbqguard.RuleSpec, dataset, whereClause string, quote quoteFunc, logger *slog.Logger) (string, error) {
	if rule == nil {
		return "", fmt.Errorf("%w: rule is not provided", dbqguard.ErrConfiguration)
	}

	var sqlQuery string
	switch rule.Kind {
	case dbqguard.RuleKindRange:
		if err := requireColumn(rule); err != nil {
			return "", err
		}
		sqlQuery = selectWhere(dataset, rangeViolation(quote(rule.Column), rule.Borders), whereClause)

	case dbqguard.RuleKindValueSet:
		if err := requireColumn(rule); err != nil {
			return "", err
		}
		column := quote(rule.Column)

		var conditions []string
		if rule.Allowed != nil {
			conditions = append(conditions, notAllowedByList(column, rule.Allowed))
		}
		if rule.NotAllowed != nil {
			conditions = append(conditions, inList(column, rule.NotAllowed))
		}
		if len(conditions) == 0 {
			return "", fmt.Errorf("%w: rule '%s' requires 'allowed' or 'not_allowed' values", dbqguard.ErrConfiguration, rule.Name)
		}

		if len(conditions) == 2 && !rule.Distinct {
			// keeps rows failing both lists twice, like the in-memory evaluator
			sqlQuery = fmt.Sprintf("%s UNION ALL %s",
				selectWhere(dataset, conditions[0], whereClause),
				selectWhere(dataset, conditions[1], whereClause))
		} else {
			sqlQuery = selectWhere(dataset, strings.Join(conditions, " OR "), whereClause)
		}

	default:
		return "", fmt.Errorf("%w: %s rule '%s'", dbqguard.ErrPushDownUnsupported, rule.Kind, rule.Name)
	}

	logger.Debug("generated rule query",
		"rule_name", rule.Name,
		"kind", rule.Kind,
		"query", sqlQuery)

	return sqlQuery, nil
}

func selectQuery(dataset, whereClause string, limit int) string {
	sqlQuery := fmt.Sprintf("SELECT * FROM %s", dataset)
	if whereClause != "" {
		sqlQuery = fmt.Sprintf("%s WHERE %s", sqlQuery, whereClause)
	}
	if limit > 0 {
		sqlQuery = fmt.Sprintf("%s LIMIT %d", sqlQuery, limit)
	}
	return sqlQuery
}

func selectWhere(dataset, condition, whereClause string) string {
	sqlQuery := fmt.Sprintf("SELECT * FROM %s", dataset)
	switch {
	case condition != "" && whereClause != "":
		sqlQuery = fmt.Sprintf("%s WHERE (%s) AND (%s)", sqlQuery, condition, whereClause)
	case condition != "":
		sqlQuery = fmt.Sprintf("%s WHERE %s", sqlQuery, condition)
	case whereClause != "":
		sqlQuery = fmt.Sprintf("%s WHERE %s", sqlQuery, whereClause)
	}
	return sqlQuery
}

// rangeViolation is empty when every row violates (no borders).
func rangeViolation(column string, borders []dbqguard.Border) string {
	if len(borders) == 0 {
		return ""
	}
	ranges := make([]string, len(borders))
	for i, b := range borders {
		ranges[i] = fmt.Sprintf("%s BETWEEN %s AND %s", column, formatFloat(b.Low), formatFloat(b.High))
	}
	return fmt.Sprintf("NOT (%s) OR %s IS NULL", strings.Join(ranges, " OR "), column)
}

func notAllowedByList(column string, values []any) string {
	literals, hasNull := literalList(values)
	switch {
	case len(literals) == 0 && hasNull:
		return fmt.Sprintf("%s IS NOT NULL", column)
	case len(literals) == 0:
		return "1 = 1"
	case hasNull:
		return fmt.Sprintf("%s NOT IN (%s)", column, strings.Join(literals, ", "))
	default:
		return fmt.Sprintf("%s NOT IN (%s) OR %s IS NULL", column, strings.Join(literals, ", "), column)
	}
}

func inList(column string, values []any) string {
	literals, hasNull := literalList(values)
	switch {
	case len(literals) == 0 && hasNull:
		return fmt.Sprintf("%s IS NULL", column)
	case len(literals) == 0:
		return "1 = 0"
	case hasNull:
		return fmt.Sprintf("%s IN (%s) OR %s IS NULL", column, strings.Join(literals, ", "), column)
	default:
		return fmt.Sprintf("%s IN (%s)", column, strings.Join(literals, ", "))
	}
}

func literalList(values []any) ([]string, bool) {
	var literals []string
	hasNull := false
	for _, v := range values {
		if dbqguard.IsNull(v) {
			hasNull = true
			continue
		}
		literals = append(literals, sqlLiteral(v))
	}
	return literals, hasNull
}

func sqlLiteral(v any) string {
	if f, ok := dbqguard.ToFloat(v); ok {
		return formatFloat(f)
	}
	switch x := v.(type) {
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return "'" + x.UTC().Format("2006-01-02 15:04:05") + "'"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(v), "'", "''") + "'"
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
