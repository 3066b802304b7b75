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
	"strings"
)

// RuleKind is one of the four supported rule kinds.
type RuleKind string

const (
	RuleKindRange       RuleKind = "range"
	RuleKindValueSet    RuleKind = "value_set"
	RuleKindStatistical RuleKind = "statistical"
	RuleKindPredicate   RuleKind = "predicate"
)

// Border is an inclusive numeric interval.
type Border struct {
	Low  float64
	High float64
}

// Contains reports whether v lies within the border, bounds included.
func (b Border) Contains(v float64) bool {
	return v >= b.Low && v <= b.High
}

// PredicateFunc is custom check logic. It must return either a []bool mask
// aligned with the table rows or a *Table holding the flagged rows.
type PredicateFunc func(table *Table) (any, error)

// RuleSpec is the immutable configuration of a single validation rule.
// Build it with one of the New*Rule constructors or load it from a rules file.
type RuleSpec struct {
	Name        string
	Kind        RuleKind
	Column      string
	Description string

	// range
	Borders []Border

	// value set
	Allowed    []any
	NotAllowed []any
	Distinct   bool // drop rows flagged by both lists from the second pass

	// statistical
	Sensitivity Sensitivity
	DataType    DataType // empty means inferred

	// predicate
	Expression       string
	ParsedExpression *Expression
	Predicate        PredicateFunc
}

// NewRangeRule flags rows whose column value lies outside every border.
func NewRangeRule(name, column string, borders ...Border) (*RuleSpec, error) {
	rule := &RuleSpec{
		Name:    name,
		Kind:    RuleKindRange,
		Column:  column,
		Borders: borders,
	}
	return rule, rule.Validate()
}

// NewValueSetRule flags rows whose value is outside allowed or inside notAllowed.
// Either list may be nil, not both.
func NewValueSetRule(name, column string, allowed, notAllowed []any) (*RuleSpec, error) {
	rule := &RuleSpec{
		Name:       name,
		Kind:       RuleKindValueSet,
		Column:     column,
		Allowed:    allowed,
		NotAllowed: notAllowed,
	}
	return rule, rule.Validate()
}

// NewStatisticalRule flags outliers (continuous) or minority values (discrete).
// dataType may be empty to let the classifier decide.
func NewStatisticalRule(name, column, sensitivity, dataType string) (*RuleSpec, error) {
	s, err := ParseSensitivity(sensitivity)
	if err != nil {
		return nil, err
	}
	dt, err := ParseDataType(dataType)
	if err != nil {
		return nil, err
	}
	rule := &RuleSpec{
		Name:        name,
		Kind:        RuleKindStatistical,
		Column:      column,
		Sensitivity: s,
		DataType:    dt,
	}
	return rule, rule.Validate()
}

// NewExpressionRule flags the rows matched by a filter expression.
func NewExpressionRule(name, expression string) (*RuleSpec, error) {
	rule := &RuleSpec{
		Name:       name,
		Kind:       RuleKindPredicate,
		Expression: expression,
	}
	return rule, rule.Validate()
}

// NewPredicateRule flags the rows selected by fn.
func NewPredicateRule(name string, fn PredicateFunc) (*RuleSpec, error) {
	rule := &RuleSpec{
		Name:      name,
		Kind:      RuleKindPredicate,
		Predicate: fn,
	}
	return rule, rule.Validate()
}

// Validate checks the rule shape. Expression rules get their expression parsed here.
func (r *RuleSpec) Validate() error {
	if err := ValidateValidationName(r.Name); err != nil {
		return err
	}

	switch r.Kind {
	case RuleKindRange:
		return r.requireColumn()

	case RuleKindValueSet:
		if err := r.requireColumn(); err != nil {
			return err
		}
		if r.Allowed == nil && r.NotAllowed == nil {
			return fmt.Errorf("%w: rule '%s' requires 'allowed' or 'not_allowed' values", ErrConfiguration, r.Name)
		}
		return nil

	case RuleKindStatistical:
		if err := r.requireColumn(); err != nil {
			return err
		}
		s, err := ParseSensitivity(string(r.Sensitivity))
		if err != nil {
			return err
		}
		r.Sensitivity = s
		dt, err := ParseDataType(string(r.DataType))
		if err != nil {
			return err
		}
		r.DataType = dt
		return nil

	case RuleKindPredicate:
		hasExpr := strings.TrimSpace(r.Expression) != ""
		if hasExpr == (r.Predicate != nil) {
			return fmt.Errorf("%w: rule '%s' requires either an expression or a predicate function", ErrConfiguration, r.Name)
		}
		if hasExpr && r.ParsedExpression == nil {
			parsed, err := ParseExpression(r.Expression)
			if err != nil {
				return err
			}
			r.ParsedExpression = parsed
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown rule kind '%s'", ErrConfiguration, r.Kind)
	}
}

func (r *RuleSpec) requireColumn() error {
	if strings.TrimSpace(r.Column) == "" {
		return fmt.Errorf("%w: rule '%s' requires a column", ErrConfiguration, r.Name)
	}
	return nil
}

// ValidateValidationName rejects names that cannot be used as a log file name.
func ValidateValidationName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: validation name is required", ErrConfiguration)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: validation name '%s' must not contain path separators", ErrConfiguration, name)
	}
	return nil
}
