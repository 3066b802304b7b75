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

// ValidationNameColumn tags every persisted violation with the rule that flagged it.
const ValidationNameColumn = "Validation Name"

// ValidationResult represents the outcome of running one rule against one table.
type ValidationResult struct {
	RuleName       string   `json:"rule_name"`
	Kind           RuleKind `json:"kind"`
	Pass           bool     `json:"pass"`
	ViolationCount int      `json:"violation_count"`
	Recorded       bool     `json:"recorded"`
	DurationMs     int64    `json:"duration_ms"`
	Violations     *Table   `json:"-"`
}

// RuleEvaluator is the interface that wraps the basic rule evaluation method.
type RuleEvaluator interface {
	// Evaluate returns a copy of the rows of table that violate rule.
	// The table itself is never modified.
	Evaluate(table *Table, rule *RuleSpec) (*Table, error)
}

// ViolationRecorder is the interface that wraps persisting violating rows.
type ViolationRecorder interface {
	// Record stores a batch of violating rows under the name of the rule that produced it.
	Record(batch *Table, validationName string) error
}
