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
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned for malformed rule parameters, unknown sensitivity or
	// data type values and unsupported output formats.
	ErrConfiguration = errors.New("invalid validation configuration")

	// ErrSchema is returned when a rule references a column the table does not have.
	ErrSchema = errors.New("column not found")

	// ErrEvaluation is returned when custom logic fails while being evaluated.
	// Errors wrapping it also match ErrConfiguration.
	ErrEvaluation = errors.New("custom logic evaluation failed")

	// ErrTypeMismatch is returned when a numeric check runs on a non-numeric column.
	ErrTypeMismatch = errors.New("column type mismatch")
)

// EvaluationError carries the original failure of a custom check. It matches
// both ErrEvaluation and ErrConfiguration.
type EvaluationError struct {
	Rule string
	Err  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("error in custom logic of rule '%s': %v", e.Rule, e.Err)
}

func (e *EvaluationError) Unwrap() []error {
	return []error{ErrEvaluation, ErrConfiguration, e.Err}
}

// ErrPushDownUnsupported is returned by rule adapters for rules that can only
// be evaluated in memory.
var ErrPushDownUnsupported = errors.New("rule cannot be pushed down to the data source")
