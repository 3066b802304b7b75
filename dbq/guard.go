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

import "github.com/DataBridgeTech/dbqguard"

// Guard wraps fn so that rule is checked against its input table first.
// A failing check aborts the call. Violations alone do not: fn always receives
// the original table.
func Guard[T any](v *LocalValidator, rule *dbqguard.RuleSpec, fn func(*dbqguard.Table) (T, error)) func(*dbqguard.Table) (T, error) {
	return func(table *dbqguard.Table) (T, error) {
		if _, err := v.Check(table, rule); err != nil {
			var zero T
			return zero, err
		}
		return fn(table)
	}
}

// GuardAll is Guard applied for each rule, checked in the given order.
func GuardAll[T any](v *LocalValidator, rules []*dbqguard.RuleSpec, fn func(*dbqguard.Table) (T, error)) func(*dbqguard.Table) (T, error) {
	guarded := fn
	for i := len(rules) - 1; i >= 0; i-- {
		guarded = Guard(v, rules[i], guarded)
	}
	return guarded
}
