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
	"io"
	"log/slog"

	"github.com/DataBridgeTech/dbqguard"
)

// ForKind returns the evaluator for a rule kind.
func ForKind(kind dbqguard.RuleKind, logger *slog.Logger) (dbqguard.RuleEvaluator, error) {
	switch kind {
	case dbqguard.RuleKindRange:
		return NewRangeValidator(logger), nil
	case dbqguard.RuleKindValueSet:
		return NewValueSetValidator(logger), nil
	case dbqguard.RuleKindStatistical:
		return NewStatisticalValidator(logger), nil
	case dbqguard.RuleKindPredicate:
		return NewPredicateValidator(logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown rule kind '%s'", dbqguard.ErrConfiguration, kind)
	}
}

func orNoop(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		// noop logger by default
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}

func requireKind(rule *dbqguard.RuleSpec, kind dbqguard.RuleKind) error {
	if rule == nil {
		return fmt.Errorf("%w: rule is not provided", dbqguard.ErrConfiguration)
	}
	if rule.Kind != kind {
		return fmt.Errorf("%w: rule '%s' of kind '%s' passed to %s evaluator", dbqguard.ErrConfiguration, rule.Name, rule.Kind, kind)
	}
	return nil
}
