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
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/DataBridgeTech/dbqguard"
	"github.com/DataBridgeTech/dbqguard/sink"
	"github.com/DataBridgeTech/dbqguard/validators"
)

// LocalValidator evaluates rules against in-memory tables and records the
// violations through its sink. It is not safe for concurrent use.
type LocalValidator struct {
	cfg      dbqguard.ValidatorConfig
	sink     *sink.ViolationSink
	recorder dbqguard.ViolationRecorder
	logger   *slog.Logger
}

func NewLocalValidator(cfg dbqguard.ValidatorConfig, logger *slog.Logger, opts ...sink.Option) (*LocalValidator, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	violationSink, err := sink.NewViolationSink(cfg, logger, opts...)
	if err != nil {
		return nil, err
	}

	return &LocalValidator{
		cfg:      cfg,
		sink:     violationSink,
		recorder: violationSink,
		logger:   logger,
	}, nil
}

func (v *LocalValidator) Config() dbqguard.ValidatorConfig {
	return v.cfg
}

func (v *LocalValidator) Sink() *sink.ViolationSink {
	return v.sink
}

// Evaluate returns the rows of table violating rule without recording them.
func (v *LocalValidator) Evaluate(table *dbqguard.Table, rule *dbqguard.RuleSpec) (*dbqguard.Table, error) {
	if rule == nil {
		return nil, fmt.Errorf("%w: rule is not provided", dbqguard.ErrConfiguration)
	}

	evaluator, err := validators.ForKind(rule.Kind, v.logger)
	if err != nil {
		return nil, err
	}
	return evaluator.Evaluate(table, rule)
}

// Check evaluates rule and records its violations when storage is enabled.
func (v *LocalValidator) Check(table *dbqguard.Table, rule *dbqguard.RuleSpec) (*dbqguard.ValidationResult, error) {
	startTime := time.Now()

	violations, err := v.Evaluate(table, rule)
	if err != nil {
		return nil, err
	}

	return v.complete(rule, violations, startTime)
}

func (v *LocalValidator) complete(rule *dbqguard.RuleSpec, violations *dbqguard.Table, startTime time.Time) (*dbqguard.ValidationResult, error) {
	result := &dbqguard.ValidationResult{
		RuleName:       rule.Name,
		Kind:           rule.Kind,
		Pass:           violations.IsEmpty(),
		ViolationCount: violations.Len(),
		Violations:     violations,
	}

	if v.cfg.Store && !violations.IsEmpty() {
		if err := v.recorder.Record(violations, rule.Name); err != nil {
			return nil, err
		}
		result.Recorded = true
	}

	result.DurationMs = time.Since(startTime).Milliseconds()
	v.logger.Debug("rule executed",
		"rule_name", rule.Name,
		"violations", result.ViolationCount,
		"duration_ms", result.DurationMs)

	return result, nil
}

// RunRules checks rules in order and stops at the first error, returning the
// results gathered so far.
func (v *LocalValidator) RunRules(table *dbqguard.Table, rules []dbqguard.RuleSpec) ([]*dbqguard.ValidationResult, error) {
	results := make([]*dbqguard.ValidationResult, 0, len(rules))
	for i := range rules {
		result, err := v.Check(table, &rules[i])
		if err != nil {
			return results, fmt.Errorf("rule '%s': %w", rules[i].Name, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// Close flushes the sink and rejects further records.
func (v *LocalValidator) Close() error {
	return v.sink.Close()
}
