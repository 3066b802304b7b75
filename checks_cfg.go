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
	"os"

	"gopkg.in/yaml.v3"
)

// RulesFileConfig is the content of a rules file.
type RulesFileConfig struct {
	Version    string          `yaml:"version"`
	Validator  ValidatorConfig `yaml:"validator"`
	DataSource *DataSource     `yaml:"datasource,omitempty"`
	Rules      []RuleSpec      `yaml:"rules"`
}

var checkKinds = map[string]RuleKind{
	"range_check":       RuleKindRange,
	"value_check":       RuleKindValueSet,
	"statistical_check": RuleKindStatistical,
	"custom_check":      RuleKindPredicate,
}

type ruleNode struct {
	Name        string      `yaml:"name"`
	Column      string      `yaml:"column,omitempty"`
	Desc        string      `yaml:"desc,omitempty"`
	Borders     [][]float64 `yaml:"borders,omitempty"`
	Allowed     []any       `yaml:"allowed,omitempty"`
	NotAllowed  []any       `yaml:"not_allowed,omitempty"`
	Distinct    bool        `yaml:"distinct,omitempty"`
	Sensitivity string      `yaml:"sensitivity,omitempty"`
	DataType    string      `yaml:"data_type,omitempty"`
	Logic       string      `yaml:"logic,omitempty"`
}

// UnmarshalYAML decodes the "<kind>_check: {...}" form, e.g.
//
//	- range_check:
//	    name: amount_bounds
//	    column: amount
//	    borders: [[0, 10], [20, 30]]
func (r *RuleSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("%w: line %d: rule must be a single '<kind>_check' mapping", ErrConfiguration, node.Line)
	}

	key := node.Content[0].Value
	kind, ok := checkKinds[key]
	if !ok {
		return fmt.Errorf("%w: line %d: unknown check '%s'", ErrConfiguration, node.Line, key)
	}

	var details ruleNode
	if err := node.Content[1].Decode(&details); err != nil {
		return fmt.Errorf("%w: line %d: %v", ErrConfiguration, node.Line, err)
	}

	*r = RuleSpec{
		Name:        details.Name,
		Kind:        kind,
		Column:      details.Column,
		Description: details.Desc,
		Allowed:     details.Allowed,
		NotAllowed:  details.NotAllowed,
		Distinct:    details.Distinct,
		Sensitivity: Sensitivity(details.Sensitivity),
		DataType:    DataType(details.DataType),
		Expression:  details.Logic,
	}

	if kind == RuleKindRange {
		r.Borders = make([]Border, 0, len(details.Borders))
		for _, pair := range details.Borders {
			if len(pair) != 2 {
				return fmt.Errorf("%w: line %d: each border must be a [low, high] pair", ErrConfiguration, node.Line)
			}
			r.Borders = append(r.Borders, Border{Low: pair[0], High: pair[1]})
		}
	}

	if err := r.Validate(); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}

// ParseRulesFileConfig decodes a rules file. Validator settings missing from
// the document keep their defaults; DBQGUARD_* environment variables win over both.
func ParseRulesFileConfig(data []byte) (*RulesFileConfig, error) {
	cfg := RulesFileConfig{Validator: DefaultValidatorConfig()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validator.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validator.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func LoadRulesFileConfig(fileName string) (*RulesFileConfig, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	return ParseRulesFileConfig(data)
}
