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
	"io"
	"log/slog"

	"github.com/DataBridgeTech/dbqguard"
)

type ClickhouseDbqRuleAdapter struct {
	logger *slog.Logger
}

func NewClickhouseDbqRuleAdapter(logger *slog.Logger) dbqguard.DbqRuleAdapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &ClickhouseDbqRuleAdapter{logger: logger}
}

func (a *ClickhouseDbqRuleAdapter) InterpretRule(rule *dbqguard.RuleSpec, dataset string, whereClause string) (string, error) {
	return buildRuleQuery(rule, dataset, whereClause, doubleQuote, a.logger)
}

func (a *ClickhouseDbqRuleAdapter) SelectQuery(dataset string, whereClause string, limit int) string {
	return selectQuery(dataset, whereClause, limit)
}
