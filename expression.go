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
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

// Expression is a compiled boolean filter over the columns of one row.
// The language is expr (https://expr-lang.org): comparisons, and/or/not,
// in/not in, arithmetic and builtins such as abs are all available, plus
// isnull(x) for missing cells.
type Expression struct {
	source  string
	program *vm.Program
	columns []string
}

var expressionFunctions = []expr.Option{
	expr.Function("isnull", func(params ...any) (any, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("isnull expects 1 argument, got %d", len(params))
		}
		return IsNull(params[0]), nil
	}),
}

// ParseExpression compiles source into an Expression. Syntax errors and
// non-boolean results are configuration errors.
func ParseExpression(source string) (*Expression, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrConfiguration)
	}

	opts := append([]expr.Option{expr.AsBool()}, expressionFunctions...)
	program, err := expr.Compile(source, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: expression '%s': %v", ErrConfiguration, source, err)
	}

	tree, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: expression '%s': %v", ErrConfiguration, source, err)
	}
	collector := &columnCollector{declared: map[string]bool{}, callees: map[string]bool{}}
	ast.Walk(&tree.Node, collector)

	return &Expression{source: source, program: program, columns: collector.result()}, nil
}

func (e *Expression) String() string {
	return e.source
}

// Columns lists the column names referenced by the expression, in order of
// first appearance.
func (e *Expression) Columns() []string {
	return slices.Clone(e.columns)
}

// Eval runs the expression with env as its variables.
func (e *Expression) Eval(env map[string]any) (bool, error) {
	out, err := expr.Run(e.program, env)
	if err != nil {
		return false, err
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression '%s' returned %T, want bool", e.source, out)
	}
	return matched, nil
}

// Match evaluates the expression against a single row.
func (e *Expression) Match(row Row) (bool, error) {
	return e.Eval(map[string]any(row))
}

type columnCollector struct {
	names    []string
	declared map[string]bool
	callees  map[string]bool
}

func (c *columnCollector) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		if !slices.Contains(c.names, n.Value) {
			c.names = append(c.names, n.Value)
		}
	case *ast.CallNode:
		if callee, ok := n.Callee.(*ast.IdentifierNode); ok {
			c.callees[callee.Value] = true
		}
	case *ast.VariableDeclaratorNode:
		c.declared[n.Name] = true
	}
}

func (c *columnCollector) result() []string {
	out := make([]string, 0, len(c.names))
	for _, name := range c.names {
		if c.declared[name] || c.callees[name] {
			continue
		}
		out = append(out, name)
	}
	return out
}
