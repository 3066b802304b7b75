package validators

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataBridgeTech/dbqguard"
)

func column(t *testing.T, table *dbqguard.Table, name string) []any {
	t.Helper()
	values, err := table.Values(name)
	require.NoError(t, err)
	return values
}

func TestForKind(t *testing.T) {
	for _, kind := range []dbqguard.RuleKind{
		dbqguard.RuleKindRange, dbqguard.RuleKindValueSet, dbqguard.RuleKindStatistical, dbqguard.RuleKindPredicate,
	} {
		evaluator, err := ForKind(kind, nil)
		require.NoError(t, err)
		assert.NotNil(t, evaluator)
	}

	_, err := ForKind("freshness", nil)
	assert.ErrorIs(t, err, dbqguard.ErrConfiguration)
}

func TestEvaluatorRejectsForeignRuleKind(t *testing.T) {
	rule, err := dbqguard.NewExpressionRule("p", "x > 1")
	require.NoError(t, err)

	_, err = NewRangeValidator(nil).Evaluate(dbqguard.NewTableFromRows([]string{"x"}, nil), rule)
	assert.ErrorIs(t, err, dbqguard.ErrConfiguration)
}

func TestRangeValidator(t *testing.T) {
	table := dbqguard.NewTableFromRows([]string{"value"}, []dbqguard.Row{
		{"value": 5}, {"value": 15}, {"value": 25}, {"value": 35}, {"value": 10}, {"value": nil},
	})

	t.Run("union of borders", func(t *testing.T) {
		rule, err := dbqguard.NewRangeRule("bounds", "value",
			dbqguard.Border{Low: 0, High: 10}, dbqguard.Border{Low: 20, High: 30})
		require.NoError(t, err)

		violations, err := NewRangeValidator(nil).Evaluate(table, rule)
		require.NoError(t, err)
		assert.Equal(t, []any{15, 35, nil}, column(t, violations, "value"))
	})

	t.Run("no borders flags every row", func(t *testing.T) {
		rule, err := dbqguard.NewRangeRule("bounds", "value")
		require.NoError(t, err)

		violations, err := NewRangeValidator(nil).Evaluate(table, rule)
		require.NoError(t, err)
		assert.Equal(t, table.Len(), violations.Len())
	})

	t.Run("missing column", func(t *testing.T) {
		rule, err := dbqguard.NewRangeRule("bounds", "price", dbqguard.Border{Low: 0, High: 1})
		require.NoError(t, err)

		_, err = NewRangeValidator(nil).Evaluate(table, rule)
		assert.ErrorIs(t, err, dbqguard.ErrSchema)
	})

	t.Run("non numeric column", func(t *testing.T) {
		text := dbqguard.NewTableFromRows([]string{"value"}, []dbqguard.Row{{"value": "a"}})
		rule, err := dbqguard.NewRangeRule("bounds", "value", dbqguard.Border{Low: 0, High: 1})
		require.NoError(t, err)

		_, err = NewRangeValidator(nil).Evaluate(text, rule)
		assert.ErrorIs(t, err, dbqguard.ErrTypeMismatch)
	})

	t.Run("source table untouched", func(t *testing.T) {
		rule, err := dbqguard.NewRangeRule("bounds", "value", dbqguard.Border{Low: 0, High: 10})
		require.NoError(t, err)

		before := table.Rows()
		_, err = NewRangeValidator(nil).Evaluate(table, rule)
		require.NoError(t, err)
		assert.Equal(t, before, table.Rows())
	})
}

func TestValueSetValidator(t *testing.T) {
	table := dbqguard.NewTableFromRows([]string{"id", "category"}, []dbqguard.Row{
		{"id": 1, "category": "A"},
		{"id": 2, "category": "B"},
		{"id": 3, "category": "C"},
		{"id": 4, "category": "X"},
		{"id": 5, "category": "A"},
	})

	t.Run("allowed list", func(t *testing.T) {
		rule, err := dbqguard.NewValueSetRule("cats", "category", []any{"A", "B"}, nil)
		require.NoError(t, err)

		violations, err := NewValueSetValidator(nil).Evaluate(table, rule)
		require.NoError(t, err)
		assert.Equal(t, []any{3, 4}, column(t, violations, "id"))
	})

	t.Run("allowed and not allowed lists", func(t *testing.T) {
		rule, err := dbqguard.NewValueSetRule("cats", "category", []any{"A", "B", "C"}, []any{"C"})
		require.NoError(t, err)

		violations, err := NewValueSetValidator(nil).Evaluate(table, rule)
		require.NoError(t, err)
		assert.Equal(t, []any{"X", "C"}, column(t, violations, "category"))
	})

	t.Run("row failing both lists is kept twice", func(t *testing.T) {
		rule, err := dbqguard.NewValueSetRule("cats", "category", []any{"A"}, []any{"X"})
		require.NoError(t, err)

		violations, err := NewValueSetValidator(nil).Evaluate(table, rule)
		require.NoError(t, err)
		assert.Equal(t, []any{2, 3, 4, 4}, column(t, violations, "id"))
	})

	t.Run("distinct drops the second copy", func(t *testing.T) {
		rule, err := dbqguard.NewValueSetRule("cats", "category", []any{"A"}, []any{"X"})
		require.NoError(t, err)
		rule.Distinct = true

		violations, err := NewValueSetValidator(nil).Evaluate(table, rule)
		require.NoError(t, err)
		assert.Equal(t, []any{2, 3, 4}, column(t, violations, "id"))
	})

	t.Run("numeric values match across types", func(t *testing.T) {
		rule, err := dbqguard.NewValueSetRule("ids", "id", []any{1.0, int64(2), 3, 4, 5}, nil)
		require.NoError(t, err)

		violations, err := NewValueSetValidator(nil).Evaluate(table, rule)
		require.NoError(t, err)
		assert.True(t, violations.IsEmpty())
	})
}

func TestStatisticalValidatorContinuous(t *testing.T) {
	rows := make([]dbqguard.Row, 0, 21)
	for i := 0; i < 20; i++ {
		rows = append(rows, dbqguard.Row{"amount": 1.0})
	}
	rows = append(rows, dbqguard.Row{"amount": 100.0})
	table := dbqguard.NewTableFromRows([]string{"amount"}, rows)

	rule, err := dbqguard.NewStatisticalRule("outliers", "amount", "medium", "continuous")
	require.NoError(t, err)

	first, err := NewStatisticalValidator(nil).Evaluate(table, rule)
	require.NoError(t, err)
	assert.Equal(t, []any{100.0}, column(t, first, "amount"))

	second, err := NewStatisticalValidator(nil).Evaluate(table, rule)
	require.NoError(t, err)
	assert.Equal(t, first.Rows(), second.Rows())
}

func TestStatisticalValidatorSensitivity(t *testing.T) {
	// z-score of the last row is about 2.7, the others stay below 1.2
	values := []float64{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 6}
	rows := make([]dbqguard.Row, len(values))
	for i, v := range values {
		rows[i] = dbqguard.Row{"x": v}
	}
	table := dbqguard.NewTableFromRows([]string{"x"}, rows)

	summary, err := dbqguard.SummarizeNumeric(column(t, table, "x"))
	require.NoError(t, err)
	lastZ := (6 - summary.Mean) / summary.Stddev
	require.Greater(t, lastZ, 2.0)
	require.Less(t, lastZ, 3.0)

	sensitive, err := dbqguard.NewStatisticalRule("s", "x", "sensitive", "continuous")
	require.NoError(t, err)
	medium, err := dbqguard.NewStatisticalRule("m", "x", "medium", "continuous")
	require.NoError(t, err)

	flagged, err := NewStatisticalValidator(nil).Evaluate(table, sensitive)
	require.NoError(t, err)
	assert.Equal(t, []any{6.0}, column(t, flagged, "x"))

	flagged, err = NewStatisticalValidator(nil).Evaluate(table, medium)
	require.NoError(t, err)
	assert.True(t, flagged.IsEmpty())
}

func TestStatisticalValidatorDiscrete(t *testing.T) {
	rows := make([]dbqguard.Row, 0, 200)
	for i := 0; i < 199; i++ {
		rows = append(rows, dbqguard.Row{"id": i, "category": "A"})
	}
	rows = append(rows, dbqguard.Row{"id": 199, "category": "B"})
	table := dbqguard.NewTableFromRows([]string{"id", "category"}, rows)

	rule, err := dbqguard.NewStatisticalRule("rare", "category", "medium", "discrete")
	require.NoError(t, err)

	violations, err := NewStatisticalValidator(nil).Evaluate(table, rule)
	require.NoError(t, err)
	assert.Equal(t, []any{199}, column(t, violations, "id"))

	t.Run("frequent enough minority", func(t *testing.T) {
		rows := make([]dbqguard.Row, 0, 100)
		for i := 0; i < 100; i++ {
			category := "A"
			if i >= 95 {
				category = "B"
			}
			rows = append(rows, dbqguard.Row{"category": category})
		}
		table := dbqguard.NewTableFromRows([]string{"category"}, rows)

		for _, sensitivity := range []string{"medium", "sensitive"} {
			rule, err := dbqguard.NewStatisticalRule("rare", "category", sensitivity, "discrete")
			require.NoError(t, err)

			violations, err := NewStatisticalValidator(nil).Evaluate(table, rule)
			require.NoError(t, err)
			assert.True(t, violations.IsEmpty(), sensitivity)
		}
	})

	t.Run("inferred as discrete", func(t *testing.T) {
		inferred, err := dbqguard.NewStatisticalRule("rare", "category", "medium", "")
		require.NoError(t, err)

		violations, err := NewStatisticalValidator(nil).Evaluate(table, inferred)
		require.NoError(t, err)
		assert.Equal(t, 1, violations.Len())
	})
}

func TestStatisticalValidatorEdgeCases(t *testing.T) {
	rule, err := dbqguard.NewStatisticalRule("outliers", "x", "sensitive", "continuous")
	require.NoError(t, err)

	t.Run("no variance", func(t *testing.T) {
		table := dbqguard.NewTableFromRows([]string{"x"}, []dbqguard.Row{{"x": 4}, {"x": 4}, {"x": 4}})
		violations, err := NewStatisticalValidator(nil).Evaluate(table, rule)
		require.NoError(t, err)
		assert.True(t, violations.IsEmpty())
	})

	t.Run("empty table", func(t *testing.T) {
		table := dbqguard.NewTable([]dbqguard.Column{{Name: "x", Type: dbqguard.DTypeNumeric}}, nil)
		violations, err := NewStatisticalValidator(nil).Evaluate(table, rule)
		require.NoError(t, err)
		assert.True(t, violations.IsEmpty())
	})

	t.Run("continuous on text", func(t *testing.T) {
		table := dbqguard.NewTableFromRows([]string{"x"}, []dbqguard.Row{{"x": "a"}, {"x": "b"}})
		_, err := NewStatisticalValidator(nil).Evaluate(table, rule)
		assert.ErrorIs(t, err, dbqguard.ErrTypeMismatch)
	})

	t.Run("invalid sensitivity", func(t *testing.T) {
		bad := &dbqguard.RuleSpec{Name: "bad", Kind: dbqguard.RuleKindStatistical, Column: "x", Sensitivity: "loud"}
		table := dbqguard.NewTableFromRows([]string{"x"}, []dbqguard.Row{{"x": 1}})
		_, err := NewStatisticalValidator(nil).Evaluate(table, bad)
		assert.ErrorIs(t, err, dbqguard.ErrConfiguration)
	})
}

func TestPredicateValidatorExpression(t *testing.T) {
	table := dbqguard.NewTableFromRows([]string{"id", "qty", "status"}, []dbqguard.Row{
		{"id": 1, "qty": 3, "status": "paid"},
		{"id": 2, "qty": -1, "status": "paid"},
		{"id": 3, "qty": 2, "status": "void"},
	})

	rule, err := dbqguard.NewExpressionRule("bad_orders", "qty < 0 or status == 'void'")
	require.NoError(t, err)

	violations, err := NewPredicateValidator(nil).Evaluate(table, rule)
	require.NoError(t, err)
	assert.Equal(t, []any{2, 3}, column(t, violations, "id"))

	t.Run("unknown column", func(t *testing.T) {
		rule, err := dbqguard.NewExpressionRule("bad_orders", "price < 0")
		require.NoError(t, err)

		_, err = NewPredicateValidator(nil).Evaluate(table, rule)
		var evalErr *dbqguard.EvaluationError
		require.ErrorAs(t, err, &evalErr)
		assert.Equal(t, "bad_orders", evalErr.Rule)
		assert.ErrorIs(t, err, dbqguard.ErrEvaluation)
		assert.ErrorIs(t, err, dbqguard.ErrConfiguration)
		assert.Contains(t, err.Error(), "name 'price' is not defined")
	})

	t.Run("type error while matching", func(t *testing.T) {
		rule, err := dbqguard.NewExpressionRule("bad_orders", "status > 3")
		require.NoError(t, err)

		_, err = NewPredicateValidator(nil).Evaluate(table, rule)
		assert.ErrorIs(t, err, dbqguard.ErrEvaluation)
	})
}

func TestPredicateValidatorExpressionArithmetic(t *testing.T) {
	table := dbqguard.NewTableFromRows([]string{"id", "qty", "price", "delta", "limit"}, []dbqguard.Row{
		{"id": 1, "qty": 10, "price": 20.0, "delta": 1, "limit": 100},
		{"id": 2, "qty": 2, "price": 5.0, "delta": -7, "limit": 100},
		{"id": 3, "qty": 4, "price": nil, "delta": 0, "limit": 1},
	})

	tests := []struct {
		expression string
		expected   []any
	}{
		{"qty * price > 100", []any{1}},
		{"abs(delta) > 3", []any{2}},
		{"qty > limit + 2", []any{3}},
		{"price < 10", []any{2}},
		{"isnull(price)", []any{3}},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			rule, err := dbqguard.NewExpressionRule("arith", tt.expression)
			require.NoError(t, err)

			violations, err := NewPredicateValidator(nil).Evaluate(table, rule)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, column(t, violations, "id"))
		})
	}
}

func TestPredicateValidatorFunc(t *testing.T) {
	table := dbqguard.NewTableFromRows([]string{"id"}, []dbqguard.Row{{"id": 1}, {"id": 2}, {"id": 3}})
	boom := errors.New("boom")

	tests := []struct {
		name     string
		fn       dbqguard.PredicateFunc
		expected []any
		wantErr  error
	}{
		{
			name:     "boolean mask",
			fn:       func(*dbqguard.Table) (any, error) { return []bool{false, true, true}, nil },
			expected: []any{2, 3},
		},
		{
			name: "table of rows",
			fn: func(t *dbqguard.Table) (any, error) {
				return t.Subset([]int{0}), nil
			},
			expected: []any{1},
		},
		{
			name:     "nil table",
			fn:       func(*dbqguard.Table) (any, error) { return (*dbqguard.Table)(nil), nil },
			expected: []any{},
		},
		{
			name:    "mask of wrong length",
			fn:      func(*dbqguard.Table) (any, error) { return []bool{true}, nil },
			wantErr: dbqguard.ErrConfiguration,
		},
		{
			name:    "unsupported return type",
			fn:      func(*dbqguard.Table) (any, error) { return 42, nil },
			wantErr: dbqguard.ErrConfiguration,
		},
		{
			name:    "returned error",
			fn:      func(*dbqguard.Table) (any, error) { return nil, boom },
			wantErr: boom,
		},
		{
			name:    "panic",
			fn:      func(*dbqguard.Table) (any, error) { panic("bad logic") },
			wantErr: dbqguard.ErrEvaluation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := dbqguard.NewPredicateRule("custom", tt.fn)
			require.NoError(t, err)

			violations, err := NewPredicateValidator(nil).Evaluate(table, rule)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, column(t, violations, "id"))
		})
	}
}

func TestPredicateFuncCannotModifyInput(t *testing.T) {
	table := dbqguard.NewTableFromRows([]string{"id"}, []dbqguard.Row{{"id": 1}})

	rule, err := dbqguard.NewPredicateRule("custom", func(t *dbqguard.Table) (any, error) {
		for _, row := range t.Rows() {
			row["id"] = 99
		}
		return []bool{false}, nil
	})
	require.NoError(t, err)

	_, err = NewPredicateValidator(nil).Evaluate(table, rule)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Row(0)["id"])
}
