package dbqguard

import (
	"errors"
	"reflect"
	"testing"
)

func TestRuleConstructors(t *testing.T) {
	okPredicate := func(*Table) (any, error) { return []bool{}, nil }

	tests := []struct {
		name    string
		build   func() (*RuleSpec, error)
		wantErr error
	}{
		{
			name:  "range rule",
			build: func() (*RuleSpec, error) { return NewRangeRule("bounds", "amount", Border{0, 10}) },
		},
		{
			name:    "range rule without column",
			build:   func() (*RuleSpec, error) { return NewRangeRule("bounds", "", Border{0, 10}) },
			wantErr: ErrConfiguration,
		},
		{
			name:  "value set with allow list only",
			build: func() (*RuleSpec, error) { return NewValueSetRule("status", "status", []any{"new"}, nil) },
		},
		{
			name:    "value set without lists",
			build:   func() (*RuleSpec, error) { return NewValueSetRule("status", "status", nil, nil) },
			wantErr: ErrConfiguration,
		},
		{
			name:  "statistical with inferred type",
			build: func() (*RuleSpec, error) { return NewStatisticalRule("outliers", "amount", "medium", "") },
		},
		{
			name:    "statistical with bad sensitivity",
			build:   func() (*RuleSpec, error) { return NewStatisticalRule("outliers", "amount", "extreme", "") },
			wantErr: ErrConfiguration,
		},
		{
			name:    "statistical with bad data type",
			build:   func() (*RuleSpec, error) { return NewStatisticalRule("outliers", "amount", "medium", "ordinal") },
			wantErr: ErrConfiguration,
		},
		{
			name:  "expression rule",
			build: func() (*RuleSpec, error) { return NewExpressionRule("negative", "qty < 0") },
		},
		{
			name:    "malformed expression",
			build:   func() (*RuleSpec, error) { return NewExpressionRule("negative", "qty <") },
			wantErr: ErrConfiguration,
		},
		{
			name:  "predicate function",
			build: func() (*RuleSpec, error) { return NewPredicateRule("custom", okPredicate) },
		},
		{
			name:    "nil predicate function",
			build:   func() (*RuleSpec, error) { return NewPredicateRule("custom", nil) },
			wantErr: ErrConfiguration,
		},
		{
			name:    "name with path separator",
			build:   func() (*RuleSpec, error) { return NewRangeRule("../escape", "amount") },
			wantErr: ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := tt.build()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rule.Name == "" {
				t.Error("rule name not set")
			}
		})
	}
}

func TestExpressionRuleIsParsedOnValidate(t *testing.T) {
	rule, err := NewExpressionRule("negative", "qty < 0 or status == 'void'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.ParsedExpression == nil {
		t.Fatal("expression not compiled")
	}
	if got := rule.ParsedExpression.Columns(); !reflect.DeepEqual(got, []string{"qty", "status"}) {
		t.Errorf("unexpected columns %v", got)
	}
}

func TestStatisticalRuleNormalizesSettings(t *testing.T) {
	rule, err := NewStatisticalRule("outliers", "amount", "Sensitive", "CONTINUOUS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.Sensitivity != SensitivitySensitive || rule.DataType != DataTypeContinuous {
		t.Errorf("got sensitivity %q and data type %q", rule.Sensitivity, rule.DataType)
	}
}

func TestBorderContains(t *testing.T) {
	b := Border{Low: 0, High: 10}
	for v, expected := range map[float64]bool{-0.1: false, 0: true, 5: true, 10: true, 10.1: false} {
		if got := b.Contains(v); got != expected {
			t.Errorf("Contains(%v) = %v, expected %v", v, got, expected)
		}
	}
}

func TestValidateValidationName(t *testing.T) {
	for _, name := range []string{"", "  ", ".", "..", "a/b", `a\b`} {
		if err := ValidateValidationName(name); !errors.Is(err, ErrConfiguration) {
			t.Errorf("ValidateValidationName(%q): expected ErrConfiguration, got %v", name, err)
		}
	}
	if err := ValidateValidationName("amount_bounds"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
