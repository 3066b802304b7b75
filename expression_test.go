package dbqguard

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseExpressionErrors(t *testing.T) {
	invalid := []string{
		"",
		"   ",
		"qty <",
		"qty < 0 and",
		"(qty < 0",
		"qty ~ 3",
		"'text'",
		"1 + 2",
	}

	for _, expression := range invalid {
		if _, err := ParseExpression(expression); !errors.Is(err, ErrConfiguration) {
			t.Errorf("ParseExpression(%q): expected ErrConfiguration, got %v", expression, err)
		}
	}
}

func TestExpressionMatch(t *testing.T) {
	row := Row{"qty": 5, "status": "void", "amount": 12.5, "country": "DE", "note": nil, "delta": -4, "limit": 7}

	tests := []struct {
		expression string
		expected   bool
	}{
		{"qty < 0", false},
		{"qty < 0 or status == 'void'", true},
		{"qty >= 5 and amount >= 10 and amount <= 20", true},
		{"not (qty >= 5)", false},
		{"country not in ['US', 'CA']", true},
		{"country in ['DE']", true},
		{"note == nil", true},
		{"note != nil", false},
		{"isnull(note)", true},
		{"isnull(qty)", false},
		{"status != 'paid'", true},
		{"qty < amount", true},
		{"qty * amount > 60", true},
		{"amount > limit + 5", true},
		{"abs(delta) > 3", true},
		{"status startsWith 'vo'", true},
	}

	for _, tt := range tests {
		expr, err := ParseExpression(tt.expression)
		if err != nil {
			t.Fatalf("ParseExpression(%q): %v", tt.expression, err)
		}
		got, err := expr.Match(row)
		if err != nil {
			t.Fatalf("Match(%q): %v", tt.expression, err)
		}
		if got != tt.expected {
			t.Errorf("Match(%q) = %v, expected %v", tt.expression, got, tt.expected)
		}
	}
}

func TestExpressionMatchTypeError(t *testing.T) {
	expr, err := ParseExpression("status > 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := expr.Match(Row{"status": "void"}); err == nil {
		t.Error("expected error ordering a string against a number")
	}
}

func TestExpressionColumns(t *testing.T) {
	tests := []struct {
		expression string
		expected   []string
	}{
		{"qty < 0 or (status == 'void' and shipped < ordered) or qty > 100", []string{"qty", "status", "shipped", "ordered"}},
		{"qty * price > 100", []string{"qty", "price"}},
		{"abs(delta) > 3", []string{"delta"}},
		{"isnull(note) or qty > 0", []string{"note", "qty"}},
		{"let total = qty * price; total > 100", []string{"qty", "price"}},
	}

	for _, tt := range tests {
		expr, err := ParseExpression(tt.expression)
		if err != nil {
			t.Fatalf("ParseExpression(%q): %v", tt.expression, err)
		}
		if got := expr.Columns(); !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Columns(%q) = %v, expected %v", tt.expression, got, tt.expected)
		}
		if expr.String() != tt.expression {
			t.Errorf("String() = %q", expr.String())
		}
	}
}
