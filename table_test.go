package dbqguard

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func sampleTable() *Table {
	return NewTableFromRows([]string{"id", "amount", "status"}, []Row{
		{"id": 1, "amount": 5.0, "status": "new"},
		{"id": 2, "amount": 15.0, "status": "paid"},
		{"id": 3, "amount": nil, "status": "void"},
	})
}

func TestNewTableFromRowsInfersTypes(t *testing.T) {
	table := sampleTable()

	expected := []Column{
		{Name: "id", Type: DTypeNumeric},
		{Name: "amount", Type: DTypeNumeric},
		{Name: "status", Type: DTypeCategorical},
	}
	if got := table.Columns(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Columns() = %+v, expected %+v", got, expected)
	}
	if table.Len() != 3 {
		t.Errorf("Len() = %d, expected 3", table.Len())
	}
}

func TestTableRequireColumn(t *testing.T) {
	table := sampleTable()

	if _, err := table.RequireColumn("amount"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := table.RequireColumn("missing")
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestTableSubsetCopiesRows(t *testing.T) {
	table := sampleTable()

	subset := table.Subset([]int{2, 0})
	if subset.Len() != 2 {
		t.Fatalf("Len() = %d, expected 2", subset.Len())
	}
	if subset.Row(0)["id"] != 3 || subset.Row(1)["id"] != 1 {
		t.Errorf("unexpected order: %v", subset.Rows())
	}

	subset.rows[0]["status"] = "changed"
	if table.Row(2)["status"] != "void" {
		t.Error("modifying a subset changed the source table")
	}
}

func TestTableFilter(t *testing.T) {
	table := sampleTable()

	filtered, err := table.Filter([]bool{true, false, true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filtered.Len() != 2 {
		t.Errorf("Len() = %d, expected 2", filtered.Len())
	}

	if _, err := table.Filter([]bool{true}); err == nil {
		t.Error("expected error for mask of wrong length")
	}
}

func TestTableSelect(t *testing.T) {
	table := sampleTable()

	projected, err := table.Select("status", "id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := projected.ColumnNames(); !reflect.DeepEqual(got, []string{"status", "id"}) {
		t.Errorf("ColumnNames() = %v", got)
	}
	if _, ok := projected.Row(0)["amount"]; ok {
		t.Error("projected row still holds a dropped column")
	}

	if _, err := table.Select("nope"); !errors.Is(err, ErrSchema) {
		t.Errorf("expected ErrSchema, got %v", err)
	}
}

func TestTableWithColumn(t *testing.T) {
	table := sampleTable()

	tagged := table.WithColumn("Validation Name", "rule_a")
	if !tagged.HasColumn("Validation Name") {
		t.Fatal("tagged table lacks the new column")
	}
	for i := 0; i < tagged.Len(); i++ {
		if tagged.Row(i)["Validation Name"] != "rule_a" {
			t.Errorf("row %d not tagged", i)
		}
	}
	if table.HasColumn("Validation Name") {
		t.Error("WithColumn modified the source table")
	}
}

func TestConcat(t *testing.T) {
	a := NewTableFromRows([]string{"id", "v"}, []Row{{"id": 1, "v": 1.5}})
	b := NewTableFromRows([]string{"id", "v", "extra"}, []Row{{"id": 2, "v": "x", "extra": true}})

	out := Concat(nil, a, b)

	if out.Len() != 2 {
		t.Fatalf("Len() = %d, expected 2", out.Len())
	}
	if got := out.ColumnNames(); !reflect.DeepEqual(got, []string{"id", "v", "extra"}) {
		t.Errorf("ColumnNames() = %v", got)
	}
	if col, _ := out.Column("v"); col.Type != DTypeCategorical {
		t.Errorf("mixed column type = %s, expected categorical", col.Type)
	}
	if out.Row(0)["extra"] != nil {
		t.Error("missing cell should read as nil")
	}
}

func TestIsNullAndToFloat(t *testing.T) {
	tests := []struct {
		value    any
		null     bool
		numeric  bool
		expected float64
	}{
		{value: nil, null: true},
		{value: math.NaN(), null: true},
		{value: 3, numeric: true, expected: 3},
		{value: int64(-2), numeric: true, expected: -2},
		{value: float32(1.5), numeric: true, expected: 1.5},
		{value: uint8(7), numeric: true, expected: 7},
		{value: "3"},
		{value: true},
	}

	for _, tt := range tests {
		if got := IsNull(tt.value); got != tt.null {
			t.Errorf("IsNull(%v) = %v, expected %v", tt.value, got, tt.null)
		}
		f, ok := ToFloat(tt.value)
		if ok != tt.numeric {
			t.Errorf("ToFloat(%v) ok = %v, expected %v", tt.value, ok, tt.numeric)
			continue
		}
		if ok && f != tt.expected {
			t.Errorf("ToFloat(%v) = %v, expected %v", tt.value, f, tt.expected)
		}
	}
}

func TestNilTableIsEmpty(t *testing.T) {
	var table *Table
	if !table.IsEmpty() || table.Len() != 0 || table.Columns() != nil {
		t.Error("nil table should behave as empty")
	}
}
