package dbqguard

import (
	"errors"
	"testing"
)

func TestParseSensitivity(t *testing.T) {
	tests := []struct {
		input    string
		expected Sensitivity
		wantErr  bool
	}{
		{input: "sensitive", expected: SensitivitySensitive},
		{input: " Medium ", expected: SensitivityMedium},
		{input: "INSENSITIVE", expected: SensitivityInsensitive},
		{input: "", wantErr: true},
		{input: "paranoid", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseSensitivity(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("ParseSensitivity(%q): expected ErrConfiguration, got %v", tt.input, err)
			}
			continue
		}
		if err != nil || got != tt.expected {
			t.Errorf("ParseSensitivity(%q) = %q, %v", tt.input, got, err)
		}
	}
}

func TestParseDataType(t *testing.T) {
	if dt, err := ParseDataType(""); err != nil || dt != "" {
		t.Errorf("empty data type should mean inferred, got %q, %v", dt, err)
	}
	if dt, err := ParseDataType("Discrete"); err != nil || dt != DataTypeDiscrete {
		t.Errorf("ParseDataType(Discrete) = %q, %v", dt, err)
	}
	if _, err := ParseDataType("ordinal"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestSensitivityThresholds(t *testing.T) {
	tests := []struct {
		sensitivity Sensitivity
		cutoff      float64
		minPercent  float64
	}{
		{SensitivitySensitive, 2, 2},
		{SensitivityMedium, 3, 1},
		{SensitivityInsensitive, 4, 0.5},
	}

	for _, tt := range tests {
		if got := tt.sensitivity.ZScoreCutoff(); got != tt.cutoff {
			t.Errorf("%s cutoff = %v, expected %v", tt.sensitivity, got, tt.cutoff)
		}
		if got := tt.sensitivity.MinFrequencyPercent(); got != tt.minPercent {
			t.Errorf("%s min frequency = %v, expected %v", tt.sensitivity, got, tt.minPercent)
		}
	}
}

// levels builds n values cycling over k distinct numbers followed by nulls.
func levels(k, n, nulls int) []any {
	values := make([]any, 0, n+nulls)
	for i := 0; i < n; i++ {
		values = append(values, float64(i%k))
	}
	for i := 0; i < nulls; i++ {
		values = append(values, nil)
	}
	return values
}

func TestClassifyColumn(t *testing.T) {
	continuous := make([]any, 100)
	for i := range continuous {
		continuous[i] = float64(i)
	}
	discrete := make([]any, 100)
	for i := range discrete {
		discrete[i] = []string{"A", "B", "C"}[i%3]
	}

	tests := []struct {
		name     string
		values   []any
		expected DataType
	}{
		{name: "all distinct", values: continuous, expected: DataTypeContinuous},
		{name: "three levels", values: discrete, expected: DataTypeDiscrete},
		{name: "empty", values: nil, expected: DataTypeDiscrete},
		{name: "ratio at threshold", values: levels(5, 100, 0), expected: DataTypeContinuous},
		{name: "ratio below threshold", values: levels(4, 100, 0), expected: DataTypeDiscrete},
		{name: "nulls count toward total", values: levels(4, 60, 40), expected: DataTypeDiscrete},
		{name: "all null", values: levels(0, 0, 10), expected: DataTypeDiscrete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := ClassifyColumn(tt.values)
			if first != tt.expected {
				t.Errorf("ClassifyColumn = %s, expected %s", first, tt.expected)
			}
			if second := ClassifyColumn(tt.values); second != first {
				t.Errorf("classification changed between calls: %s then %s", first, second)
			}
		})
	}
}
