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
	"math"
	"strconv"
	"time"
)

// ValueKey normalizes a cell so that equal values compare equal across Go types:
// 1, int64(1) and 1.0 share a key. Nulls share the "null" key.
func ValueKey(v any) string {
	if IsNull(v) {
		return "null"
	}
	if f, ok := ToFloat(v); ok {
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	switch x := v.(type) {
	case string:
		return "s:" + x
	case bool:
		return "b:" + strconv.FormatBool(x)
	case time.Time:
		return "t:" + x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%T:%v", v, v)
	}
}

// ValueFrequency is a distinct value and the number of rows holding it.
type ValueFrequency struct {
	Value any
	Count int
}

// ValueFrequencies counts non-null values, in first-seen order.
func ValueFrequencies(values []any) []ValueFrequency {
	index := make(map[string]int)
	var out []ValueFrequency
	for _, v := range values {
		if IsNull(v) {
			continue
		}
		key := ValueKey(v)
		if pos, ok := index[key]; ok {
			out[pos].Count++
			continue
		}
		index[key] = len(out)
		out = append(out, ValueFrequency{Value: v, Count: 1})
	}
	return out
}

// CountValues counts non-null values by ValueKey.
func CountValues(values []any) map[string]int {
	counts := make(map[string]int)
	for _, v := range values {
		if IsNull(v) {
			continue
		}
		counts[ValueKey(v)]++
	}
	return counts
}

// DistinctCount is the number of distinct non-null values.
func DistinctCount(values []any) int {
	return len(CountValues(values))
}

// NumericSummary holds the moments of the non-null numeric values of a column.
type NumericSummary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Stddev float64 // sample standard deviation, 0 with fewer than two values
}

// SummarizeNumeric computes NumericSummary over values, skipping nulls. It fails
// with ErrTypeMismatch on the first non-numeric value.
func SummarizeNumeric(values []any) (NumericSummary, error) {
	var s NumericSummary
	var sum float64
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if IsNull(v) {
			continue
		}
		f, ok := ToFloat(v)
		if !ok {
			return NumericSummary{}, fmt.Errorf("%w: value %v (%T) is not numeric", ErrTypeMismatch, v, v)
		}
		if len(nums) == 0 || f < s.Min {
			s.Min = f
		}
		if len(nums) == 0 || f > s.Max {
			s.Max = f
		}
		sum += f
		nums = append(nums, f)
	}

	s.Count = len(nums)
	if s.Count == 0 {
		return s, nil
	}
	s.Mean = sum / float64(s.Count)
	if s.Count < 2 {
		return s, nil
	}

	var sq float64
	for _, f := range nums {
		d := f - s.Mean
		sq += d * d
	}
	s.Stddev = math.Sqrt(sq / float64(s.Count-1))
	return s, nil
}
