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
	"strings"
)

// Sensitivity selects how aggressively the statistical check flags rows.
type Sensitivity string

const (
	SensitivitySensitive   Sensitivity = "sensitive"
	SensitivityMedium      Sensitivity = "medium"
	SensitivityInsensitive Sensitivity = "insensitive"
)

// DataType is the statistical nature of a column.
type DataType string

const (
	DataTypeContinuous DataType = "continuous"
	DataTypeDiscrete   DataType = "discrete"
)

// DiscreteUniqueRatio is the distinct/total ratio below which a column is
// treated as discrete. Fixed policy, not configurable.
const DiscreteUniqueRatio = 0.05

var (
	zScoreCutoffs = map[Sensitivity]float64{
		SensitivitySensitive:   2.0,
		SensitivityMedium:      3.0,
		SensitivityInsensitive: 4.0,
	}

	// minimum share of rows, in percent, a discrete value needs to not be a minority
	minFrequencyPercents = map[Sensitivity]float64{
		SensitivitySensitive:   2.0,
		SensitivityMedium:      1.0,
		SensitivityInsensitive: 0.5,
	}
)

// ParseSensitivity accepts sensitive, medium or insensitive in any case.
func ParseSensitivity(s string) (Sensitivity, error) {
	sensitivity := Sensitivity(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := zScoreCutoffs[sensitivity]; !ok {
		return "", fmt.Errorf("%w: sensitivity must be one of 'sensitive', 'medium', 'insensitive', got '%s'", ErrConfiguration, s)
	}
	return sensitivity, nil
}

// ParseDataType accepts continuous or discrete in any case. An empty string
// means the type is inferred at evaluation time.
func ParseDataType(s string) (DataType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	switch dt := DataType(strings.ToLower(s)); dt {
	case DataTypeContinuous, DataTypeDiscrete:
		return dt, nil
	default:
		return "", fmt.Errorf("%w: data_type must be 'continuous' or 'discrete', got '%s'", ErrConfiguration, s)
	}
}

// ZScoreCutoff is the absolute z-score above which a continuous value is an outlier.
func (s Sensitivity) ZScoreCutoff() float64 {
	return zScoreCutoffs[s]
}

// MinFrequencyPercent is the share of rows below which a discrete value is a minority.
func (s Sensitivity) MinFrequencyPercent() float64 {
	return minFrequencyPercents[s]
}

// ClassifyColumn infers whether a column is continuous or discrete from the
// ratio of distinct non-null values to total rows. The result depends only on
// the values, so classifying the same column twice gives the same answer.
func ClassifyColumn(values []any) DataType {
	if len(values) == 0 {
		return DataTypeDiscrete
	}
	uniqueRatio := float64(DistinctCount(values)) / float64(len(values))
	if uniqueRatio < DiscreteUniqueRatio {
		return DataTypeDiscrete
	}
	return DataTypeContinuous
}
