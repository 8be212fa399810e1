package ml

import (
	"errors"
	"fmt"
)

// StandardScaler applies (x - mean) / scale per column.
type StandardScaler struct {
	Names []string  `json:"feature_names"`
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *StandardScaler) validate() error {
	if len(s.Mean) == 0 {
		return errors.New("standard scaler: mean is empty")
	}
	if len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("standard scaler: %d means but %d scales", len(s.Mean), len(s.Scale))
	}
	if len(s.Names) > 0 && len(s.Names) != len(s.Mean) {
		return fmt.Errorf("standard scaler: %d feature names for %d columns", len(s.Names), len(s.Mean))
	}
	return nil
}

func (s *StandardScaler) Transform(rows [][]float64) ([][]float64, error) {
	if err := checkShape(rows, len(s.Mean)); err != nil {
		return nil, err
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scale := s.Scale[j]
			if scale == 0 {
				scale = 1
			}
			scaled[j] = (v - s.Mean[j]) / scale
		}
		out[i] = scaled
	}
	return out, nil
}

func (s *StandardScaler) FeatureNames() []string { return s.Names }

// MinMaxScaler maps each column from [data_min, data_max] onto feature_range.
type MinMaxScaler struct {
	Names        []string   `json:"feature_names"`
	DataMin      []float64  `json:"data_min"`
	DataMax      []float64  `json:"data_max"`
	FeatureRange [2]float64 `json:"feature_range"`
}

func (s *MinMaxScaler) validate() error {
	if len(s.DataMin) == 0 {
		return errors.New("minmax scaler: data_min is empty")
	}
	if len(s.DataMin) != len(s.DataMax) {
		return fmt.Errorf("minmax scaler: %d mins but %d maxs", len(s.DataMin), len(s.DataMax))
	}
	if len(s.Names) > 0 && len(s.Names) != len(s.DataMin) {
		return fmt.Errorf("minmax scaler: %d feature names for %d columns", len(s.Names), len(s.DataMin))
	}
	if s.FeatureRange == [2]float64{} {
		s.FeatureRange = [2]float64{0, 1}
	}
	if s.FeatureRange[0] >= s.FeatureRange[1] {
		return fmt.Errorf("minmax scaler: invalid feature_range %v", s.FeatureRange)
	}
	return nil
}

func (s *MinMaxScaler) Transform(rows [][]float64) ([][]float64, error) {
	if err := checkShape(rows, len(s.DataMin)); err != nil {
		return nil, err
	}
	lo, hi := s.FeatureRange[0], s.FeatureRange[1]
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = NormalizeFeature(v, s.DataMin[j], s.DataMax[j])*(hi-lo) + lo
		}
		out[i] = scaled
	}
	return out, nil
}

func (s *MinMaxScaler) FeatureNames() []string { return s.Names }

// NormalizeFeature maps value into [0, 1] relative to min and max.
// A constant column only has its minimum subtracted.
func NormalizeFeature(value, min, max float64) float64 {
	if max == min {
		return value - min
	}
	return (value - min) / (max - min)
}
