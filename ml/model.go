package ml

import "fmt"

// Scaler is a fitted transformation applied to raw feature rows.
type Scaler interface {
	Transform(rows [][]float64) ([][]float64, error)
}

// Classifier returns the positive-class (churn) probability for each scaled row.
type Classifier interface {
	PredictProba(rows [][]float64) ([]float64, error)
}

// FeatureNamer is implemented by artifacts that remember their training columns.
type FeatureNamer interface {
	FeatureNames() []string
}

func checkShape(rows [][]float64, width int) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: no rows", ErrShapeMismatch)
	}
	for i, row := range rows {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d columns, expected %d", ErrShapeMismatch, i, len(row), width)
		}
	}
	return nil
}
