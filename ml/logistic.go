package ml

import (
	"errors"
	"fmt"
	"math"
)

// LogisticRegression is a fitted binary logistic model.
type LogisticRegression struct {
	Names     []string  `json:"feature_names"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

func (lr *LogisticRegression) validate() error {
	if len(lr.Coef) == 0 {
		return errors.New("logistic regression: coef is empty")
	}
	if len(lr.Names) > 0 && len(lr.Names) != len(lr.Coef) {
		return fmt.Errorf("logistic regression: %d feature names for %d coefficients", len(lr.Names), len(lr.Coef))
	}
	for i, c := range lr.Coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("logistic regression: coefficient %d is not finite", i)
		}
	}
	return nil
}

func (lr *LogisticRegression) PredictProba(rows [][]float64) ([]float64, error) {
	if err := checkShape(rows, len(lr.Coef)); err != nil {
		return nil, err
	}
	probs := make([]float64, len(rows))
	for i, row := range rows {
		z := lr.Intercept
		for j, v := range row {
			z += lr.Coef[j] * v
		}
		probs[i] = sigmoid(z)
	}
	return probs, nil
}

func (lr *LogisticRegression) FeatureNames() []string { return lr.Names }

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
