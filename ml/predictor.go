package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// DecisionThreshold is the churn probability at or above which Label is 1.
const DecisionThreshold = 0.5

// Result is one prediction at full precision.
type Result struct {
	Label       int
	Probability float64
}

// Churn reports whether the customer is predicted to churn.
func (r Result) Churn() bool { return r.Label == 1 }

// Observer receives the outcome of every Predict call.
type Observer interface {
	ObservePrediction(result Result, err error, elapsed time.Duration)
}

type Predictor struct {
	artifacts *Artifacts
	observer  Observer
}

func NewPredictor(artifacts *Artifacts, observer Observer) (*Predictor, error) {
	if artifacts == nil || artifacts.Classifier == nil || artifacts.Scaler == nil {
		return nil, errors.New("predictor requires a classifier and a scaler")
	}
	return &Predictor{artifacts: artifacts, observer: observer}, nil
}

// Predict encodes and orders raw, scales it, runs the classifier and applies
// DecisionThreshold. It has no side effects besides notifying the observer.
func (p *Predictor) Predict(ctx context.Context, raw RawInputs) (Result, error) {
	start := time.Now()
	result, err := p.predict(ctx, raw)
	if p.observer != nil {
		p.observer.ObservePrediction(result, err, time.Since(start))
	}
	return result, err
}

func (p *Predictor) predict(ctx context.Context, raw RawInputs) (Result, error) {
	record, err := BuildFeatureRecord(raw)
	if err != nil {
		return Result{}, err
	}
	return p.PredictRecord(ctx, record)
}

// PredictRecord runs an already encoded record through the scaler and classifier.
func (p *Predictor) PredictRecord(ctx context.Context, record FeatureRecord) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	scaled, err := p.artifacts.Scaler.Transform([][]float64{record.Row()})
	if err != nil {
		return Result{}, &TransformError{Err: err}
	}
	if len(scaled) != 1 {
		return Result{}, &TransformError{Err: fmt.Errorf("%w: scaler returned %d rows", ErrShapeMismatch, len(scaled))}
	}

	probs, err := p.artifacts.Classifier.PredictProba(scaled)
	if err != nil {
		return Result{}, &InferenceError{Err: err}
	}
	if len(probs) != 1 {
		return Result{}, &InferenceError{Err: fmt.Errorf("%w: classifier returned %d probabilities", ErrShapeMismatch, len(probs))}
	}
	prob := probs[0]
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return Result{}, &InferenceError{Err: fmt.Errorf("probability %v outside [0,1]", prob)}
	}

	return Classify(prob), nil
}

// Classify applies DecisionThreshold to a churn probability.
func Classify(prob float64) Result {
	label := 0
	if prob >= DecisionThreshold {
		label = 1
	}
	return Result{Label: label, Probability: prob}
}
