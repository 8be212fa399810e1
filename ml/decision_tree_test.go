package ml

import (
	"errors"
	"testing"
)

func TestDecisionTreePredictProba(t *testing.T) {
	tree := &DecisionTree{
		Width: 2,
		Nodes: []TreeNode{
			{FeatureIdx: 0, Threshold: 0.5, LeftChild: 1, RightChild: 2},
			{IsLeaf: true, Probability: 0.2},
			{IsLeaf: true, Probability: 0.9},
		},
	}
	if err := tree.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	probs, err := tree.PredictProba([][]float64{{0.1, 0}, {0.5, 0}, {0.9, 0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []float64{0.2, 0.2, 0.9}
	for i := range expected {
		if probs[i] != expected[i] {
			t.Fatalf("row %d: expected %v, got %v", i, expected[i], probs[i])
		}
	}

	if _, err := tree.PredictProba([][]float64{{0.1}}); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestDecisionTreeValidate(t *testing.T) {
	bad := []DecisionTree{
		{},
		{Nodes: []TreeNode{{IsLeaf: true, Probability: 0.5}}},
		{Width: 1, Nodes: []TreeNode{{IsLeaf: true, Probability: 1.5}}},
		{Width: 1, Nodes: []TreeNode{{FeatureIdx: 3, LeftChild: 1, RightChild: 2}, {IsLeaf: true}, {IsLeaf: true}}},
		{Width: 1, Nodes: []TreeNode{{FeatureIdx: 0, LeftChild: 1, RightChild: 5}, {IsLeaf: true}}},
	}
	for i := range bad {
		if err := bad[i].validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestRandomForestAverages(t *testing.T) {
	forest := &RandomForest{
		Width: 1,
		Trees: []DecisionTree{
			{Nodes: []TreeNode{{IsLeaf: true, Probability: 0.2}}},
			{Nodes: []TreeNode{{IsLeaf: true, Probability: 0.6}}},
		},
	}
	if err := forest.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	probs, err := forest.PredictProba([][]float64{{3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := probs[0] - 0.4; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("expected 0.4, got %v", probs[0])
	}
}

func TestLogisticRegression(t *testing.T) {
	lr := &LogisticRegression{Coef: []float64{1, -1}, Intercept: 0}
	probs, err := lr.PredictProba([][]float64{{0, 0}, {1000, 0}, {0, 1000}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probs[0] != 0.5 {
		t.Fatalf("expected 0.5, got %v", probs[0])
	}
	if probs[1] != 1 || probs[2] != 0 {
		t.Fatalf("expected saturation to 1 and 0, got %v", probs[1:])
	}
}
