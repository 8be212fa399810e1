package ml

import (
	"context"
	"os"
	"testing"
)

const (
	testONNXModelPath   = "../models/trained_model.onnx"
	testONNXRuntimePath = "../models/libonnxruntime.so"
)

func skipIfNoONNX(t *testing.T) {
	t.Helper()
	for _, path := range []string{testONNXModelPath, testONNXRuntimePath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Skip("onnx model or runtime not found; export the classifier with skl2onnx into models/")
		}
	}
}

func TestONNXClassifierPredictProba(t *testing.T) {
	skipIfNoONNX(t)

	classifier, err := LoadONNXClassifier(testONNXModelPath, testONNXRuntimePath)
	if err != nil {
		t.Fatalf("failed to load onnx classifier: %v", err)
	}
	defer classifier.Close()

	scaler, err := DecodeScaler("testdata/scaler.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	predictor, err := NewPredictor(&Artifacts{Classifier: classifier, Scaler: scaler}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	record, err := BuildFeatureRecord(highRiskInputs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := predictor.PredictRecord(context.Background(), record)
	if err != nil {
		t.Fatalf("inference failed: %v", err)
	}
	assertWellFormed(t, result)
	t.Logf("churn probability: %.4f", result.Probability)
}

func TestONNXClassifierShapeMismatch(t *testing.T) {
	skipIfNoONNX(t)

	classifier, err := LoadONNXClassifier(testONNXModelPath, testONNXRuntimePath)
	if err != nil {
		t.Fatalf("failed to load onnx classifier: %v", err)
	}
	defer classifier.Close()

	if _, err := classifier.PredictProba([][]float64{{1, 2}}); err == nil {
		t.Fatal("expected shape error")
	}
}
