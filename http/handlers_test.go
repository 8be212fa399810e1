package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"churnpredict/ml"
	"churnpredict/monitoring"
)

func newTestHandler(t *testing.T) (*Handler, *monitoring.PredictionMetrics) {
	t.Helper()
	loader, err := ml.NewLoader(ml.LoaderConfig{
		ModelPath:  filepath.Join("..", "ml", "testdata", "trained_model.json"),
		ScalerPath: filepath.Join("..", "ml", "testdata", "scaler.json"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	artifacts, err := loader.Load()
	if err != nil {
		t.Fatalf("load artifacts: %v", err)
	}
	metrics := monitoring.NewPredictionMetrics()
	predictor, err := ml.NewPredictor(artifacts, metrics)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	handler, err := NewHandler(predictor, metrics, nil, []string{"*"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return handler, metrics
}

func newTestMux(t *testing.T) (*http.ServeMux, *monitoring.PredictionMetrics) {
	t.Helper()
	handler, metrics := newTestHandler(t)
	mux := http.NewServeMux()
	handler.Register(mux, nil)
	return mux, metrics
}

func TestHealthHandler(t *testing.T) {
	mux, _ := newTestMux(t)
	req, err := http.NewRequest("GET", "/api/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := `{"status":"ok"}`
	if rr.Body.String() != expected+"\n" && rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestFeaturesHandler(t *testing.T) {
	mux, _ := newTestMux(t)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/features", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload struct {
		Order    []string      `json:"order"`
		Features []featureInfo `json:"features"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if strings.Join(payload.Order, ",") != strings.Join(ml.FeatureNames(), ",") {
		t.Fatalf("unexpected order: %v", payload.Order)
	}
	plan := payload.Features[2]
	if plan.Name != ml.InternationalPlan || plan.Type != "select" || plan.Default != ml.PlanNo {
		t.Fatalf("unexpected plan field: %+v", plan)
	}
	if payload.Features[5].Label != "Day Minutes" || payload.Features[5].Default != "0.0" {
		t.Fatalf("unexpected numeric field: %+v", payload.Features[5])
	}
}

func TestMetricsHandler(t *testing.T) {
	mux, metrics := newTestMux(t)
	metrics.ObservePrediction(ml.Classify(0.9), nil, time.Millisecond)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	var snapshot monitoring.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if snapshot.Predictions != 1 || snapshot.Churn != 1 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/metrics?format=prometheus", nil))
	if !strings.Contains(rr.Body.String(), "churn_predictions_total") {
		t.Fatalf("unexpected prometheus output: %s", rr.Body.String())
	}
}

func TestIndexRendersForm(t *testing.T) {
	mux, _ := newTestMux(t)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"Telecom Customer Churn Prediction",
		`name="voice_mail_messages"`,
		`<option value="No" selected>No</option>`,
		"Predict Churn",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page", want)
		}
	}
	if strings.Contains(body, `class="prediction-box`) || strings.Contains(body, `class="error-box"`) {
		t.Fatal("expected no prediction or error before submit")
	}
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&ml.InputError{Field: ml.DayMins, Err: ml.ErrNotNumeric}, http.StatusBadRequest},
		{&ml.TransformError{Err: ml.ErrShapeMismatch}, http.StatusUnprocessableEntity},
		{&ml.InferenceError{Err: ml.ErrShapeMismatch}, http.StatusUnprocessableEntity},
		{errMalformedBody, http.StatusBadRequest},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
	}
	for _, c := range cases {
		if got := statusForError(c.err); got != c.want {
			t.Fatalf("statusForError(%v) = %d, expected %d", c.err, got, c.want)
		}
	}
}

func TestFormatProbability(t *testing.T) {
	cases := []struct {
		lang string
		want string
	}{
		{"", "0.73"},
		{"en-US,en;q=0.9", "0.73"},
		{"de-DE,de;q=0.9", "0,73"},
		{"fr", "0,73"},
	}
	for _, c := range cases {
		if got := FormatProbability(0.7312, c.lang); got != c.want {
			t.Fatalf("FormatProbability(%q) = %q, expected %q", c.lang, got, c.want)
		}
	}
}
