// Package monitoring 提供预测指标和模型文件监控
package monitoring

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"churnpredict/ml"
)

// MetricType 指标类型
type MetricType string

const (
	MetricTypeCounter MetricType = "counter"
	MetricTypeGauge   MetricType = "gauge"
	MetricTypeSummary MetricType = "summary"
)

// Metric 指标
type Metric struct {
	Name   string            `json:"name"`
	Type   MetricType        `json:"type"`
	Value  float64           `json:"value"`
	Labels map[string]string `json:"labels,omitempty"`
	Help   string            `json:"help,omitempty"`
}

// PredictionMetrics 预测指标，实现ml.Observer
type PredictionMetrics struct {
	metricsLock sync.RWMutex

	startTime   time.Time
	predictions int64
	churn       int64
	errors      map[string]int64
	latencySum  time.Duration
	latencyMin  time.Duration
	latencyMax  time.Duration
}

// NewPredictionMetrics 创建预测指标
func NewPredictionMetrics() *PredictionMetrics {
	return &PredictionMetrics{
		startTime: time.Now(),
		errors:    make(map[string]int64),
	}
}

// ObservePrediction 记录一次预测结果
func (pm *PredictionMetrics) ObservePrediction(result ml.Result, err error, elapsed time.Duration) {
	pm.metricsLock.Lock()
	defer pm.metricsLock.Unlock()

	if err != nil {
		pm.errors[ml.ErrorKind(err)]++
		return
	}

	pm.predictions++
	if result.Churn() {
		pm.churn++
	}
	pm.latencySum += elapsed
	if pm.predictions == 1 || elapsed < pm.latencyMin {
		pm.latencyMin = elapsed
	}
	if elapsed > pm.latencyMax {
		pm.latencyMax = elapsed
	}
}

// Snapshot 指标快照
type Snapshot struct {
	Uptime       string           `json:"uptime"`
	Goroutines   int              `json:"goroutines"`
	Predictions  int64            `json:"predictions"`
	Churn        int64            `json:"churn"`
	NotChurn     int64            `json:"not_churn"`
	Errors       map[string]int64 `json:"errors"`
	LatencyAvgMs float64          `json:"latency_avg_ms"`
	LatencyMinMs float64          `json:"latency_min_ms"`
	LatencyMaxMs float64          `json:"latency_max_ms"`
}

// GetSnapshot 获取指标快照
func (pm *PredictionMetrics) GetSnapshot() Snapshot {
	pm.metricsLock.RLock()
	defer pm.metricsLock.RUnlock()

	errors := make(map[string]int64, len(pm.errors))
	for kind, count := range pm.errors {
		errors[kind] = count
	}
	snapshot := Snapshot{
		Uptime:       time.Since(pm.startTime).Round(time.Second).String(),
		Goroutines:   runtime.NumGoroutine(),
		Predictions:  pm.predictions,
		Churn:        pm.churn,
		NotChurn:     pm.predictions - pm.churn,
		Errors:       errors,
		LatencyMinMs: milliseconds(pm.latencyMin),
		LatencyMaxMs: milliseconds(pm.latencyMax),
	}
	if pm.predictions > 0 {
		snapshot.LatencyAvgMs = milliseconds(pm.latencySum) / float64(pm.predictions)
	}
	return snapshot
}

// Metrics 以指标列表形式返回快照
func (pm *PredictionMetrics) Metrics() []Metric {
	snapshot := pm.GetSnapshot()
	metrics := []Metric{
		{Name: "churn_predictions_total", Type: MetricTypeCounter, Value: float64(snapshot.Churn), Labels: map[string]string{"label": "churn"}, Help: "Predictions served"},
		{Name: "churn_predictions_total", Type: MetricTypeCounter, Value: float64(snapshot.NotChurn), Labels: map[string]string{"label": "not_churn"}, Help: "Predictions served"},
		{Name: "churn_prediction_latency_ms", Type: MetricTypeSummary, Value: snapshot.LatencyAvgMs, Labels: map[string]string{"stat": "avg"}, Help: "Prediction latency in milliseconds"},
		{Name: "churn_prediction_latency_ms", Type: MetricTypeSummary, Value: snapshot.LatencyMaxMs, Labels: map[string]string{"stat": "max"}, Help: "Prediction latency in milliseconds"},
		{Name: "system_goroutines", Type: MetricTypeGauge, Value: float64(snapshot.Goroutines), Help: "Number of goroutines"},
	}
	kinds := make([]string, 0, len(snapshot.Errors))
	for kind := range snapshot.Errors {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		metrics = append(metrics, Metric{
			Name:   "churn_prediction_errors_total",
			Type:   MetricTypeCounter,
			Value:  float64(snapshot.Errors[kind]),
			Labels: map[string]string{"kind": kind},
			Help:   "Failed predictions by error kind",
		})
	}
	return metrics
}

// ExportPrometheus 导出Prometheus文本格式
func (pm *PredictionMetrics) ExportPrometheus() string {
	var output strings.Builder
	described := make(map[string]bool)
	for _, metric := range pm.Metrics() {
		if !described[metric.Name] {
			fmt.Fprintf(&output, "# HELP %s %s\n", metric.Name, metric.Help)
			fmt.Fprintf(&output, "# TYPE %s %s\n", metric.Name, metric.Type)
			described[metric.Name] = true
		}
		fmt.Fprintf(&output, "%s%s %g\n", metric.Name, formatLabels(metric.Labels), metric.Value)
	}
	return output.String()
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, k, labels[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
