package http

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"churnpredict/ml"
	"churnpredict/monitoring"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Handler 预测服务的HTTP处理器
type Handler struct {
	predictor *ml.Predictor
	metrics   *monitoring.PredictionMetrics
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

// NewHandler 创建处理器，metrics可为nil
func NewHandler(predictor *ml.Predictor, metrics *monitoring.PredictionMetrics, logger *zap.Logger, allowedOrigins []string) (*Handler, error) {
	if predictor == nil {
		return nil, errors.New("predictor is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		predictor: predictor,
		metrics:   metrics,
		logger:    logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return checkWebSocketOrigin(r, allowedOrigins)
		},
	}
	return h, nil
}

// Register 注册路由，预测相关路由受limiter限制
func (h *Handler) Register(mux *http.ServeMux, limiter *RateLimiter) {
	limited := RateLimitMiddleware(limiter)

	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/features", h.handleFeatures)
	if h.metrics != nil {
		mux.HandleFunc("GET /api/metrics", h.handleMetrics)
	}
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.Handle("POST /predict", limited(http.HandlerFunc(h.handleFormPredict)))
	mux.Handle("POST /api/predict", limited(http.HandlerFunc(h.handleAPIPredict)))
	mux.Handle("GET /api/ws/predict", limited(http.HandlerFunc(h.handleWebSocket)))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// featureInfo 特征描述
type featureInfo struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Type    string   `json:"type"`
	Default string   `json:"default"`
	Options []string `json:"options,omitempty"`
}

func (h *Handler) handleFeatures(w http.ResponseWriter, r *http.Request) {
	names := ml.FeatureNames()
	features := make([]featureInfo, 0, len(names))
	for _, name := range names {
		info := featureInfo{Name: name, Label: ml.FeatureLabel(name), Type: "number", Default: "0.0"}
		if ml.IsCategorical(name) {
			info.Type = "select"
			info.Options = ml.PlanOptions()
			info.Default = info.Options[0]
		}
		features = append(features, info)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"order":     names,
		"features":  features,
		"threshold": ml.DecisionThreshold,
	})
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "prometheus" {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.Write([]byte(h.metrics.ExportPrometheus()))
		return
	}
	writeJSON(w, http.StatusOK, h.metrics.GetSnapshot())
}

// predictionResponse 预测结果
type predictionResponse struct {
	Label              int     `json:"label"`
	Churn              bool    `json:"churn"`
	Probability        float64 `json:"probability"`
	ProbabilityDisplay string  `json:"probability_display"`
}

// errorResponse 错误响应
type errorResponse struct {
	Error      string `json:"error"`
	Kind       string `json:"kind,omitempty"`
	Field      string `json:"field,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func newPredictionResponse(result ml.Result, acceptLanguage string) predictionResponse {
	return predictionResponse{
		Label:              result.Label,
		Churn:              result.Churn(),
		Probability:        result.Probability,
		ProbabilityDisplay: FormatProbability(result.Probability, acceptLanguage),
	}
}

func newErrorResponse(err error) errorResponse {
	resp := errorResponse{Error: err.Error(), Kind: ml.ErrorKind(err)}
	var inputErr *ml.InputError
	if errors.As(err, &inputErr) {
		resp.Field = inputErr.Field
		resp.Suggestion = inputErr.Suggestion
	}
	if errors.Is(err, errMalformedBody) {
		resp.Kind = "input"
	}
	return resp
}

func (h *Handler) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFrom(r.Context(), h.logger)

	raw, err := decodeRawInputs(r.Body)
	if err == nil {
		var result ml.Result
		result, err = h.predictor.Predict(r.Context(), raw)
		if err == nil {
			writeJSON(w, http.StatusOK, newPredictionResponse(result, r.Header.Get("Accept-Language")))
			return
		}
	}

	status := statusForError(err)
	logPredictionError(logger, err, status)
	writeJSON(w, status, newErrorResponse(err))
}

// fieldView 页面上的一个输入项
type fieldView struct {
	Name        string
	Label       string
	Value       string
	Categorical bool
	Options     []optionView
}

type optionView struct {
	Value    string
	Selected bool
}

type resultView struct {
	Churn       bool
	Probability string
}

type pageData struct {
	Fields []fieldView
	Result *resultView
	Error  string
}

func buildPage(raw ml.RawInputs) pageData {
	names := ml.FeatureNames()
	fields := make([]fieldView, 0, len(names))
	for _, name := range names {
		field := fieldView{Name: name, Label: ml.FeatureLabel(name), Value: raw[name]}
		if ml.IsCategorical(name) {
			field.Categorical = true
			selected := ml.PlanNo
			if encoded, err := ml.EncodeInternationalPlan(raw[name]); err == nil && encoded == 1 {
				selected = ml.PlanYes
			}
			for _, option := range ml.PlanOptions() {
				field.Options = append(field.Options, optionView{Value: option, Selected: option == selected})
			}
		} else if field.Value == "" {
			field.Value = "0.0"
		}
		fields = append(fields, field)
	}
	return pageData{Fields: fields}
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, buildPage(nil))
}

func (h *Handler) handleFormPredict(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFrom(r.Context(), h.logger)

	if err := r.ParseForm(); err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		page := buildPage(nil)
		page.Error = "Error during prediction: " + err.Error()
		h.renderPage(w, r, status, page)
		return
	}

	raw := rawInputsFromForm(r.PostForm)
	page := buildPage(raw)

	result, err := h.predictor.Predict(r.Context(), raw)
	if err != nil {
		status := statusForError(err)
		logPredictionError(logger, err, status)
		page.Error = "Error during prediction: " + err.Error()
		h.renderPage(w, r, status, page)
		return
	}

	page.Result = &resultView{
		Churn:       result.Churn(),
		Probability: FormatProbability(result.Probability, r.Header.Get("Accept-Language")),
	}
	h.renderPage(w, r, http.StatusOK, page)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, page pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTemplate.Execute(w, page); err != nil {
		LoggerFrom(r.Context(), h.logger).Error("render page failed", zap.Error(err))
	}
}

// statusForError 将预测错误映射为HTTP状态码
func statusForError(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	switch ml.ErrorKind(err) {
	case "input":
		return http.StatusBadRequest
	case "transform", "inference":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func logPredictionError(logger *zap.Logger, err error, status int) {
	fields := []zap.Field{zap.Error(err), zap.String("kind", ml.ErrorKind(err)), zap.Int("status", status)}
	if status >= http.StatusInternalServerError || status == http.StatusUnprocessableEntity {
		logger.Error("prediction failed", fields...)
		return
	}
	logger.Info("prediction rejected", fields...)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
