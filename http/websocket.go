package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsMaxMessageBytes = 1 << 16
	wsWriteWait       = 10 * time.Second
	wsIdleTimeout     = 5 * time.Minute
)

// handleWebSocket 每个文本帧是一个JSON输入对象，逐帧回复预测结果
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFrom(r.Context(), h.logger)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxMessageBytes)
	acceptLanguage := r.Header.Get("Accept-Language")
	ctx := r.Context()

	for {
		conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var reply interface{}
		raw, err := decodeRawInputsBytes(data)
		if err == nil {
			result, predictErr := h.predictor.Predict(ctx, raw)
			if predictErr == nil {
				reply = newPredictionResponse(result, acceptLanguage)
			}
			err = predictErr
		}
		if err != nil {
			logPredictionError(logger, err, statusForError(err))
			reply = newErrorResponse(err)
		}

		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			logger.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}

// checkWebSocketOrigin 允许无Origin、同源或配置中的来源
func checkWebSocketOrigin(r *http.Request, allowedOrigins []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || originAllowed(allowedOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
