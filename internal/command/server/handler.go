package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/lwmacct/251207-go-pkg-macroexp/internal/settings"
)

// EvalRequest 是 POST /eval 的请求体。
type EvalRequest struct {
	Text string `json:"text"`
}

// EvalResponse 是 POST /eval 的响应体，Result 与 Error 二选一。
type EvalResponse struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SettingResponse 是 GET /settings/{key} 的响应体，null 值的 Value 为 nil。
type SettingResponse struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
}

// handler 串行化对设置引擎的访问。
type handler struct {
	mu       sync.Mutex
	settings *settings.Settings
}

// NewHandler 创建 HTTP 路由：
//
//	GET  /health          健康检查
//	POST /eval            {"text": "..."} → {"result": "..."}，求值失败返回 422
//	GET  /settings        全部设置的求值结果
//	GET  /settings/{key}  单个设置，不存在返回 404
func NewHandler(s *settings.Settings) http.Handler {
	h := &handler{settings: s}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /eval", h.eval)
	mux.HandleFunc("GET /settings", h.resolve)
	mux.HandleFunc("GET /settings/{key}", h.get)

	return mux
}

func (h *handler) eval(w http.ResponseWriter, r *http.Request) {
	var req EvalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, EvalResponse{Error: "invalid request body: " + err.Error()})

		return
	}

	h.mu.Lock()
	out, err := h.settings.Evaluate(req.Text)
	h.mu.Unlock()
	if err != nil {
		slog.Debug("Evaluation failed", "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, EvalResponse{Error: err.Error()})

		return
	}

	writeJSON(w, http.StatusOK, EvalResponse{Result: out})
}

func (h *handler) resolve(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	resolved, err := h.settings.Resolve()
	h.mu.Unlock()
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, EvalResponse{Error: err.Error()})

		return
	}

	writeJSON(w, http.StatusOK, resolved)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	h.mu.Lock()
	v, err := h.settings.Get(key)
	h.mu.Unlock()

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, SettingResponse{Key: key, Value: &v})
	case errors.Is(err, settings.ErrNull):
		writeJSON(w, http.StatusOK, SettingResponse{Key: key})
	case errors.Is(err, settings.ErrNotFound):
		writeJSON(w, http.StatusNotFound, EvalResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusUnprocessableEntity, EvalResponse{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Write response failed", "error", err)
	}
}
