package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"LoopChat/internal/llm"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// GenerateRequest is the body of POST /v1/loops/generate. Every field is
// passed to the chat stub as-is.
type GenerateRequest struct {
	APIKey        string `json:"api_key"`
	SessionID     string `json:"session_id"`
	SystemMessage string `json:"system_message"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	Message       string `json:"message"`
}

// GenerateResponse mirrors llm.Response on the wire
type GenerateResponse struct {
	Text string `json:"text"`
}

// Handler serves the loop generation API
type Handler struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	requests metric.Int64Counter
}

func NewHandler(logger *slog.Logger, tracer trace.Tracer, meter metric.Meter) (*Handler, error) {
	requests, err := meter.Int64Counter(
		"loopchat.http.requests",
		metric.WithDescription("HTTP requests served"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	return &Handler{logger: logger, tracer: tracer, requests: requests}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	h.logger.Debug("request", "method", r.Method, "path", p)
	h.requests.Add(r.Context(), 1, metric.WithAttributes(attribute.String("http.route", p)))

	switch {
	case r.Method == http.MethodPost && p == "/v1/loops/generate":
		h.generate(w, r)
	case r.Method == http.MethodGet && p == "/healthz":
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		writeError(w, http.StatusNotFound, "Not found", "invalid_request_error")
	}
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "http.generate_loop")
	defer span.End()

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "invalid_request_error")
		return
	}
	span.SetAttributes(
		attribute.String("session.id", req.SessionID),
		attribute.String("llm.provider", req.Provider),
		attribute.String("llm.model", req.Model),
	)

	chat := llm.NewLlmChat(req.APIKey, req.SessionID, req.SystemMessage).WithModel(req.Provider, req.Model)
	resp, err := chat.SendMessage(ctx, llm.NewUserMessage(req.Message))
	if err != nil {
		h.logger.Error("send message failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusBadGateway, err.Error(), "upstream_error")
		return
	}

	h.logger.Info("loop generated", "session_id", req.SessionID, "provider", req.Provider, "model", req.Model)
	writeJSON(w, http.StatusOK, GenerateResponse{Text: resp.Text})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, typ string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    typ,
		},
	})
}

// Start serves h on addr in the background. It returns a shutdown function
// and the base URL, e.g. http://127.0.0.1:8080.
func Start(addr string, h *Handler) (func(context.Context) error, string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: h}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("server error", "error", err)
		}
	}()

	baseURL := "http://" + ln.Addr().String()
	h.logger.Info("listening", "url", baseURL)
	return srv.Shutdown, baseURL, nil
}
