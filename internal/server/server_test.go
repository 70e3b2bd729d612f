package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"LoopChat/internal/llm"
	"LoopChat/internal/telemetry"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	h, err := NewHandler(
		telemetry.NewLogger(io.Discard, slog.LevelDebug),
		sdktrace.NewTracerProvider().Tracer("test"),
		sdkmetric.NewMeterProvider().Meter("test"),
	)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h
}

func TestGenerate(t *testing.T) {
	h := newTestHandler(t)

	body := `{"api_key":"k","session_id":"s1","system_message":"sys","provider":"any","model":"any","message":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/loops/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp GenerateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Text != llm.MockedLoopJSON {
		t.Fatalf("unexpected text %q", resp.Text)
	}
}

func TestGenerateEmptyBodyObject(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/loops/generate/", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestGenerateInvalidBody(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/loops/generate", strings.NewReader(`{nope`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHealthzAndNotFound(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/loops/generate", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for GET generate, got %d", rec.Code)
	}
}

func TestStart(t *testing.T) {
	shutdown, baseURL, err := Start("127.0.0.1:0", newTestHandler(t))
	if err != nil {
		t.Skipf("start server: %v", err)
	}
	defer shutdown(context.Background())

	payload := []byte(`{"message":"hi"}`)
	resp, err := http.Post(baseURL+"/v1/loops/generate", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var body GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Text != llm.MockedLoopJSON {
		t.Fatalf("unexpected text %q", body.Text)
	}
}
