package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/BharatDhande/Vaani/internal/server"
	"github.com/BharatDhande/Vaani/pkg/intent"
	memorymock "github.com/BharatDhande/Vaani/pkg/memory/mock"
)

// stubPipeline returns a fixed response and records what it was asked.
type stubPipeline struct {
	mu    sync.Mutex
	resp  intent.Response
	calls []intent.Utterance
}

func (p *stubPipeline) Route(_ context.Context, utt intent.Utterance) intent.Response {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, utt)
	return p.resp
}

func weatherResponse() intent.Response {
	return intent.Response{
		Intent:       intent.KindGetWeather,
		Slots:        intent.Slots{Query: "current location"},
		Confidence:   0.89,
		TextResponse: "Checking the weather.",
		RoutedBy:     intent.RoutedByRule,
		LatencyMS:    3,
	}
}

func TestProcess_RoutesUtterance(t *testing.T) {
	pipeline := &stubPipeline{resp: weatherResponse()}
	srv := server.New(pipeline, &memorymock.Store{})

	body := `{"text": "  what's the weather  ", "session_id": "s-1"}`
	req := httptest.NewRequest("POST", "/api/v1/process", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body)
	}

	var resp intent.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if resp.Intent != intent.KindGetWeather {
		t.Errorf("intent = %q, want get_weather", resp.Intent)
	}
	if resp.RoutedBy != intent.RoutedByRule {
		t.Errorf("routed_by = %q, want rule", resp.RoutedBy)
	}

	if len(pipeline.calls) != 1 {
		t.Fatalf("pipeline called %d times, want 1", len(pipeline.calls))
	}
	got := pipeline.calls[0]
	if got.Text != "what's the weather" {
		t.Errorf("text = %q, want trimmed text", got.Text)
	}
	if got.SessionID != "s-1" {
		t.Errorf("session_id = %q, want s-1", got.SessionID)
	}
	if got.Lang != "en" {
		t.Errorf("lang = %q, want default en", got.Lang)
	}
}

func TestProcess_EmptyTextRejected(t *testing.T) {
	pipeline := &stubPipeline{}
	srv := server.New(pipeline, &memorymock.Store{})

	body := `{"text": "   ", "session_id": "s-1"}`
	req := httptest.NewRequest("POST", "/api/v1/process", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(pipeline.calls) != 0 {
		t.Errorf("pipeline called %d times, want 0", len(pipeline.calls))
	}

	var errBody map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if !strings.Contains(errBody["error"], "text") {
		t.Errorf("error = %q, should mention text", errBody["error"])
	}
}

func TestProcess_InvalidJSONRejected(t *testing.T) {
	srv := server.New(&stubPipeline{}, &memorymock.Store{})

	req := httptest.NewRequest("POST", "/api/v1/process", strings.NewReader(`{"text": `))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestProcess_UnknownFieldRejected(t *testing.T) {
	srv := server.New(&stubPipeline{}, &memorymock.Store{})

	body := `{"text": "hi", "sesion_id": "typo"}`
	req := httptest.NewRequest("POST", "/api/v1/process", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestProcess_MissingSessionIDRejected(t *testing.T) {
	pipeline := &stubPipeline{resp: weatherResponse()}
	srv := server.New(pipeline, &memorymock.Store{})

	req := httptest.NewRequest("POST", "/api/v1/process", strings.NewReader(`{"text": "weather"}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(pipeline.calls) != 0 {
		t.Errorf("pipeline called %d times, want 0", len(pipeline.calls))
	}

	var errBody map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if !strings.Contains(errBody["error"], "session_id") {
		t.Errorf("error = %q, should mention session_id", errBody["error"])
	}
}

func TestProcess_LatencyHeader(t *testing.T) {
	pipeline := &stubPipeline{resp: weatherResponse()}
	srv := server.New(pipeline, &memorymock.Store{})

	req := httptest.NewRequest("POST", "/api/v1/process",
		strings.NewReader(`{"text": "weather", "session_id": "s-1"}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Latency-Ms"); got != "3" {
		t.Errorf("X-Latency-Ms = %q, want 3", got)
	}
}

func TestClearMemory(t *testing.T) {
	store := &memorymock.Store{}
	srv := server.New(&stubPipeline{}, store)

	req := httptest.NewRequest("DELETE", "/api/v1/memory/s-42", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body)
	}
	if len(store.ClearCalls) != 1 || store.ClearCalls[0] != "s-42" {
		t.Errorf("ClearCalls = %v, want [s-42]", store.ClearCalls)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if body["status"] != "cleared" || body["session_id"] != "s-42" {
		t.Errorf("body = %v, want cleared s-42", body)
	}
}

func TestClearMemory_StoreError(t *testing.T) {
	store := &memorymock.Store{ClearErr: errors.New("backend down")}
	srv := server.New(&stubPipeline{}, store)

	req := httptest.NewRequest("DELETE", "/api/v1/memory/s-42", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestAPIKey_MissingKeyRejected(t *testing.T) {
	pipeline := &stubPipeline{resp: weatherResponse()}
	srv := server.New(pipeline, &memorymock.Store{}, server.WithAPIKey("secret"))

	req := httptest.NewRequest("POST", "/api/v1/process", strings.NewReader(`{"text": "hi"}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if len(pipeline.calls) != 0 {
		t.Errorf("pipeline called %d times, want 0", len(pipeline.calls))
	}
}

func TestAPIKey_ValidKeyAccepted(t *testing.T) {
	srv := server.New(&stubPipeline{resp: weatherResponse()}, &memorymock.Store{},
		server.WithAPIKey("secret"))

	req := httptest.NewRequest("POST", "/api/v1/process",
		strings.NewReader(`{"text": "hi", "session_id": "s-1"}`))
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body)
	}
}

func TestAPIKey_ProbesStayOpen(t *testing.T) {
	srv := server.New(&stubPipeline{}, &memorymock.Store{}, server.WithAPIKey("secret"))

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	scrape := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("# metrics"))
	})
	srv := server.New(&stubPipeline{}, &memorymock.Store{}, server.WithScrapeHandler(scrape))

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "# metrics") {
		t.Errorf("body = %q, want scrape output", rec.Body.String())
	}
}
