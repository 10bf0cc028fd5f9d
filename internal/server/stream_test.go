package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BharatDhande/Vaani/internal/server"
	"github.com/BharatDhande/Vaani/pkg/intent"
	memorymock "github.com/BharatDhande/Vaani/pkg/memory/mock"
)

// sseEvent is one parsed server-sent event frame.
type sseEvent struct {
	name string
	data string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, frame := range strings.Split(body, "\n\n") {
		frame = strings.TrimSpace(frame)
		if frame == "" {
			continue
		}
		var ev sseEvent
		for _, line := range strings.Split(frame, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				ev.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				ev.data = strings.TrimPrefix(line, "data: ")
			}
		}
		if ev.name == "" {
			t.Fatalf("frame without event name: %q", frame)
		}
		events = append(events, ev)
	}
	return events
}

func TestStream_EventOrder(t *testing.T) {
	pipeline := &stubPipeline{resp: intent.Response{
		Intent:       intent.KindLLMResponse,
		Confidence:   1.0,
		TextResponse: "The sky is blue.",
		RoutedBy:     intent.RoutedByLLM,
	}}
	srv := server.New(pipeline, &memorymock.Store{})

	body := `{"text": "why is the sky blue", "session_id": "s-1"}`
	req := httptest.NewRequest("POST", "/api/v1/stream", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	events := parseSSE(t, rec.Body.String())
	if len(events) != 6 {
		t.Fatalf("got %d events, want 6 (thinking + 4 tokens + done): %+v", len(events), events)
	}
	if events[0].name != "thinking" {
		t.Errorf("first event = %q, want thinking", events[0].name)
	}

	var spoken strings.Builder
	for _, ev := range events[1:5] {
		if ev.name != "token" {
			t.Fatalf("event = %q, want token", ev.name)
		}
		var tok map[string]string
		if err := json.Unmarshal([]byte(ev.data), &tok); err != nil {
			t.Fatalf("decode token event: %v", err)
		}
		spoken.WriteString(tok["token"])
	}
	if got := strings.TrimSpace(spoken.String()); got != "The sky is blue." {
		t.Errorf("reassembled tokens = %q, want original text", got)
	}

	last := events[len(events)-1]
	if last.name != "done" {
		t.Fatalf("last event = %q, want done", last.name)
	}
	var resp intent.Response
	if err := json.Unmarshal([]byte(last.data), &resp); err != nil {
		t.Fatalf("decode done event: %v", err)
	}
	if resp.Intent != intent.KindLLMResponse || resp.RoutedBy != intent.RoutedByLLM {
		t.Errorf("done payload = %+v, want full llm_response", resp)
	}
}

func TestStream_NoSpokenTextStillCompletes(t *testing.T) {
	pipeline := &stubPipeline{resp: intent.Response{
		Intent:     intent.KindUnknown,
		RoutedBy:   intent.RoutedByRule,
		Confidence: 0,
	}}
	srv := server.New(pipeline, &memorymock.Store{})

	req := httptest.NewRequest("POST", "/api/v1/stream",
		strings.NewReader(`{"text": "mumble", "session_id": "s-1", "partial": true}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	events := parseSSE(t, rec.Body.String())
	if len(events) != 2 {
		t.Fatalf("got %d events, want thinking + done: %+v", len(events), events)
	}
	if events[0].name != "thinking" || events[1].name != "done" {
		t.Errorf("events = %+v, want [thinking done]", events)
	}
}

func TestStream_EmptyTextRejectedBeforeStreaming(t *testing.T) {
	srv := server.New(&stubPipeline{}, &memorymock.Store{})

	req := httptest.NewRequest("POST", "/api/v1/stream", strings.NewReader(`{"text": ""}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("Content-Type = %q, want JSON error", ct)
	}
}
