// Package server exposes the Vaani assistant over HTTP.
//
// The API surface:
//
//   - POST   /api/v1/process             — one routing decision per request.
//   - POST   /api/v1/stream              — same decision, streamed as SSE.
//   - DELETE /api/v1/memory/{session_id} — drop a session's history.
//   - GET    /healthz, /readyz           — liveness and readiness probes.
//   - GET    /metrics                    — Prometheus scrape endpoint.
//
// Assistant endpoints optionally require an X-API-Key header; probes and
// metrics stay open.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/BharatDhande/Vaani/internal/health"
	"github.com/BharatDhande/Vaani/internal/observe"
	"github.com/BharatDhande/Vaani/pkg/intent"
	"github.com/BharatDhande/Vaani/pkg/memory"
)

// maxBodyBytes caps request bodies. Utterances are short; anything larger is
// a client bug.
const maxBodyBytes = 64 << 10

// Pipeline is the routing decision the transport delegates to.
type Pipeline interface {
	Route(ctx context.Context, utt intent.Utterance) intent.Response
}

// Server holds the HTTP handlers for the assistant API. Construct with [New]
// and mount via [Server.Routes].
type Server struct {
	pipeline Pipeline
	store    memory.TurnStore
	health   *health.Handler
	metrics  *observe.Metrics
	scrape   http.Handler
	apiKey   string
}

// Option is a functional option for [New].
type Option func(*Server)

// WithAPIKey requires the given key in the X-API-Key header of assistant
// requests. Empty disables auth.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

// WithHealth sets the health handler serving /healthz and /readyz.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithScrapeHandler sets the handler serving GET /metrics (typically
// promhttp.Handler()). When unset, /metrics is not registered.
func WithScrapeHandler(h http.Handler) Option {
	return func(s *Server) { s.scrape = h }
}

// WithMetrics sets the metrics instance used by the HTTP middleware.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a Server routing assistant requests through pipeline and
// clearing history via store.
func New(pipeline Pipeline, store memory.TurnStore, opts ...Option) *Server {
	s := &Server{
		pipeline: pipeline,
		store:    store,
	}
	for _, o := range opts {
		o(s)
	}
	if s.health == nil {
		s.health = health.New()
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Routes builds the full handler tree: assistant endpoints behind auth and
// the observability middleware, probes and metrics unwrapped.
func (s *Server) Routes() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/process", s.handleProcess)
	api.HandleFunc("POST /api/v1/stream", s.handleStream)
	api.HandleFunc("DELETE /api/v1/memory/{session_id}", s.handleClearMemory)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", s.requireKey(observe.Middleware(s.metrics)(api)))
	s.health.Register(mux)
	if s.scrape != nil {
		mux.Handle("GET /metrics", s.scrape)
	}
	return mux
}

// handleProcess runs one routing decision and returns the normalized response.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	utt, ok := s.decodeUtterance(w, r)
	if !ok {
		return
	}
	resp := s.pipeline.Route(r.Context(), utt)
	w.Header().Set("X-Latency-Ms", strconv.FormatInt(resp.LatencyMS, 10))
	writeJSON(w, http.StatusOK, resp)
}

// handleClearMemory drops the history of one session.
func (s *Server) handleClearMemory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if err := s.store.Clear(r.Context(), sessionID); err != nil {
		slog.Warn("memory clear failed", "session", sessionID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to clear session memory")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "cleared",
		"session_id": sessionID,
	})
}

// decodeUtterance parses and validates the request body. On failure it writes
// the error response and returns ok=false.
func (s *Server) decodeUtterance(w http.ResponseWriter, r *http.Request) (intent.Utterance, bool) {
	var utt intent.Utterance
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&utt); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return utt, false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return utt, false
	}

	utt.Text = strings.TrimSpace(utt.Text)
	if utt.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return utt, false
	}
	if utt.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return utt, false
	}
	if utt.Lang == "" {
		utt.Lang = "en"
	}
	return utt, true
}

// requireKey enforces the X-API-Key header when an API key is configured.
func (s *Server) requireKey(next http.Handler) http.Handler {
	if s.apiKey == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
