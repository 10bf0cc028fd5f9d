package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// handleStream runs the same routing decision as /process but delivers the
// result as server-sent events, so voice clients can start speaking before
// the full payload lands:
//
//	event: thinking — emitted immediately, before routing starts.
//	event: token    — one event per word of the spoken response.
//	event: done     — the full response object, identical to /process.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	utt, ok := s.decodeUtterance(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent(w, "thinking", map[string]string{"status": "thinking"})
	flusher.Flush()

	resp := s.pipeline.Route(r.Context(), utt)

	for _, word := range strings.Fields(resp.TextResponse) {
		if r.Context().Err() != nil {
			return
		}
		writeEvent(w, "token", map[string]string{"token": word + " "})
		flusher.Flush()
	}

	writeEvent(w, "done", resp)
	flusher.Flush()
}

// writeEvent serializes v and writes one SSE frame.
func writeEvent(w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(`{"error":"encode failed"}`)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
