// Package chatserver exposes the agent loop over HTTP. A turn is a POST
// that answers with an NDJSON event stream; a websocket endpoint offers
// the same protocol for long-lived clients. Request validation failures
// are structured JSON errors rejected before the stream starts, which
// keeps them distinct from in-stream error events.
package chatserver

import (
	"bufio"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/martinemde/parley/agentchat"
)

// Server routes HTTP traffic to an agent loop.
type Server struct {
	loop   *agentchat.Loop
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a Server over the given loop. A nil logger defaults to
// slog's default logger.
func New(loop *agentchat.Loop, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		loop:   loop,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /v1/turns", s.handleTurn)
	s.mux.HandleFunc("GET /v1/sessions", s.handleSessions)
	s.mux.HandleFunc("GET /v1/sessions/{id}/history", s.handleHistory)
	s.mux.HandleFunc("GET /v1/sessions/{id}/ws", s.handleSessionSocket)
	return s
}

// Handler returns the server's handler with request logging applied.
func (s *Server) Handler() http.Handler {
	return requestLogging(s.logger, s.mux)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiErrorResponse{Error: apiError{Code: code, Message: message}})
}

// handleTurn runs one turn and streams its events as NDJSON frames. Any
// rejection happens with a non-200 status before the first frame; once
// streaming starts, failures travel in-band as error events.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req agentchat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be a JSON turn request")
		return
	}

	emitter, err := s.loop.Run(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, agentchat.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, agentchat.ErrSessionBusy):
			writeError(w, http.StatusConflict, "session_busy", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	for {
		select {
		case event, ok := <-emitter.Events():
			if !ok {
				return
			}
			if err := enc.Encode(event); err != nil {
				// Streaming failures are logged, never propagated into
				// the turn.
				s.logger.Warn("ndjson write failed, detaching client",
					"session_id", event.SessionID, "error", err)
				s.detach(emitter)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		case <-r.Context().Done():
			s.detach(emitter)
			return
		}
	}
}

// detach cancels the emitter and drains whatever the producer already
// buffered so the turn goroutine can finish.
func (s *Server) detach(emitter *agentchat.EventEmitter) {
	emitter.Cancel()
	for range emitter.Events() {
	}
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.loop.Store().SessionIDs()
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	history, ok := s.loop.Store().History(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_session", "no such session")
		return
	}
	if history == nil {
		history = []agentchat.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   history,
	})
}

// requestLogging wraps a handler with structured request logs.
func requestLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusCapturingWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.statusCode(),
			"duration", time.Since(start),
		)
	})
}

type statusCapturingWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusCapturingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusCapturingWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(p)
}

func (w *statusCapturingWriter) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Flush keeps NDJSON streaming working through the logging wrapper.
func (w *statusCapturingWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack keeps websocket upgrades working through the logging wrapper.
func (w *statusCapturingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}
