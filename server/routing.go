package server

import (
	"bufio"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/logger"
)

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.corsMiddleware(s.HandleHealth))
	mux.HandleFunc("POST /api/classify", s.corsMiddleware(s.HandleClassify))
	mux.HandleFunc("POST /api/sessions", s.corsMiddleware(s.HandleCreateSession))
	mux.HandleFunc("DELETE /api/sessions/{id}", s.corsMiddleware(s.HandleDeleteSession))
	mux.HandleFunc("POST /api/sessions/{id}/views", s.corsMiddleware(s.HandleStartViewCall))
	mux.HandleFunc("POST /api/sessions/{id}/tokens", s.corsMiddleware(s.HandleStartTokens))
	mux.HandleFunc("GET /api/sessions/{id}/slots/{slot}", s.corsMiddleware(s.HandleSlot))
	mux.HandleFunc("GET /ws", s.corsMiddleware(s.HandleWebSocket))
	mux.HandleFunc("OPTIONS /", s.corsMiddleware(func(http.ResponseWriter, *http.Request) {}))
	return s.logRequests(mux)
}

// corsMiddleware adds CORS headers for allowed origins.
// Uses the same origin validation as WebSocket connections.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.checkOrigin(r) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

// upgrader creates a WebSocket upgrader with origin checking from config
func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin validates the Origin header against the configured allowed
// origins. Prefix matching allows any port. No origin (CLI clients, tests)
// is allowed.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, allowed := range s.origins {
		if strings.HasPrefix(origin, allowed) {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack lets the websocket upgrader take over the connection
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// logRequests logs method, path, status and duration of every request
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debugw("HTTP request",
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			logger.FieldStatus, rec.status,
			logger.FieldDurationMS, time.Since(start).Milliseconds(),
		)
	})
}
