// Package api wires the HTTP surface: hit ingestion, the online-count
// stream (SSE and WebSocket), probes, and operational endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tabpulse/backend/internal/metrics"
	"github.com/tabpulse/backend/internal/ops"
	"github.com/tabpulse/backend/internal/presence"
	"github.com/tabpulse/backend/internal/stream"
)

type Options struct {
	Recorder       *presence.Recorder
	Store          presence.Store
	Publisher      *stream.Publisher
	Status         *ops.Collector
	AllowedOrigins []string
	ProbeTimeout   time.Duration
	Frontend       http.Handler
	Log            *slog.Logger
}

type Server struct {
	recorder       *presence.Recorder
	store          presence.Store
	publisher      *stream.Publisher
	status         *ops.Collector
	allowedOrigins map[string]bool
	probeTimeout   time.Duration
	frontend       http.Handler
	log            *slog.Logger
	subscribers    atomic.Int64
}

func NewServer(opts Options) *Server {
	s := &Server{
		recorder:       opts.Recorder,
		store:          opts.Store,
		publisher:      opts.Publisher,
		status:         opts.Status,
		allowedOrigins: make(map[string]bool),
		probeTimeout:   opts.ProbeTimeout,
		frontend:       opts.Frontend,
		log:            opts.Log,
	}
	for _, origin := range opts.AllowedOrigins {
		if origin != "" {
			s.allowedOrigins[origin] = true
		}
	}
	if s.probeTimeout <= 0 {
		s.probeTimeout = 2 * time.Second
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Post("/v1/hit", s.handleHit)
	r.Get("/sse/online", s.handleSSE)
	r.Get("/ws/online", s.handleWS)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/statusz", s.handleStatusz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	if s.frontend != nil {
		r.Handle("/*", s.frontend)
	}
	return r
}

// ActiveSubscribers reports currently connected stream subscribers.
func (s *Server) ActiveSubscribers() int64 {
	return s.subscribers.Load()
}

type response struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type hitRequest struct {
	Sid  string `json:"sid"`
	Path string `json:"path"`
	Kind string `json:"kind"`
}

func (s *Server) handleHit(w http.ResponseWriter, r *http.Request) {
	var req hitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Error: "malformed json body"})
		return
	}

	outcome, err := s.recorder.Record(r.Context(), req.Sid, req.Path, presence.Kind(req.Kind))
	if err != nil {
		if errors.Is(err, presence.ErrInvalidHit) {
			writeJSON(w, http.StatusBadRequest, response{Error: err.Error()})
			return
		}
		s.log.Error("hit failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, response{Error: "internal error"})
		return
	}

	if outcome == presence.OutcomeDegraded {
		metrics.DegradedTotal.Inc()
		writeJSON(w, http.StatusAccepted, response{Degraded: true})
		return
	}
	metrics.HitsTotal.WithLabelValues(req.Kind).Inc()
	writeJSON(w, http.StatusOK, response{OK: true})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{OK: true})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.probeTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, response{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, response{OK: true})
}

func (s *Server) handleStatusz(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		writeJSON(w, http.StatusServiceUnavailable, response{Error: "status collector unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, s.status.Status(r.Context(), s.subscribers.Load()))
}
