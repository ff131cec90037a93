package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tabpulse/backend/internal/metrics"
)

// handleSSE serves the online-count feed as a server-sent event stream.
// Buffering is disabled end to end (X-Accel-Buffering for nginx-style
// proxies, an explicit flush per event) so the first event reaches the
// client immediately.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	id := uuid.NewString()
	s.subscribers.Add(1)
	defer s.subscribers.Add(-1)
	s.log.Info("sse subscriber connected", "subscriber", id, "remote", r.RemoteAddr)

	err := s.publisher.Run(r.Context(), id, func(data []byte) error {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		metrics.StreamEventsTotal.WithLabelValues("sse").Inc()
		return nil
	})
	if err != nil {
		s.log.Info("sse subscriber disconnected", "subscriber", id, "error", err)
		return
	}
	s.log.Info("sse subscriber disconnected", "subscriber", id)
}

// handleWS serves the same feed over a WebSocket for clients that cannot
// use EventSource. The server only reads to detect the close frame.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	id := uuid.NewString()
	s.subscribers.Add(1)
	defer s.subscribers.Add(-1)
	s.log.Info("ws subscriber connected", "subscriber", id, "remote", r.RemoteAddr)

	runErr := s.publisher.Run(ctx, id, func(data []byte) error {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return err
		}
		metrics.StreamEventsTotal.WithLabelValues("ws").Inc()
		return nil
	})
	if runErr != nil {
		s.log.Info("ws subscriber disconnected", "subscriber", id, "error", runErr)
		return
	}
	s.log.Info("ws subscriber disconnected", "subscriber", id)
}
