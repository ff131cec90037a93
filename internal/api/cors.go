package api

import (
	"net/http"
	"net/url"
	"strings"
)

// cors mirrors the configured allowed origins on every response and
// answers preflights directly. Requests from unlisted origins pass through
// without CORS headers; the browser enforces the rest.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.allowedOrigins[origin] {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkOrigin authorizes WebSocket upgrades. With origins configured the
// list is authoritative; otherwise same-host and localhost are accepted.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(s.allowedOrigins) > 0 {
		return s.allowedOrigins[origin]
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := parsed.Host
	if host == r.Host {
		return true
	}
	switch {
	case host == "localhost" || strings.HasPrefix(host, "localhost:"):
		return true
	case host == "127.0.0.1" || strings.HasPrefix(host, "127.0.0.1:"):
		return true
	case host == "::1" || strings.HasPrefix(host, "[::1]:"):
		return true
	}
	return false
}
